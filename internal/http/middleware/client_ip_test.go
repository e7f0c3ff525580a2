package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIPResolver(t *testing.T) {
	cases := []struct {
		name       string
		trusted    []string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{
			name:       "direct peer",
			remoteAddr: "203.0.113.7:4321",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded header ignored from untrusted peer",
			remoteAddr: "203.0.113.7:4321",
			forwarded:  "198.51.100.9",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded header honored from trusted proxy",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4321",
			forwarded:  "198.51.100.9",
			want:       "198.51.100.9",
		},
		{
			name:       "left-most forwarded entry wins",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4321",
			forwarded:  "198.51.100.9, 10.1.2.3",
			want:       "198.51.100.9",
		},
		{
			name:       "single trusted address form",
			trusted:    []string{"10.1.2.3"},
			remoteAddr: "10.1.2.3:4321",
			forwarded:  "198.51.100.9",
			want:       "198.51.100.9",
		},
		{
			name:       "garbage forwarded falls back to peer",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4321",
			forwarded:  "not-an-ip",
			want:       "10.1.2.3",
		},
		{
			name:       "unparseable peer yields empty key",
			remoteAddr: "garbage",
			want:       "",
		},
		{
			name:       "ipv6 peer",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := NewClientIPResolver(tc.trusted)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if got := res.Resolve(req); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
