package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func TestAuditEmitsStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	req.Header.Set("X-Request-Id", "req-test-1")

	Audit(req, "auth.login.success", "user_id", uint(42))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode audit record: %v", err)
	}
	if record["event"] != "auth.login.success" {
		t.Fatalf("unexpected event: %v", record["event"])
	}
	if record["method"] != "POST" || record["path"] != "/api/v1/auth/login" {
		t.Fatalf("request fields missing: %+v", record)
	}
	if record["request_id"] != "req-test-1" {
		t.Fatalf("unexpected request id: %v", record["request_id"])
	}
	if record["user_id"] != float64(42) {
		t.Fatalf("extra attrs not carried: %v", record["user_id"])
	}
}
