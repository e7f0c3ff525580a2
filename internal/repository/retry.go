package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// retryRead runs a read once more when the first attempt fails for a
// transient reason. Not-found and context failures are final; writes
// never come through here.
func retryRead(fn func() error) error {
	err := fn()
	if err == nil || !isTransientReadErr(err) {
		return err
	}
	return fn()
}

func isTransientReadErr(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
