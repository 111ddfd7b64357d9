package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	apperrors "yxplore/pkg/errors"
	"yxplore/pkg/logger"
)

type fakeExpirer struct {
	calls   int
	lastNow time.Time
	err     error
}

func (f *fakeExpirer) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	f.calls++
	f.lastNow = now
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("run has no deadline")
	}
	return 2, f.err
}

func TestExpiryJob(t *testing.T) {
	local := time.FixedZone("UTC+5", 5*3600)
	fixed := time.Date(2026, 3, 1, 15, 0, 0, 0, local)

	tests := []struct {
		name string
		err  error
	}{
		{name: "success"},
		{name: "failure is logged not raised", err: errors.New("mongo down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeExpirer{err: tt.err}
			expiryJob(f, time.Second, func() time.Time { return fixed }, logger.Discard())()

			if f.calls != 1 {
				t.Fatalf("expected one call, got %d", f.calls)
			}
			if f.lastNow.Location() != time.UTC || !f.lastNow.Equal(fixed) {
				t.Errorf("expected %v in UTC, got %v", fixed, f.lastNow)
			}
		})
	}
}

func TestNoOffers(t *testing.T) {
	_, err := noOffers{}.Get(context.Background(), "off_1")

	if !apperrors.IsAppError(err) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr := apperrors.AsAppError(err); appErr.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", appErr.HTTPStatus)
	}
}
