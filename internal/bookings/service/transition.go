package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "yxplore/internal/bookings/errors"
	apperrors "yxplore/pkg/errors"
	"yxplore/pkg/events"
	"yxplore/pkg/model"
	"yxplore/pkg/tracing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
)

// guardFunc checks that b may take the transition at now and applies it.
type guardFunc func(b *model.Booking, now time.Time) error

func stateConflict(guard, message string, b *model.Booking) *apperrors.AppError {
	return apperrors.StateConflict(guard, message, map[string]any{
		"booking_id":     b.ID,
		"status":         b.Status,
		"payment_status": b.PaymentStatus,
	})
}

func confirm(b *model.Booking, now time.Time) error {
	if b.Status != model.StatusPending {
		return stateConflict(GuardInvalidStateTransition,
			fmt.Sprintf("Cannot confirm a booking in status %s", b.Status), b)
	}
	b.Status = model.StatusConfirmed
	b.ConfirmedAt = &now
	return nil
}

func cancel(b *model.Booking, now time.Time) error {
	if !b.IsCancellable() {
		return stateConflict(GuardNotCancellable, "Only pending unpaid bookings can be cancelled", b)
	}
	b.Status = model.StatusCancelled
	b.CancelledAt = &now
	return nil
}

// markPaid records the payment and promotes a pending booking to confirmed
// in the same write.
func markPaid(b *model.Booking, now time.Time) error {
	switch {
	case b.PaymentStatus == model.PaymentPaid:
		return stateConflict(GuardAlreadyPaid, "Booking is already paid", b)
	case b.PaymentStatus == model.PaymentRefunded:
		return stateConflict(GuardAlreadyRefunded, "Booking payment was refunded", b)
	case b.Status == model.StatusCancelled:
		return stateConflict(GuardBookingCancelled, "Cannot pay a cancelled booking", b)
	case b.Status == model.StatusExpired:
		return stateConflict(GuardBookingExpired, "Cannot pay an expired booking", b)
	}
	b.PaymentStatus = model.PaymentPaid
	b.PaidAt = &now
	if b.Status == model.StatusPending {
		b.Status = model.StatusConfirmed
		b.ConfirmedAt = &now
	}
	return nil
}

func markPaymentFailed(b *model.Booking, _ time.Time) error {
	if b.PaymentStatus != model.PaymentUnpaid {
		return stateConflict(GuardPaymentNotPending,
			fmt.Sprintf("Cannot fail a payment in status %s", b.PaymentStatus), b)
	}
	b.PaymentStatus = model.PaymentFailed
	return nil
}

func expire(b *model.Booking, now time.Time) error {
	if !b.IsExpirable(now) {
		return stateConflict(GuardNotExpirable, "Booking is not expirable", b)
	}
	b.Status = model.StatusExpired
	b.ExpiredAt = &now
	return nil
}

func (s *bookingService) Confirm(ctx context.Context, id string) (*model.Booking, error) {
	return s.transition(ctx, id, "confirm", confirm, events.BookingConfirmed)
}

func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	return s.transition(ctx, id, "cancel", cancel, events.BookingCancelled)
}

func (s *bookingService) MarkPaid(ctx context.Context, id string) (*model.Booking, error) {
	return s.transition(ctx, id, "mark_paid", markPaid, events.BookingPaid)
}

func (s *bookingService) MarkPaymentFailed(ctx context.Context, id string) (*model.Booking, error) {
	return s.transition(ctx, id, "mark_payment_failed", markPaymentFailed, events.BookingPaymentFailed)
}

// transition re-reads the booking, applies guard and writes it back with a
// version check, all in one transaction. When another writer got there
// first the whole step is replayed against the fresh row, so the guard
// always judges the latest state.
func (s *bookingService) transition(ctx context.Context, id, op string, guard guardFunc, eventType events.Type) (booking *model.Booking, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "bookings."+op, attribute.String("booking_id", id))
	defer func() { tracing.End(span, err) }()

	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	attempts := s.cfg.MaxTransitionRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		booking, err = s.applyOnce(ctx, id, guard)
		if err == nil {
			break
		}
		if !errors.Is(err, bookingserrors.ErrVersionConflict) {
			s.logFailure("Booking transition rejected", err, "booking_id", id, "operation", op)
			return nil, err
		}
		s.cfg.Log.Debug("Booking version conflict, retrying", "booking_id", id, "operation", op, "attempt", attempt)
	}
	if err != nil {
		s.cfg.Log.Warn("Booking transition kept conflicting", "booking_id", id, "operation", op, "attempts", attempts)
		return nil, apperrors.Conflict("Booking is being modified concurrently, please retry")
	}

	s.cfg.Log.Info("Booking transitioned",
		"booking_id", booking.ID,
		"operation", op,
		"status", booking.Status,
		"payment_status", booking.PaymentStatus,
	)
	s.events.Publish(ctx, events.New(eventType, booking.ID, map[string]any{
		"reference":      booking.Reference,
		"status":         booking.Status,
		"payment_status": booking.PaymentStatus,
	}))
	return booking, nil
}

func (s *bookingService) applyOnce(ctx context.Context, id string, guard guardFunc) (*model.Booking, error) {
	var booking *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		b, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			return s.mapReadError(err, id)
		}
		if err := guard(b, s.now().UTC().Truncate(time.Millisecond)); err != nil {
			return err
		}
		if err := s.repo.Save(sessCtx, b); err != nil {
			if errors.Is(err, bookingserrors.ErrVersionConflict) {
				return err
			}
			return apperrors.Internal("Failed to update booking", err)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.repo.FindExpirable(ctx, now, s.cfg.ExpiryBatchSize)
	if err != nil {
		s.cfg.Log.Error("Failed to find expirable bookings", "error", err)
		return 0, apperrors.Internal("Failed to find expirable bookings", err)
	}

	atNow := func(b *model.Booking, _ time.Time) error { return expire(b, now) }

	expired := 0
	for _, b := range stale {
		if _, err := s.transition(ctx, b.ID, "expire", atNow, events.BookingExpired); err != nil {
			if apperrors.Guard(err) == GuardNotExpirable {
				continue
			}
			s.cfg.Log.Error("Failed to expire booking", "booking_id", b.ID, "error", err)
			continue
		}
		expired++
	}

	if expired > 0 {
		s.cfg.Log.Info("Expired stale bookings", "count", expired, "candidates", len(stale))
	}
	return expired, nil
}
