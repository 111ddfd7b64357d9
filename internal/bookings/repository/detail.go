package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "yxplore/internal/bookings/errors"
	mongotx "yxplore/pkg/db/mongo"
	"yxplore/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (r *mongoBookingRepository) InsertDetail(ctx context.Context, detail *model.BookingDetail) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	detail.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	detail.UpdatedAt = detail.CreatedAt
	result, err := r.details.InsertOne(ctx, detail)
	if err != nil {
		return fmt.Errorf("failed to insert booking detail: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		detail.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindDetail(ctx context.Context, bookingID string) (*model.BookingDetail, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var detail model.BookingDetail
	err := r.details.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&detail)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrDetailNotFound, bookingID)
		}
		return nil, fmt.Errorf("failed to find booking detail: %w", err)
	}
	return &detail, nil
}
