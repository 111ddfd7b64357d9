package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "yxplore/internal/bookings/errors"
	mongotx "yxplore/pkg/db/mongo"
	"yxplore/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoBookingRepository) InsertPassengers(ctx context.Context, passengers []*model.Passenger) error {
	if len(passengers) == 0 {
		return nil
	}
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ts := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(passengers))
	for _, p := range passengers {
		p.CreatedAt = ts
		docs = append(docs, p)
	}

	result, err := r.passengers.InsertMany(ctx, docs)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %v", bookingserrors.ErrDuplicatePassenger, err)
		}
		return fmt.Errorf("failed to insert passengers: %w", err)
	}

	for i, id := range result.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(passengers) {
			passengers[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoBookingRepository) FindPassengers(ctx context.Context, bookingID string) ([]*model.Passenger, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.passengers.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find passengers: %w", err)
	}
	defer cursor.Close(ctx)

	passengers := []*model.Passenger{}
	if err = cursor.All(ctx, &passengers); err != nil {
		return nil, fmt.Errorf("failed to decode passengers: %w", err)
	}
	return passengers, nil
}
