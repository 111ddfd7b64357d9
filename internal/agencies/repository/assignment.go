package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	agencieserrors "yxplore/internal/agencies/errors"
	mongotx "yxplore/pkg/db/mongo"
	"yxplore/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertAssignment updates role, responsibility and re-activates the row of
// the pair, inserting it the first time. The unique (merchant_id, agency_id)
// index keeps the pair single.
func (r *mongoAgencyRepository) UpsertAssignment(ctx context.Context, a *model.MerchantAssignment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ts := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"merchant_id": a.MerchantID, "agency_id": a.AgencyID}
	update := bson.M{
		"$set": bson.M{
			"role":           a.Role,
			"is_responsible": a.IsResponsible,
			"is_active":      true,
			"updated_at":     ts,
		},
		"$setOnInsert": bson.M{"assigned_at": ts},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored model.MerchantAssignment
	err := r.assignments.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if err != nil {
		return fmt.Errorf("failed to upsert assignment: %w", err)
	}
	*a = stored
	return nil
}

func (r *mongoAgencyRepository) DeactivateAssignment(ctx context.Context, merchantID, agencyID string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.assignments.UpdateOne(ctx,
		bson.M{"merchant_id": merchantID, "agency_id": agencyID, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate assignment: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: merchant %s agency %s", agencieserrors.ErrAssignmentNotFound, merchantID, agencyID)
	}
	return nil
}

func (r *mongoAgencyRepository) FindAssignmentsByMerchant(ctx context.Context, merchantID string) ([]*model.MerchantAssignment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.assignments.Find(ctx, bson.M{"merchant_id": merchantID, "is_active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer cursor.Close(ctx)

	assignments := []*model.MerchantAssignment{}
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, fmt.Errorf("failed to decode assignments: %w", err)
	}
	return assignments, nil
}

// FindResponsibleMerchantIDs lists active responsible merchants, oldest
// assignment first.
func (r *mongoAgencyRepository) FindResponsibleMerchantIDs(ctx context.Context, agencyID string) ([]string, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "assigned_at", Value: 1}}).
		SetProjection(bson.M{"merchant_id": 1})
	filter := bson.M{"agency_id": agencyID, "is_active": true, "is_responsible": true}

	cursor, err := r.assignments.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query responsible merchants: %w", err)
	}
	defer cursor.Close(ctx)

	ids := []string{}
	for cursor.Next(ctx) {
		var row struct {
			MerchantID string `bson:"merchant_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode assignment: %w", err)
		}
		ids = append(ids, row.MerchantID)
	}
	if err := cursor.Err(); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return ids, nil
}
