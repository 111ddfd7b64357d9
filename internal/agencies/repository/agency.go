package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	agencieserrors "yxplore/internal/agencies/errors"
	"yxplore/pkg/config"
	mongotx "yxplore/pkg/db/mongo"
	"yxplore/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AgencyCollection     = "agencies"
	AssignmentCollection = "merchant_assignments"
)

type AgencyRepository interface {
	Create(ctx context.Context, agency *model.Agency) error
	FindByID(ctx context.Context, id string) (*model.Agency, error)
	FindByUUID(ctx context.Context, uuid string) (*model.Agency, error)
	FindActive(ctx context.Context, limit int, offset int64) ([]*model.Agency, error)
	CountActive(ctx context.Context) (int64, error)
	FindFirstActive(ctx context.Context) (*model.Agency, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Agency, error)
	Deactivate(ctx context.Context, id string) error

	// UpsertAssignment writes the single row of a (merchant, agency) pair.
	UpsertAssignment(ctx context.Context, a *model.MerchantAssignment) error
	DeactivateAssignment(ctx context.Context, merchantID, agencyID string) error
	FindAssignmentsByMerchant(ctx context.Context, merchantID string) ([]*model.MerchantAssignment, error)
	FindResponsibleMerchantIDs(ctx context.Context, agencyID string) ([]string, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoAgencyRepository struct {
	cfg         *config.Config
	agencies    *mongo.Collection
	assignments *mongo.Collection
	txManager   mongotx.TransactionManager
}

func NewMongoAgencyRepository(cfg *config.Config) AgencyRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAgencyRepository{
		cfg:         cfg,
		agencies:    db.Collection(AgencyCollection),
		assignments: db.Collection(AssignmentCollection),
		txManager:   mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoAgencyRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoAgencyRepository) Create(ctx context.Context, agency *model.Agency) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	agency.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	agency.UpdatedAt = agency.CreatedAt
	result, err := r.agencies.InsertOne(ctx, agency)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %v", agencieserrors.ErrDuplicateAgency, err)
		}
		return fmt.Errorf("failed to create agency: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		agency.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAgencyRepository) findOne(ctx context.Context, filter bson.M, key string) (*model.Agency, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var agency model.Agency
	err := r.agencies.FindOne(ctx, filter).Decode(&agency)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", agencieserrors.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to find agency: %w", err)
	}
	return &agency, nil
}

func (r *mongoAgencyRepository) FindByID(ctx context.Context, id string) (*model.Agency, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", agencieserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": objectID}, id)
}

func (r *mongoAgencyRepository) FindByUUID(ctx context.Context, uuid string) (*model.Agency, error) {
	return r.findOne(ctx, bson.M{"uuid": uuid}, uuid)
}

func (r *mongoAgencyRepository) FindFirstActive(ctx context.Context) (*model.Agency, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	var agency model.Agency
	err := r.agencies.FindOne(ctx, bson.M{"is_active": true}, opts).Decode(&agency)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, agencieserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active agency: %w", err)
	}
	return &agency, nil
}

func (r *mongoAgencyRepository) FindActive(ctx context.Context, limit int, offset int64) ([]*model.Agency, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.agencies.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query agencies: %w", err)
	}
	defer cursor.Close(ctx)

	agencies := []*model.Agency{}
	if err = cursor.All(ctx, &agencies); err != nil {
		return nil, fmt.Errorf("failed to decode agencies: %w", err)
	}
	return agencies, nil
}

func (r *mongoAgencyRepository) CountActive(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.agencies.CountDocuments(ctx, bson.M{"is_active": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count agencies: %w", err)
	}
	return count, nil
}

func (r *mongoAgencyRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Agency, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objectIDs = append(objectIDs, oid)
	}
	if len(objectIDs) == 0 {
		return []*model.Agency{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.agencies.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}, "is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query agencies: %w", err)
	}
	defer cursor.Close(ctx)

	agencies := []*model.Agency{}
	if err = cursor.All(ctx, &agencies); err != nil {
		return nil, fmt.Errorf("failed to decode agencies: %w", err)
	}
	return agencies, nil
}

func (r *mongoAgencyRepository) Deactivate(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", agencieserrors.ErrInvalidID, id)
	}

	result, err := r.agencies.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate agency: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", agencieserrors.ErrNotFound, id)
	}
	return nil
}
