package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	kycerrors "yxplore/internal/kyc/errors"
	"yxplore/pkg/config"
	mongotx "yxplore/pkg/db/mongo"
	"yxplore/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ValidationCollection = "kyc_validations"

type ValidationRepository interface {
	Create(ctx context.Context, v *model.KYCValidation) error
	FindByID(ctx context.Context, id string) (*model.KYCValidation, error)
	// FindPending lists open validations, oldest first.
	FindPending(ctx context.Context, limit int, offset int64) ([]*model.KYCValidation, error)
	CountPending(ctx context.Context) (int64, error)
	FindByProfile(ctx context.Context, ref model.ProfileRef) ([]*model.KYCValidation, error)
	// Save writes v over the stored row if its version is unchanged and bumps v.Version.
	Save(ctx context.Context, v *model.KYCValidation) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoValidationRepository struct {
	cfg         *config.Config
	validations *mongo.Collection
	txManager   mongotx.TransactionManager
}

func NewMongoValidationRepository(cfg *config.Config) ValidationRepository {
	return &mongoValidationRepository{
		cfg:         cfg,
		validations: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(ValidationCollection),
		txManager:   mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoValidationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoValidationRepository) Create(ctx context.Context, v *model.KYCValidation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	v.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	v.UpdatedAt = v.CreatedAt
	v.Version = 1
	result, err := r.validations.InsertOne(ctx, v)
	if err != nil {
		return fmt.Errorf("failed to create kyc validation: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		v.ID = oid.Hex()
	}
	return nil
}

func (r *mongoValidationRepository) FindByID(ctx context.Context, id string) (*model.KYCValidation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", kycerrors.ErrInvalidID, id)
	}

	var v model.KYCValidation
	if err := r.validations.FindOne(ctx, bson.M{"_id": objectID}).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", kycerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find kyc validation: %w", err)
	}
	return &v, nil
}

func (r *mongoValidationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.KYCValidation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.validations.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find kyc validations: %w", err)
	}
	defer cursor.Close(ctx)

	out := []*model.KYCValidation{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode kyc validations: %w", err)
	}
	return out, nil
}

func (r *mongoValidationRepository) FindPending(ctx context.Context, limit int, offset int64) ([]*model.KYCValidation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, bson.M{"status": model.ValidationPending}, opts)
}

func (r *mongoValidationRepository) CountPending(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.validations.CountDocuments(ctx, bson.M{"status": model.ValidationPending})
	if err != nil {
		return 0, fmt.Errorf("failed to count kyc validations: %w", err)
	}
	return count, nil
}

func (r *mongoValidationRepository) FindByProfile(ctx context.Context, ref model.ProfileRef) ([]*model.KYCValidation, error) {
	filter := bson.M{"profile.kind": ref.Kind, "profile.id": ref.ID}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *mongoValidationRepository) Save(ctx context.Context, v *model.KYCValidation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(v.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", kycerrors.ErrInvalidID, v.ID)
	}

	doc := *v
	doc.ID = ""
	doc.Version = v.Version + 1
	doc.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.validations.UpdateOne(ctx,
		bson.M{"_id": objectID, "version": v.Version},
		bson.M{"$set": doc},
	)
	if err != nil {
		return fmt.Errorf("failed to update kyc validation: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", kycerrors.ErrVersionConflict, v.ID)
	}
	v.Version = doc.Version
	v.UpdatedAt = doc.UpdatedAt
	return nil
}
