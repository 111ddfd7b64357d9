package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	profileserrors "yxplore/internal/profiles/errors"
	"yxplore/pkg/config"
	mongotx "yxplore/pkg/db/mongo"
	"yxplore/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ClientCollection   = "client_profiles"
	MerchantCollection = "merchant_profiles"
	AdminCollection    = "admin_profiles"
	AccountCollection  = "user_accounts"
)

type ProfileRepository interface {
	InsertClient(ctx context.Context, p *model.ClientProfile) error
	InsertMerchant(ctx context.Context, p *model.MerchantProfile) error
	InsertAdmin(ctx context.Context, p *model.AdminProfile) error

	FindClientByID(ctx context.Context, id string) (*model.ClientProfile, error)
	FindMerchantByID(ctx context.Context, id string) (*model.MerchantProfile, error)
	FindAdminByID(ctx context.Context, id string) (*model.AdminProfile, error)

	// FindSubject loads the profile a reference points at.
	FindSubject(ctx context.Context, ref model.ProfileRef) (model.KycSubject, error)
	// SaveSubject writes a client or merchant profile back, guarded by its version.
	SaveSubject(ctx context.Context, subject model.KycSubject) error

	FindAccount(ctx context.Context, userID string) (*model.UserAccount, error)
	LinkProfile(ctx context.Context, userID string, ref model.ProfileRef) error
	LinkAdmin(ctx context.Context, userID, adminID string) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoProfileRepository struct {
	cfg       *config.Config
	clients   *mongo.Collection
	merchants *mongo.Collection
	admins    *mongo.Collection
	accounts  *mongo.Collection
	txManager mongotx.TransactionManager
}

func NewMongoProfileRepository(cfg *config.Config) ProfileRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProfileRepository{
		cfg:       cfg,
		clients:   db.Collection(ClientCollection),
		merchants: db.Collection(MerchantCollection),
		admins:    db.Collection(AdminCollection),
		accounts:  db.Collection(AccountCollection),
		txManager: mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoProfileRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *mongoProfileRepository) insert(ctx context.Context, coll *mongo.Collection, doc any) (string, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := coll.InsertOne(ctx, doc)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return "", fmt.Errorf("%w: %v", profileserrors.ErrProfileExists, err)
		}
		return "", fmt.Errorf("failed to insert into %s: %w", coll.Name(), err)
	}
	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected id type %T in %s", result.InsertedID, coll.Name())
	}
	return oid.Hex(), nil
}

func (r *mongoProfileRepository) InsertClient(ctx context.Context, p *model.ClientProfile) error {
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	p.Version = 1
	id, err := r.insert(ctx, r.clients, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *mongoProfileRepository) InsertMerchant(ctx context.Context, p *model.MerchantProfile) error {
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	p.Version = 1
	id, err := r.insert(ctx, r.merchants, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *mongoProfileRepository) InsertAdmin(ctx context.Context, p *model.AdminProfile) error {
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	id, err := r.insert(ctx, r.admins, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *mongoProfileRepository) findByID(ctx context.Context, coll *mongo.Collection, id string, dest any) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", profileserrors.ErrInvalidID, id)
	}

	err = coll.FindOne(ctx, bson.M{"_id": objectID}).Decode(dest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: %s", profileserrors.ErrNotFound, id)
		}
		return fmt.Errorf("failed to find profile in %s: %w", coll.Name(), err)
	}
	return nil
}

func (r *mongoProfileRepository) FindClientByID(ctx context.Context, id string) (*model.ClientProfile, error) {
	var p model.ClientProfile
	if err := r.findByID(ctx, r.clients, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *mongoProfileRepository) FindMerchantByID(ctx context.Context, id string) (*model.MerchantProfile, error) {
	var p model.MerchantProfile
	if err := r.findByID(ctx, r.merchants, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *mongoProfileRepository) FindAdminByID(ctx context.Context, id string) (*model.AdminProfile, error) {
	var p model.AdminProfile
	if err := r.findByID(ctx, r.admins, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *mongoProfileRepository) FindSubject(ctx context.Context, ref model.ProfileRef) (model.KycSubject, error) {
	switch ref.Kind {
	case model.KindClient:
		p, err := r.FindClientByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return p, nil
	case model.KindMerchant:
		p, err := r.FindMerchantByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: unknown profile kind %q", profileserrors.ErrInvalidID, ref.Kind)
}

func (r *mongoProfileRepository) SaveSubject(ctx context.Context, subject model.KycSubject) error {
	switch p := subject.(type) {
	case *model.ClientProfile:
		doc := *p
		doc.ID = ""
		doc.Version = p.Version + 1
		if err := r.replaceVersioned(ctx, r.clients, p.ID, p.Version, doc); err != nil {
			return err
		}
		p.Version = doc.Version
	case *model.MerchantProfile:
		doc := *p
		doc.ID = ""
		doc.Version = p.Version + 1
		if err := r.replaceVersioned(ctx, r.merchants, p.ID, p.Version, doc); err != nil {
			return err
		}
		p.Version = doc.Version
	default:
		return fmt.Errorf("unsupported kyc subject %T", subject)
	}
	return nil
}

// replaceVersioned sets every field of doc on the row whose version still
// equals expected. doc must not carry an _id.
func (r *mongoProfileRepository) replaceVersioned(ctx context.Context, coll *mongo.Collection, id string, expected int64, doc any) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", profileserrors.ErrInvalidID, id)
	}

	result, err := coll.UpdateOne(ctx,
		bson.M{"_id": objectID, "version": expected},
		bson.M{"$set": doc},
	)
	if err != nil {
		return fmt.Errorf("failed to update profile in %s: %w", coll.Name(), err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", profileserrors.ErrVersionConflict, id)
	}
	return nil
}

func (r *mongoProfileRepository) FindAccount(ctx context.Context, userID string) (*model.UserAccount, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var account model.UserAccount
	err := r.accounts.FindOne(ctx, bson.M{"_id": userID}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", profileserrors.ErrAccountNotFound, userID)
		}
		return nil, fmt.Errorf("failed to find user account: %w", err)
	}
	return &account, nil
}

// LinkProfile attaches the exclusive client or merchant side to the account.
// The filter only matches an account that is free or already of the same
// kind; otherwise the upsert collides on _id and the link is refused.
func (r *mongoProfileRepository) LinkProfile(ctx context.Context, userID string, ref model.ProfileRef) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	field := "client_profile_id"
	if ref.IsMerchant() {
		field = "merchant_profile_id"
	}
	ts := now()

	filter := bson.M{
		"_id": userID,
		"$or": bson.A{
			bson.M{"kind": bson.M{"$exists": false}},
			bson.M{"kind": ref.Kind},
		},
		field: bson.M{"$exists": false},
	}
	update := bson.M{
		"$set":         bson.M{"kind": ref.Kind, field: ref.ID, "updated_at": ts},
		"$setOnInsert": bson.M{"created_at": ts},
	}

	_, err := r.accounts.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: user %s", profileserrors.ErrConflictingProfile, userID)
		}
		return fmt.Errorf("failed to link profile: %w", err)
	}
	return nil
}

func (r *mongoProfileRepository) LinkAdmin(ctx context.Context, userID, adminID string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ts := now()
	filter := bson.M{"_id": userID, "admin_profile_id": bson.M{"$exists": false}}
	update := bson.M{
		"$set":         bson.M{"admin_profile_id": adminID, "updated_at": ts},
		"$setOnInsert": bson.M{"created_at": ts},
	}

	_, err := r.accounts.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: admin for user %s", profileserrors.ErrProfileExists, userID)
		}
		return fmt.Errorf("failed to link admin profile: %w", err)
	}
	return nil
}
