package mongo

import (
	"context"
	"fmt"

	"yxplore/internal/migrations/mongo/validators"
	"yxplore/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	AgenciesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "uuid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: 1}}},
	}

	MerchantAssignmentsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "merchant_id", Value: 1}, {Key: "agency_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{
			{Key: "agency_id", Value: 1},
			{Key: "is_active", Value: 1},
			{Key: "is_responsible", Value: 1},
		}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "reference", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "uuid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "merchant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "agency_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "payment_status", Value: 1},
			{Key: "offer_expires_at", Value: 1},
		}},
	}

	PassengersIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "booking_id", Value: 1},
				{Key: "given_name", Value: 1},
				{Key: "family_name", Value: 1},
				{Key: "born_on", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	BookingDetailsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	ClientProfilesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "kyc_status", Value: 1}}},
	}

	MerchantProfilesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "kyc_status", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}}},
	}

	AdminProfilesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	UserAccountsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_profile_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "merchant_profile_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	// At most one pending validation per profile and level.
	KycValidationsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "profile.kind", Value: 1},
				{Key: "profile.id", Value: 1},
				{Key: "level", Value: 1},
			},
			Options: options.Index().
				SetName("pending_per_profile_level").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "status", Value: "pending"}}),
		},
		{Keys: bson.D{{Key: "profile.kind", Value: 1}, {Key: "profile.id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	}
)

// Collection pairs a collection name with its schema validator and indexes.
type Collection struct {
	Name      string
	Validator bson.M
	Indexes   []mongo.IndexModel
}

// Collections lists every collection in creation order.
var Collections = []Collection{
	{Name: "agencies", Validator: validators.AgencyValidator, Indexes: AgenciesIndexes},
	{Name: "merchant_assignments", Validator: validators.MerchantAssignmentValidator, Indexes: MerchantAssignmentsIndexes},
	{Name: "bookings", Validator: validators.BookingValidator, Indexes: BookingsIndexes},
	{Name: "passengers", Validator: validators.PassengerValidator, Indexes: PassengersIndexes},
	{Name: "booking_details", Validator: validators.BookingDetailValidator, Indexes: BookingDetailsIndexes},
	{Name: "client_profiles", Validator: validators.ClientProfileValidator, Indexes: ClientProfilesIndexes},
	{Name: "merchant_profiles", Validator: validators.MerchantProfileValidator, Indexes: MerchantProfilesIndexes},
	{Name: "admin_profiles", Validator: validators.AdminProfileValidator, Indexes: AdminProfilesIndexes},
	{Name: "user_accounts", Validator: validators.UserAccountValidator, Indexes: UserAccountsIndexes},
	{Name: "kyc_validations", Validator: validators.KycValidationValidator, Indexes: KycValidationsIndexes},
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name(), "collections", len(Collections))

	for _, def := range Collections {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	created, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", created)
	return nil
}
