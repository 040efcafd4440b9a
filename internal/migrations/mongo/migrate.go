package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"carelink/internal/migrations/mongo/validators"
	"carelink/pkg/logger"
)

type CollectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	// heldSlot backs the at-most-one-non-cancelled-booking-per-slot invariant.
	// Only cancelled bookings fall out of the index.
	heldSlot = options.Index().
		SetName("uniq_held_slot").
		SetUnique(true).
		SetPartialFilterExpression(bson.M{"status": bson.M{"$in": bson.A{"pending", "confirmed", "completed"}}})

	BookingsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "provider_id", Value: 1},
				{Key: "day", Value: 1},
				{Key: "start_time", Value: 1},
				{Key: "end_time", Value: 1},
			},
			Options: heldSlot,
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	ProvidersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_approved", Value: 1}, {Key: "is_active", Value: 1}, {Key: "rating", Value: -1}}},
		{Keys: bson.D{{Key: "location", Value: 1}}},
	}

	UsersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	RoomsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "name", Value: 1}}},
	}

	MessagesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
	}

	VisitsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pseudonym", Value: 1}, {Key: "room_id", Value: 1}},
			Options: options.Index().SetName("uniq_pseudonym_room").SetUnique(true),
		},
		{Keys: bson.D{{Key: "pseudonym", Value: 1}, {Key: "last_visited", Value: -1}}},
		{Keys: bson.D{{Key: "room_id", Value: 1}}},
	}

	SessionsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pseudonym", Value: 1}},
			Options: options.Index().SetName("uniq_pseudonym").SetUnique(true),
		},
	}
)

// Collections lists every collection with its validator and indexes.
func Collections() []CollectionDef {
	return []CollectionDef{
		{Name: "Bookings", Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		{Name: "Providers", Indexes: ProvidersIndexes, Validator: validators.ProviderValidator},
		{Name: "Users", Indexes: UsersIndexes, Validator: validators.UserValidator},
		{Name: "Rooms", Indexes: RoomsIndexes, Validator: validators.RoomValidator},
		{Name: "Messages", Indexes: MessagesIndexes, Validator: validators.MessageValidator},
		{Name: "RoomHistories", Indexes: VisitsIndexes, Validator: validators.VisitValidator},
		{Name: "UserSessions", Indexes: SessionsIndexes, Validator: validators.SessionValidator},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
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

	log.Info("Collection exists, updating validator", "collection", name)
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
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
