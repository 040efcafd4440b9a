package repository

import (
	"context"
	"fmt"
	"time"

	peerserrors "carelink/internal/peerspaces/errors"
	"carelink/pkg/config"
	mongotx "carelink/pkg/db/mongo"
	"carelink/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoSessionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSessionRepository(cfg *config.Config) SessionRepository {
	database := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSessionRepository{
		cfg:        cfg,
		collection: database.Collection(SessionsCollection),
	}
}

// Create relies on the unique pseudonym index to reject duplicates.
func (r *mongoSessionRepository) Create(ctx context.Context, session *model.Session) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	session.CreatedAt = now
	session.LastActive = now

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return peerserrors.ErrPseudonymTaken
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSessionRepository) Exists(ctx context.Context, pseudonym string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"pseudonym": pseudonym}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check pseudonym: %w", err)
	}
	return count > 0, nil
}

func (r *mongoSessionRepository) Touch(ctx context.Context, pseudonym string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"pseudonym": pseudonym},
		bson.M{"$set": bson.M{"last_active": at.UTC().Truncate(time.Millisecond)}},
	)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}
