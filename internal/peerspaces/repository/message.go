package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
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

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

type mongoMessageRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoMessageRepository(cfg *config.Config) MessageRepository {
	database := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoMessageRepository{
		cfg:        cfg,
		collection: database.Collection(MessagesCollection),
	}
}

func (r *mongoMessageRepository) Create(ctx context.Context, message *model.Message) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	message.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if message.Reactions == nil {
		message.Reactions = model.NewReactions()
	}

	result, err := r.collection.InsertOne(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		message.ID = oid.Hex()
	}
	return nil
}

func (r *mongoMessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", peerserrors.ErrInvalidID, id)
	}

	var message model.Message
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&message); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, peerserrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return &message, nil
}

func (r *mongoMessageRepository) Latest(ctx context.Context, roomID string) (*model.Message, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var message model.Message
	err := r.collection.FindOne(ctx, visibleIn(roomID), options.FindOne().SetSort(newestFirst)).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, peerserrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to find latest message: %w", err)
	}
	return &message, nil
}

func (r *mongoMessageRepository) Recent(ctx context.Context, roomID string, limit int) ([]*model.Message, error) {
	return r.newest(ctx, visibleIn(roomID), limit)
}

func (r *mongoMessageRepository) Since(ctx context.Context, roomID string, from time.Time, limit int) ([]*model.Message, error) {
	filter := visibleIn(roomID)
	filter["created_at"] = bson.M{"$gte": from}
	return r.newest(ctx, filter, limit)
}

func (r *mongoMessageRepository) IncrementReaction(ctx context.Context, id, kind string) (*model.Message, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", peerserrors.ErrInvalidID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var message model.Message
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID, "is_deleted": false},
		bson.M{"$inc": bson.M{"reactions." + kind: 1}},
		opts,
	).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, peerserrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to add reaction: %w", err)
	}
	return &message, nil
}

// newest reads the newest limit matches and returns them oldest first.
func (r *mongoMessageRepository) newest(ctx context.Context, filter bson.M, limit int) ([]*model.Message, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []*model.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	slices.Reverse(messages)
	return messages, nil
}

func visibleIn(roomID string) bson.M {
	return bson.M{"room_id": roomID, "is_deleted": false}
}
