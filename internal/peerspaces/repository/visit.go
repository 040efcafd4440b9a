package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	peerserrors "carelink/internal/peerspaces/errors"
	"carelink/pkg/config"
	mongotx "carelink/pkg/db/mongo"
	"carelink/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoVisitRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoVisitRepository(cfg *config.Config) VisitRepository {
	database := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVisitRepository{
		cfg:        cfg,
		collection: database.Collection(VisitsCollection),
	}
}

func (r *mongoVisitRepository) Find(ctx context.Context, pseudonym, roomID string) (*model.Visit, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var visit model.Visit
	if err := r.collection.FindOne(ctx, visitKey(pseudonym, roomID)).Decode(&visit); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, peerserrors.ErrVisitNotFound
		}
		return nil, fmt.Errorf("failed to find visit: %w", err)
	}
	return &visit, nil
}

func (r *mongoVisitRepository) Enter(ctx context.Context, pseudonym, roomID, userID string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"last_visited": at.UTC().Truncate(time.Millisecond),
		"unread_count": 0,
	}
	if userID != "" {
		set["user_id"] = userID
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"is_favorite": false, "notification_enabled": true},
	}

	if _, err := r.collection.UpdateOne(ctx, visitKey(pseudonym, roomID), update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to record visit: %w", err)
	}
	return nil
}

func (r *mongoVisitRepository) Stamp(ctx context.Context, pseudonym, roomID, lastMessageID string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{"last_visited": at.UTC().Truncate(time.Millisecond)}
	if lastMessageID != "" {
		set["last_message_id"] = lastMessageID
	}

	if _, err := r.collection.UpdateOne(ctx, visitKey(pseudonym, roomID), bson.M{"$set": set}); err != nil {
		return fmt.Errorf("failed to stamp visit: %w", err)
	}
	return nil
}

func (r *mongoVisitRepository) IncrementUnread(ctx context.Context, roomID, exceptPseudonym string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateMany(ctx,
		bson.M{"room_id": roomID, "pseudonym": bson.M{"$ne": exceptPseudonym}},
		bson.M{"$inc": bson.M{"unread_count": 1}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to increment unread counts: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoVisitRepository) MarkRead(ctx context.Context, pseudonym, roomID string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"unread_count": 0,
		"last_visited": at.UTC().Truncate(time.Millisecond),
	}}
	if _, err := r.collection.UpdateOne(ctx, visitKey(pseudonym, roomID), update); err != nil {
		return fmt.Errorf("failed to mark visit read: %w", err)
	}
	return nil
}

func (r *mongoVisitRepository) SetFavorite(ctx context.Context, pseudonym, roomID string, favorite bool) (*model.Visit, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"is_favorite": favorite},
		"$setOnInsert": bson.M{
			"last_visited":         time.Now().UTC().Truncate(time.Millisecond),
			"unread_count":         0,
			"notification_enabled": true,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var visit model.Visit
	if err := r.collection.FindOneAndUpdate(ctx, visitKey(pseudonym, roomID), update, opts).Decode(&visit); err != nil {
		return nil, fmt.Errorf("failed to update favorite: %w", err)
	}
	return &visit, nil
}

func (r *mongoVisitRepository) History(ctx context.Context, pseudonym string, limit int) ([]*model.Visit, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "last_visited", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"pseudonym": pseudonym}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find visits: %w", err)
	}
	defer cursor.Close(ctx)

	visits := []*model.Visit{}
	if err := cursor.All(ctx, &visits); err != nil {
		return nil, fmt.Errorf("failed to decode visits: %w", err)
	}
	return visits, nil
}

func (r *mongoVisitRepository) Delete(ctx context.Context, pseudonym, roomID string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, visitKey(pseudonym, roomID))
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}
	if result.DeletedCount == 0 {
		return peerserrors.ErrVisitNotFound
	}
	return nil
}

func visitKey(pseudonym, roomID string) bson.M {
	return bson.M{"pseudonym": pseudonym, "room_id": roomID}
}
