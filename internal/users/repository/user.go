package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	userserrors "carelink/internal/users/errors"
	"carelink/pkg/auth"
	"carelink/pkg/config"
	mongotx "carelink/pkg/db/mongo"
	"carelink/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Users"
)

// UserRepository keeps the booking back-references of user profiles. Profiles
// themselves are owned by the identity issuer.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	AppendBooking(ctx context.Context, userID, bookingID string) error
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	user.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if user.Bookings == nil {
		user.Bookings = []string{}
	}

	doc := *user
	if user.ID != "" {
		oid, err := primitive.ObjectIDFromHex(user.ID)
		if err != nil {
			return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, user.ID)
		}
		doc.ID = ""
		if _, err := r.collection.InsertOne(ctx, withID(oid, &doc)); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	}

	result, err := r.collection.InsertOne(ctx, &doc)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid.Hex()
	}
	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	var user model.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// AppendBooking adds the booking to the user's list, creating a bare profile
// when the identity issuer has not synced one yet.
func (r *mongoUserRepository) AppendBooking(ctx context.Context, userID, bookingID string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, userID)
	}

	update := bson.M{
		"$addToSet":    bson.M{"bookings": bookingID},
		"$setOnInsert": bson.M{"created_at": time.Now().UTC().Truncate(time.Millisecond), "role": auth.RoleUser},
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to append booking to user: %w", err)
	}
	return nil
}

func withID(id primitive.ObjectID, user *model.User) bson.M {
	return bson.M{
		"_id":        id,
		"name":       user.Name,
		"email":      user.Email,
		"role":       user.Role,
		"bookings":   user.Bookings,
		"created_at": user.CreatedAt,
	}
}
