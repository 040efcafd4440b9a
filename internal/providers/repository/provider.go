package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"carelink/internal/ledger"
	providerserrors "carelink/internal/providers/errors"
	"carelink/pkg/config"
	mongotx "carelink/pkg/db/mongo"
	"carelink/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Providers"
)

type ProviderRepository interface {
	ledger.SlotStore
	Create(ctx context.Context, provider *model.Provider) error
	FindByID(ctx context.Context, id string) (*model.Provider, error)
	FindBookable(ctx context.Context, filter model.ProviderFilter, limit int, offset int64) ([]*model.Provider, error)
	CountBookable(ctx context.Context, filter model.ProviderFilter) (int64, error)
	AddReview(ctx context.Context, providerID string, review model.Review) (*model.Provider, error)
}

type mongoProviderRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoProviderRepository(cfg *config.Config) ProviderRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProviderRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoProviderRepository) Create(ctx context.Context, provider *model.Provider) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	provider.CreatedAt = now
	provider.UpdatedAt = now
	if provider.Reviews == nil {
		provider.Reviews = []model.Review{}
	}

	result, err := r.collection.InsertOne(ctx, provider)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		provider.ID = oid.Hex()
	}
	return nil
}

func (r *mongoProviderRepository) FindByID(ctx context.Context, id string) (*model.Provider, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", providerserrors.ErrInvalidID, id)
	}

	var provider model.Provider
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&provider)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, providerserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find provider: %w", err)
	}

	return &provider, nil
}

func (r *mongoProviderRepository) FindBookable(ctx context.Context, filter model.ProviderFilter, limit int, offset int64) ([]*model.Provider, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"reviews": 0}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bookableFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find providers: %w", err)
	}
	defer cursor.Close(ctx)

	providers := []*model.Provider{}
	if err = cursor.All(ctx, &providers); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}

	return providers, nil
}

func (r *mongoProviderRepository) CountBookable(ctx context.Context, filter model.ProviderFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bookableFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count providers: %w", err)
	}
	return count, nil
}

// AddReview appends the review and recomputes the aggregate rating in a single
// pipeline update. The filter rejects a second review from the same user.
func (r *mongoProviderRepository) AddReview(ctx context.Context, providerID string, review model.Review) (*model.Provider, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(providerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", providerserrors.ErrInvalidID, providerID)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	review.CreatedAt = now

	filter := bson.M{
		"_id":             objectID,
		"reviews.user_id": bson.M{"$ne": review.UserID},
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				bson.A{bson.M{"$literal": review}},
			}},
			"updated_at": now,
		}}},
		{{Key: "$set", Value: bson.M{
			"review_count": bson.M{"$size": "$reviews"},
			"rating":       bson.M{"$avg": "$reviews.rating"},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var provider model.Provider
	err = r.collection.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&provider)
	if err == nil {
		return &provider, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	if count == 0 {
		return nil, providerserrors.ErrNotFound
	}
	return nil, providerserrors.ErrDuplicateReview
}

func bookableFilter(filter model.ProviderFilter) bson.M {
	query := bson.M{
		"is_approved": true,
		"is_active":   true,
	}
	if filter.Location != "" {
		query["location"] = bson.M{"$regex": regexp.QuoteMeta(filter.Location), "$options": "i"}
	}
	if len(filter.Modes) > 0 {
		query["modes"] = bson.M{"$in": filter.Modes}
	}
	if len(filter.TherapyTypes) > 0 {
		query["therapy_types"] = bson.M{"$in": filter.TherapyTypes}
	}
	if filter.MinRating > 0 {
		query["rating"] = bson.M{"$gte": filter.MinRating}
	}
	if filter.MaxRate > 0 {
		query["session_rate"] = bson.M{"$lte": filter.MaxRate}
	}
	return query
}
