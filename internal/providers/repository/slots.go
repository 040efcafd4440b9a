package repository

import (
	"context"
	"fmt"
	"time"

	"carelink/internal/ledger"
	mongotx "carelink/pkg/db/mongo"
	"carelink/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClaimSlot flips a free slot to booked with one conditional update. When
// nothing matched, a second read tells a missing slot from a taken one.
func (r *mongoProviderRepository) ClaimSlot(ctx context.Context, key model.SlotKey) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(key.ProviderID)
	if err != nil {
		return ledger.ErrSlotNotFound
	}

	filter := slotFilter(objectID, key, bson.M{"is_booked": false})
	update := bson.M{"$set": bson.M{
		"availability.$[d].slots.$[s].is_booked": true,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.Update().SetArrayFilters(slotArrayFilters(key, false))

	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to claim slot: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, slotFilter(objectID, key, nil))
	if err != nil {
		return fmt.Errorf("failed to claim slot: %w", err)
	}
	if count == 0 {
		return ledger.ErrSlotNotFound
	}
	return ledger.ErrSlotAlreadyBooked
}

func (r *mongoProviderRepository) ReleaseSlot(ctx context.Context, key model.SlotKey) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(key.ProviderID)
	if err != nil {
		return false, nil
	}

	filter := slotFilter(objectID, key, bson.M{"is_booked": true})
	update := bson.M{"$set": bson.M{
		"availability.$[d].slots.$[s].is_booked": false,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.Update().SetArrayFilters(slotArrayFilters(key, true))

	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, fmt.Errorf("failed to release slot: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

func slotFilter(providerID primitive.ObjectID, key model.SlotKey, extra bson.M) bson.M {
	slot := bson.M{
		"start_time": key.StartTime,
		"end_time":   key.EndTime,
	}
	for k, v := range extra {
		slot[k] = v
	}
	return bson.M{
		"_id": providerID,
		"availability": bson.M{"$elemMatch": bson.M{
			"day":   key.Day,
			"slots": bson.M{"$elemMatch": slot},
		}},
	}
}

func slotArrayFilters(key model.SlotKey, booked bool) options.ArrayFilters {
	return options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"d.day": key.Day},
			bson.M{
				"s.start_time": key.StartTime,
				"s.end_time":   key.EndTime,
				"s.is_booked":  booked,
			},
		},
	}
}
