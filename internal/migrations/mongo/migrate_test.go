package mongo

import (
	"testing"

	"carelink/internal/bookings/repository"
	peersrepo "carelink/internal/peerspaces/repository"
	providersrepo "carelink/internal/providers/repository"
	usersrepo "carelink/internal/users/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_MatchRepositories(t *testing.T) {
	var names []string
	for _, def := range Collections() {
		names = append(names, def.Name)
		assert.NotEmpty(t, def.Indexes, def.Name)
		assert.Contains(t, def.Validator, "$jsonSchema", def.Name)
	}

	assert.ElementsMatch(t, []string{
		repository.CollectionName,
		providersrepo.CollectionName,
		usersrepo.CollectionName,
		peersrepo.RoomsCollection,
		peersrepo.MessagesCollection,
		peersrepo.VisitsCollection,
		peersrepo.SessionsCollection,
	}, names)
}

func TestBookingsIndexes_HeldSlotIsPartialUnique(t *testing.T) {
	require.NotEmpty(t, BookingsIndexes)
	opts := BookingsIndexes[0].Options
	require.NotNil(t, opts)

	require.NotNil(t, opts.Unique)
	assert.True(t, *opts.Unique)
	assert.Equal(t, bson.M{"status": bson.M{"$in": bson.A{"pending", "confirmed", "completed"}}}, opts.PartialFilterExpression)
	assert.Equal(t, "uniq_held_slot", *opts.Name)

	var keys []string
	for _, k := range BookingsIndexes[0].Keys.(bson.D) {
		keys = append(keys, k.Key)
	}
	assert.Equal(t, []string{"provider_id", "day", "start_time", "end_time"}, keys)
}

func TestVisitsAndSessions_AreUnique(t *testing.T) {
	require.NotNil(t, VisitsIndexes[0].Options.Unique)
	assert.True(t, *VisitsIndexes[0].Options.Unique)
	require.NotNil(t, SessionsIndexes[0].Options.Unique)
	assert.True(t, *SessionsIndexes[0].Options.Unique)
}
