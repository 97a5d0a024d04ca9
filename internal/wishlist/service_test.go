package wishlist

import (
	"context"
	"testing"

	"bookd/internal/events"
	"bookd/internal/shared/apperrors"
	"bookd/internal/shared/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistLifecycle(t *testing.T) {
	db := dbtest.Open(t, &events.Event{}, &events.Venue{}, &events.Timing{}, &Item{})
	catalog := events.NewService(events.NewRepository(db), nil)
	svc := NewService(NewRepository(db), catalog)
	ctx := context.Background()

	event := &events.Event{Name: "Hamlet", Category: "theatre", OrganiserID: uuid.New()}
	require.NoError(t, db.Create(event).Error)
	userID := uuid.New()

	list, err := svc.Add(ctx, userID, event.ID)
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Hamlet", list.Events[0].Event.Name)

	// saving twice is a no-op
	list, err = svc.Add(ctx, userID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)

	other, err := svc.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, other.Count)

	_, err = svc.Add(ctx, userID, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	list, err = svc.Remove(ctx, userID, event.ID)
	require.NoError(t, err)
	assert.Zero(t, list.Count)

	_, err = svc.Remove(ctx, userID, event.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestWishlistSkipsDeletedEvents(t *testing.T) {
	db := dbtest.Open(t, &events.Event{}, &events.Venue{}, &events.Timing{}, &Item{})
	svc := NewService(NewRepository(db), events.NewService(events.NewRepository(db), nil))
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, db.Create(&Item{UserID: userID, EventID: uuid.New()}).Error)

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, list.Count)
	assert.NotNil(t, list.Events)
}
