package bookings

import (
	"context"
	"testing"
	"time"

	"bookd/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepDrainsAllBatches(t *testing.T) {
	f := newFixture(t)

	for _, seat := range []string{"S1", "S2", "S3", "S4", "S5"} {
		f.book(t, f.alice, seat)
	}
	f.advance(30 * time.Minute)

	sweeper := NewExpirySweeper(f.svc, time.Hour)
	assert.Equal(t, 5, sweeper.Sweep(context.Background()))
	assert.Zero(t, f.countClaims(t))
	assert.Zero(t, sweeper.Sweep(context.Background()))

	expired := 0
	for _, eventType := range f.publisher.types() {
		if eventType == notifications.ReservationExpired {
			expired++
		}
	}
	assert.Equal(t, 5, expired)
}

func TestSweeperStartStop(t *testing.T) {
	f := newFixture(t)
	f.book(t, f.alice, "T1")
	f.advance(30 * time.Minute)

	sweeper := NewExpirySweeper(f.svc, 10*time.Millisecond)
	sweeper.Start(context.Background())

	require.Eventually(t, func() bool {
		var count int64
		return f.db.Model(&SeatClaim{}).Count(&count).Error == nil && count == 0
	}, 2*time.Second, 10*time.Millisecond)

	sweeper.Stop()
}
