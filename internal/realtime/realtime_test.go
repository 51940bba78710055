// AngelaMos | 2026
// realtime_test.go

package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBroker(t *testing.T) *Broker {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewBroker(rdb)
}

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestPublishReachesFranchiseSubscribersInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := newBroker(t)

	sub, err := b.Subscribe(ctx, "f1")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, "f1", Event{Table: TableStores, Op: OpInsert, RowID: "s1"}))
	require.NoError(t, b.Publish(ctx, "f1", Event{Table: TableUserProfiles, Op: OpUpdate, RowID: "u1"}))

	first := receive(t, sub)
	assert.Equal(t, TableStores, first.Table)
	assert.Equal(t, "s1", first.RowID)
	assert.Equal(t, "f1", first.FranchiseID)

	second := receive(t, sub)
	assert.Equal(t, TableUserProfiles, second.Table)
}

func TestSubscribersOnlySeeTheirFranchise(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := newBroker(t)

	sub, err := b.Subscribe(ctx, "f1")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, "f2", Event{Table: TableStores, RowID: "other"}))
	require.NoError(t, b.Publish(ctx, "f1", Event{Table: TableStores, RowID: "mine"}))

	assert.Equal(t, "mine", receive(t, sub).RowID)
}

func TestCloseEndsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := newBroker(t)

	sub, err := b.Subscribe(ctx, "f1")
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestPublishWithoutFranchiseIsNoop(t *testing.T) {
	b := newBroker(t)
	assert.NoError(t, b.Publish(context.Background(), "", Event{Table: TableStores}))
}
