package feed

import (
	"context"
	"testing"
	"time"

	"github.com/Luismorlan/teamfeed/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func TestChangeBusLocalDelivery(t *testing.T) {
	bus := NewChangeBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	published := &model.FeedChange{CompanyId: "c1", Kind: model.ChangeKindPosts, PostId: "p1"}
	require.NoError(t, bus.Publish(ctx, published))

	select {
	case change := <-changes:
		require.Equal(t, published.CompanyId, change.CompanyId)
		require.Equal(t, published.Kind, change.Kind)
		require.Equal(t, published.PostId, change.PostId)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

// Two buses on the same redis see each other's changes; a bus never
// re-delivers its own echo.
func TestChangeBusRedisRelay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producer := NewChangeBusWithRedis(client)
	defer producer.Close()
	consumer := NewChangeBusWithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer consumer.Close()
	go consumer.RunRedisRelay(ctx)

	changes, err := consumer.Subscribe(ctx)
	require.NoError(t, err)

	// Give the relay subscription a moment to attach before publishing.
	time.Sleep(100 * time.Millisecond)

	published := &model.FeedChange{CompanyId: "c1", Kind: model.ChangeKindComments, PostId: "p1", CommentId: "cm1"}
	require.NoError(t, producer.Publish(ctx, published))

	select {
	case change := <-changes:
		require.Equal(t, published.CommentId, change.CommentId)
		require.Equal(t, model.ChangeKindComments, change.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for relayed change")
	}
}
