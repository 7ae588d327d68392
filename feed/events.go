package feed

import (
	"context"
	"encoding/json"
	"os"

	"github.com/Luismorlan/teamfeed/model"
	Logger "github.com/Luismorlan/teamfeed/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-redis/redis/v8"
)

// ChangesTopic is the single event bus topic all committed feed mutations
// publish to. Subscribers filter by company and kind themselves.
const ChangesTopic = "feed.changes"

// RedisChangesChannel is the pub/sub channel used to relay changes between
// processes when a redis client is configured.
const RedisChangesChannel = "teamfeed_feed_changes"

// changeEnvelope wraps a FeedChange with the publishing instance id so the
// redis relay can drop its own echoes instead of re-delivering them locally.
type changeEnvelope struct {
	Origin string            `json:"origin"`
	Change *model.FeedChange `json:"change"`
}

// ChangeBus fans out FeedChange notifications. In-process delivery rides a
// watermill gochannel bus. When a redis client is provided, every publish is
// mirrored to a redis pub/sub channel and RunRedisRelay republishes changes
// from other processes onto the local bus, so subscribers never care where a
// mutation happened.
type ChangeBus struct {
	local    *gochannel.GoChannel
	redis    *redis.Client
	originId string
}

// NewChangeBus returns a bus with in-process delivery only.
func NewChangeBus() *ChangeBus {
	return &ChangeBus{
		local: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16},
			watermill.NewStdLogger(false, false),
		),
		originId: watermill.NewUUID(),
	}
}

// NewChangeBusWithRedis returns a bus that additionally mirrors publishes to
// redis. The caller still needs to start RunRedisRelay to receive changes
// from other processes.
func NewChangeBusWithRedis(client *redis.Client) *ChangeBus {
	bus := NewChangeBus()
	bus.redis = client
	return bus
}

// NewRedisClientFromEnv builds the redis client used for cross-process
// change relay, configured through REDIS_HOST / REDIS_PORT / REDIS_PASSWD.
func NewRedisClientFromEnv() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_HOST") + ":" + os.Getenv("REDIS_PORT"),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
}

// Publish delivers the change to local subscribers and, when configured,
// mirrors it to redis. Redis publish failure is logged but never fails the
// mutation that already committed.
func (b *ChangeBus) Publish(ctx context.Context, change *model.FeedChange) error {
	payload, err := json.Marshal(&changeEnvelope{Origin: b.originId, Change: change})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.local.Publish(ChangesTopic, msg); err != nil {
		return err
	}

	if b.redis != nil {
		if err := b.redis.Publish(ctx, RedisChangesChannel, payload).Err(); err != nil {
			Logger.Log.Warn("fail to mirror feed change to redis: ", err)
		}
	}
	return nil
}

// Subscribe returns a channel of decoded changes. The channel is closed when
// ctx is cancelled. Undecodable messages are acked and dropped.
func (b *ChangeBus) Subscribe(ctx context.Context) (<-chan *model.FeedChange, error) {
	messages, err := b.local.Subscribe(ctx, ChangesTopic)
	if err != nil {
		return nil, err
	}

	out := make(chan *model.FeedChange, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var envelope changeEnvelope
			if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
				Logger.Log.Warn("drop undecodable feed change: ", err)
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- envelope.Change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RunRedisRelay republishes changes received over redis onto the local bus.
// Blocks until ctx is cancelled. Changes originating from this process are
// skipped, local delivery already happened at publish time.
func (b *ChangeBus) RunRedisRelay(ctx context.Context) error {
	if b.redis == nil {
		return nil
	}

	pubsub := b.redis.Subscribe(ctx, RedisChangesChannel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case received, ok := <-pubsub.Channel():
			if !ok {
				return nil
			}
			var envelope changeEnvelope
			if err := json.Unmarshal([]byte(received.Payload), &envelope); err != nil {
				Logger.Log.Warn("drop undecodable relayed change: ", err)
				continue
			}
			if envelope.Origin == b.originId {
				continue
			}
			msg := message.NewMessage(watermill.NewUUID(), []byte(received.Payload))
			if err := b.local.Publish(ChangesTopic, msg); err != nil {
				Logger.Log.Warn("fail to republish relayed change: ", err)
			}
		}
	}
}

// Close shuts down the local bus and closes all subscriber channels.
func (b *ChangeBus) Close() error {
	return b.local.Close()
}
