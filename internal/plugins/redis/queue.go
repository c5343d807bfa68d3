package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisDeltaQueue is the stream-backed buffer between the ingest path and
// the persistence worker.
type RedisDeltaQueue struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisDeltaQueue(rdb *redis.Client, log *slog.Logger) *RedisDeltaQueue {
	return &RedisDeltaQueue{rdb: rdb, log: log}
}

func streamKey(stream string) string {
	return "stream:" + stream
}

func (q *RedisDeltaQueue) Publish(ctx context.Context, stream string, payload []byte) error {
	return q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(stream),
		MaxLen: 10000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{"data": payload},
	}).Err()
}

func (q *RedisDeltaQueue) Subscribe(
	ctx context.Context,
	stream string,
	group string,
	handler func(ctx context.Context, messageID string, data []byte) error,
) error {
	topic := streamKey(stream)
	// Create group if not exists
	err := q.rdb.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	consumerName := uuid.NewString()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				// Read new entries (">")
				res, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
					Group:    group,
					Consumer: consumerName,
					Streams:  []string{topic, ">"},
					Count:    16,
					Block:    2 * time.Second,
				}).Result()
				if err != nil {
					if err != redis.Nil && ctx.Err() == nil {
						q.log.Warn("delta queue - subscribe - stream read error", "stream", topic, "err", err)
					}
					continue
				}
				for _, st := range res {
					for _, msg := range st.Messages {
						raw, ok := msg.Values["data"].(string)
						if !ok {
							continue
						}
						if err := handler(ctx, msg.ID, []byte(raw)); err != nil {
							q.log.Warn("delta queue - subscribe - handler error", "message_id", msg.ID, "err", err)
						}
					}
				}
			}
		}
	}()
	return nil
}

func (q *RedisDeltaQueue) Ack(ctx context.Context, stream, group, messageID string) error {
	return q.rdb.XAck(ctx, streamKey(stream), group, messageID).Err()
}

func (q *RedisDeltaQueue) Delete(ctx context.Context, stream, messageID string) error {
	return q.rdb.XDel(ctx, streamKey(stream), messageID).Err()
}
