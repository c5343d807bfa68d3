package contracts

import "context"

// DeltaQueue buffers high-frequency position deltas between the ingest path
// and the persistence worker, backed by a redis stream with a consumer group.
type DeltaQueue interface {
	// Publish appends a delta payload to the stream.
	Publish(ctx context.Context, stream string, payload []byte) error
	// Subscribe starts the reliable consumer loop; handler is invoked per
	// entry with the stream message id.
	Subscribe(ctx context.Context, stream, group string, handler func(ctx context.Context, messageID string, data []byte) error) error
	// Ack removes a processed entry from the pending list.
	Ack(ctx context.Context, stream, group, messageID string) error
	// Delete drops the entry from the stream to keep it memory-efficient.
	Delete(ctx context.Context, stream, messageID string) error
}
