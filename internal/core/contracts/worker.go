package contracts

import "context"

// AsyncWorker consumes queued position deltas and persists them.
type AsyncWorker interface {
	// Run starts the consumer loop; returns once the subscription is set up.
	Run(ctx context.Context) error
	// ProcessDelta persists one delta, then acks and deletes the stream entry.
	ProcessDelta(ctx context.Context, messageID string, raw []byte) error
}

// TxManager runs a function inside a database transaction carried via
// context.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
