package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"edulive/internal/core/contracts"
	"edulive/internal/core/domain"
	"edulive/internal/core/services"
)

// ProgressWorker drains the position-delta stream and persists playhead
// updates. Deltas are already broadcast by the time they reach the stream;
// this loop only owns durability.
type ProgressWorker struct {
	log      *slog.Logger
	queue    contracts.DeltaQueue
	progress *services.ProgressService
	stream   string
	group    string
}

func NewProgressWorker(
	log *slog.Logger,
	queue contracts.DeltaQueue,
	progress *services.ProgressService,
	stream string,
	group string,
) contracts.AsyncWorker {
	return &ProgressWorker{
		log:      log,
		queue:    queue,
		progress: progress,
		stream:   stream,
		group:    group,
	}
}

func (w *ProgressWorker) Run(ctx context.Context) error {
	if err := w.queue.Subscribe(ctx, w.stream, w.group, w.ProcessDelta); err != nil {
		w.log.ErrorContext(ctx, "worker - run - subscribe failed", "stream", w.stream, "group", w.group, "err", err)
		return err
	}
	w.log.InfoContext(ctx, "worker - run - subscribed", "stream", w.stream, "group", w.group)
	return nil
}

func (w *ProgressWorker) ProcessDelta(ctx context.Context, messageID string, raw []byte) error {
	var d domain.PositionDelta
	if err := json.Unmarshal(raw, &d); err != nil {
		w.log.ErrorContext(ctx, "worker - process delta - malformed payload", "message_id", messageID)
		// Poison entry: ack and delete so it does not wedge the group.
		_ = w.queue.Ack(ctx, w.stream, w.group, messageID)
		_ = w.queue.Delete(ctx, w.stream, messageID)
		return err
	}
	if err := w.progress.PersistPosition(ctx, &d); err != nil {
		w.log.ErrorContext(ctx, "worker - process delta - persist failed", "message_id", messageID, "err", err)
		return err
	}
	// Persisted; remove from the pending list (XACK) and trim the stream (XDEL).
	if err := w.queue.Ack(ctx, w.stream, w.group, messageID); err != nil {
		w.log.ErrorContext(ctx, "worker - process delta - ack failed", "message_id", messageID, "err", err)
		return err
	}
	if err := w.queue.Delete(ctx, w.stream, messageID); err != nil {
		// Already processed and acked; deletion is housekeeping.
		w.log.WarnContext(ctx, "worker - process delta - delete failed", "message_id", messageID, "err", err)
	}
	return nil
}
