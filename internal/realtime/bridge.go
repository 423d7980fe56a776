package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-voice/internal/observability"
)

// Refetch reloads the partition's list from the store. Implementations must
// honor ctx: when the handle is closed the context is cancelled, so an
// in-flight refetch aborts and its result is discarded rather than applied
// to a torn-down consumer.
type Refetch func(ctx context.Context) error

// Bridge keeps a consumer's in-memory list live by turning any change token
// in the partition into a full refetch. No incremental patching: concurrent
// multi-admin edits make client-side merging a versioning problem this
// system does not otherwise have, and a full reload is always correct.
type Bridge struct {
	source  TokenSource
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewBridge constructs the bridge.
func NewBridge(source TokenSource, logger *zap.Logger, metrics *observability.Metrics) *Bridge {
	return &Bridge{source: source, logger: logger, metrics: metrics}
}

// Handle is the process-local subscription resource. Close is safe to call
// more than once; teardown happens exactly once.
type Handle struct {
	cancel    context.CancelFunc
	stream    TokenStream
	closeOnce sync.Once
	done      chan struct{}
}

// Close tears the subscription down: the stream is closed, the refetch loop
// stops, and any in-flight refetch is cancelled. Blocks until the loop has
// exited so no refetch result lands after Close returns.
func (h *Handle) Close() {
	h.closeOnce.Do(func() {
		h.cancel()
		_ = h.stream.Close()
	})
	<-h.done
}

// Subscribe opens the partition's token stream and starts the refetch loop.
// Rapid successive tokens are coalesced: a refetch already in flight absorbs
// them into at most one trailing refetch, so the consumer always sees at
// least one refetch after the last token without running one per token.
func (b *Bridge) Subscribe(ctx context.Context, partition Partition, refetch Refetch) (*Handle, error) {
	subCtx, cancel := context.WithCancel(ctx)

	stream, err := b.source.Open(subCtx, partition)
	if err != nil {
		cancel()
		return nil, err
	}

	handle := &Handle{
		cancel: cancel,
		stream: stream,
		done:   make(chan struct{}),
	}

	// kick carries "the partition is dirty". Buffer of one is the whole
	// coalescing mechanism: tokens arriving while a refetch runs collapse
	// into a single pending kick.
	kick := make(chan struct{}, 1)

	go func() {
		defer close(kick)
		for {
			select {
			case _, ok := <-stream.Tokens():
				if !ok {
					if subCtx.Err() == nil {
						b.logger.Warn("change stream dropped; live updates off",
							zap.String("partition", partition.String()))
					}
					return
				}
				select {
				case kick <- struct{}{}:
				default:
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	go func() {
		defer close(handle.done)
		for range kick {
			if subCtx.Err() != nil {
				return
			}
			b.metrics.RecordRefetch(partition.String())
			if err := refetch(subCtx); err != nil {
				if subCtx.Err() != nil {
					return
				}
				// Read failure: the consumer keeps its last-known list and
				// the next token retries.
				b.logger.Warn("partition refetch failed",
					zap.String("partition", partition.String()),
					zap.Error(err),
				)
			}
		}
	}()

	return handle, nil
}
