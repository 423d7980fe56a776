package worker

import (
	"context"

	"github.com/spec-kit/campus-voice/internal/events"
	"github.com/spec-kit/campus-voice/internal/realtime"
)

// StartRealtimeWorker registers dispatcher handlers that fan concern row
// changes out as change tokens, so every open dashboard subscription sees
// the change and refetches.
func StartRealtimeWorker(dispatcher events.Dispatcher, publisher *realtime.Publisher) {
	if dispatcher == nil || publisher == nil {
		return
	}

	publish := func(kind realtime.ChangeKind) events.EventHandler {
		return func(ctx context.Context, event events.Event) error {
			publisher.Publish(ctx, realtime.ChangeToken{
				ConcernID: event.ConcernID,
				OwnerID:   event.OwnerID,
				Kind:      kind,
			})
			return nil
		}
	}

	dispatcher.Subscribe(events.EventConcernCreated, publish(realtime.ChangeInsert))
	dispatcher.Subscribe(events.EventConcernStatusChanged, publish(realtime.ChangeUpdate))
	dispatcher.Subscribe(events.EventConcernCommentAdded, publish(realtime.ChangeUpdate))
}
