// Package syncworker consumes the change feed and keeps this
// instance's caches and store aligned with mutations performed by
// other daemon instances sharing the same upstream.
package syncworker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"eventdeck/internal/cache"
	"eventdeck/internal/notify"
)

// Refresher re-fetches one event from the upstream into the store.
type Refresher interface {
	RefreshEvent(ctx context.Context, id string) error
}

type Reader struct {
	feed      *notify.Publisher
	responses *cache.Cache
	refresher Refresher
	done      chan struct{}
	cancel    context.CancelFunc
}

func NewReader(feed *notify.Publisher, responses *cache.Cache, refresher Refresher) *Reader {
	return &Reader{
		feed:      feed,
		responses: responses,
		refresher: refresher,
		done:      make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("change feed reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg notify.ChangeMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().Err(err).Msgf("failed to unmarshal change message: %s", string(body))
				return err
			}

			// Our own mutations already updated the local state.
			if msg.Origin == r.feed.Origin() {
				return nil
			}

			zlog.Logger.Info().
				Str("entity", msg.Entity).
				Str("entity_id", msg.EntityID).
				Str("op", msg.Op).
				Msg("received change from another instance")

			switch msg.Entity {
			case "event":
				r.responses.InvalidatePrefix("events_")
				if msg.Op != "delete" {
					if err := r.refresher.RefreshEvent(cctx, msg.EntityID); err != nil {
						zlog.Logger.Warn().Err(err).Str("event_id", msg.EntityID).Msg("failed to refresh event after remote change")
					}
				}
			case "guest":
				r.responses.InvalidatePrefix("guests_")
			}
			return nil
		}

		if err := r.feed.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming change feed")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("change feed reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
