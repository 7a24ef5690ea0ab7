package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nostr-workbench/internal/config"
	"nostr-workbench/internal/publish"
	"nostr-workbench/internal/types"
)

// relayTransport implements publish.Transport over the shared relay pool.
// An event counts as published when at least one relay in the publish set
// accepts it.
type relayTransport struct {
	relays func() []string
}

func newRelayTransport() *relayTransport {
	return &relayTransport{relays: config.GetPublishRelays}
}

func (t *relayTransport) Publish(ctx context.Context, event *types.Event) error {
	relays := t.relays()
	if len(relays) == 0 {
		return fmt.Errorf("%w: no publish relays configured", publish.ErrRelayRejected)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}

	type result struct {
		relay string
		resp  PublishResponse
		err   error
	}

	results := make(chan result, len(relays))
	var wg sync.WaitGroup
	for _, relay := range relays {
		wg.Add(1)
		go func(relayURL string) {
			defer wg.Done()
			resp, err := relayPool.PublishEvent(ctx, relayURL, event)
			results <- result{relay: relayURL, resp: resp, err: err}
		}(relay)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	accepted := 0
	var lastErr error
	var rejection string
	for res := range results {
		switch {
		case res.err != nil:
			slog.Debug("publish attempt failed", "relay", res.relay, "event_id", event.ID, "error", res.err)
			lastErr = res.err
		case !res.resp.Success:
			slog.Debug("relay rejected event", "relay", res.relay, "event_id", event.ID, "message", res.resp.Message)
			rejection = res.resp.Message
		default:
			accepted++
		}
	}

	if accepted > 0 {
		publishedTotal.Add(1)
		slog.Info("event published", "event_id", event.ID, "kind", event.Kind, "accepted", accepted, "relays", len(relays))
		return nil
	}

	publishFailedTotal.Add(1)
	if rejection != "" {
		return fmt.Errorf("%w: %s", publish.ErrRelayRejected, rejection)
	}
	if lastErr != nil && errors.Is(lastErr, context.DeadlineExceeded) {
		return fmt.Errorf("%w: no relay answered in time", publish.ErrPublishTimeout)
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %v", publish.ErrRelayRejected, lastErr)
	}
	return publish.ErrRelayRejected
}
