package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"nostr-workbench/internal/types"
)

// fetchEventsFromRelays queries the relay set once and collects events until
// every relay reports EOSE or the timeout fires. Results are deduplicated by
// ID and sorted newest first.
func fetchEventsFromRelays(relays []string, filter types.Filter) []types.Event {
	return fetchEventsFromRelaysWithTimeout(relays, filter, 1500*time.Millisecond)
}

func fetchEventsFromRelaysWithTimeout(relays []string, filter types.Filter, timeout time.Duration) []types.Event {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var wg sync.WaitGroup
	eventChan := make(chan types.Event, 1000)

	for _, relay := range relays {
		wg.Add(1)
		go func(relayURL string) {
			defer wg.Done()
			fetchFromRelay(ctx, relayURL, filter, eventChan)
		}(relay)
	}

	go func() {
		wg.Wait()
		close(eventChan)
	}()

	seenIDs := make(map[string]bool)
	events := []types.Event{}

collectLoop:
	for {
		select {
		case evt, ok := <-eventChan:
			if !ok {
				break collectLoop
			}
			if !seenIDs[evt.ID] {
				seenIDs[evt.ID] = true
				events = append(events, evt)
			}
		case <-ctx.Done():
			break collectLoop
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt != events[j].CreatedAt {
			return events[i].CreatedAt > events[j].CreatedAt
		}
		return events[i].ID < events[j].ID
	})

	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[:filter.Limit]
	}

	return events
}

// fetchFromRelay runs a one-shot subscription against a single relay and
// forwards events until EOSE.
func fetchFromRelay(ctx context.Context, relayURL string, filter types.Filter, eventChan chan<- types.Event) {
	subID := "fetch-" + randomString(8)
	sub, err := relayPool.Subscribe(ctx, relayURL, subID, filter)
	if err != nil {
		return
	}
	defer relayPool.Unsubscribe(relayURL, sub)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case evt := <-sub.EventChan:
			select {
			case eventChan <- evt:
			case <-ctx.Done():
				return
			}
		case <-sub.EOSEChan:
			return
		}
	}
}

// fetchEventByID fetches a specific event by its ID, returning the first copy
// seen on any relay.
func fetchEventByID(relays []string, eventID string) *types.Event {
	events := fetchEventsFromRelaysWithTimeout(relays, types.Filter{
		IDs:   []string{eventID},
		Limit: 1,
	}, 2*time.Second)
	if len(events) == 0 {
		return nil
	}
	return &events[0]
}

// randomString produces a short random identifier for subscription IDs
func randomString(n int) string {
	b := make([]byte, (n+1)/2)
	rand.Read(b)
	return hex.EncodeToString(b)[:n]
}
