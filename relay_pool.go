package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"nostr-workbench/internal/types"
)

// isRelayURLSafe validates that a relay URL is safe to connect to.
// Allows localhost for development but blocks other private IP ranges.
func isRelayURLSafe(relayURL string) bool {
	parsed, err := url.Parse(relayURL)
	if err != nil {
		return false
	}

	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return false
	}

	host := parsed.Hostname()
	if host == "" {
		return false
	}

	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		// Unresolvable hosts may still be valid external names, but block
		// obvious internal ones.
		if strings.HasSuffix(host, ".") || strings.Contains(host, ".local") || strings.Contains(host, ".internal") {
			return false
		}
		return true
	}

	for _, ip := range ips {
		if !isRelayIPSafe(ip) {
			return false
		}
	}

	return true
}

// isRelayIPSafe checks if an IP is safe for relay connections.
// Allows loopback (localhost) but blocks other private ranges.
func isRelayIPSafe(ip net.IP) bool {
	if ip == nil {
		return false
	}

	if ip.IsLoopback() {
		return true
	}

	if ip.IsPrivate() {
		return false
	}

	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return false
	}

	if ip.IsUnspecified() {
		return false
	}

	// Cloud metadata IP
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return false
	}

	if ip.IsMulticast() {
		return false
	}

	return true
}

// Subscription represents an active subscription on a relay connection
type Subscription struct {
	ID        string
	EventChan chan types.Event
	EOSEChan  chan bool
	Done      chan struct{}
	closeOnce sync.Once
}

// Close safely closes the Done channel exactly once
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.Done)
	})
}

// PublishResponse is a relay's OK reply to an EVENT message (NIP-01/NIP-20)
type PublishResponse struct {
	EventID string
	Success bool
	Message string
}

// RelayConn manages a single websocket connection with multiple subscriptions
type RelayConn struct {
	conn          *websocket.Conn
	relayURL      string
	mu            sync.Mutex
	writeMu       sync.Mutex
	subscriptions map[string]*Subscription
	okWaiters     map[string]chan PublishResponse // event ID -> waiter
	closed        bool
	lastActivity  time.Time
}

// RelayPool manages connections to multiple relays
type RelayPool struct {
	mu          sync.RWMutex
	connections map[string]*RelayConn // relayURL -> connection
}

// Global relay pool
var relayPool = NewRelayPool()

// NewRelayPool creates a new connection pool
func NewRelayPool() *RelayPool {
	pool := &RelayPool{
		connections: make(map[string]*RelayConn),
	}
	go pool.cleanupLoop()
	return pool
}

// getOrCreateConn gets an existing connection or creates a new one
func (p *RelayPool) getOrCreateConn(ctx context.Context, relayURL string) (*RelayConn, error) {
	if !isRelayURLSafe(relayURL) {
		return nil, errors.New("relay URL blocked: unsafe destination")
	}

	p.mu.RLock()
	rc := p.connections[relayURL]
	p.mu.RUnlock()

	if rc != nil && !rc.closed {
		return rc, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	rc = p.connections[relayURL]
	if rc != nil && !rc.closed {
		return rc, nil
	}

	slog.Debug("pool: creating connection", "relay", relayURL)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, relayURL, nil)
	if err != nil {
		return nil, err
	}

	rc = &RelayConn{
		conn:          conn,
		relayURL:      relayURL,
		subscriptions: make(map[string]*Subscription),
		okWaiters:     make(map[string]chan PublishResponse),
		lastActivity:  time.Now(),
	}

	p.connections[relayURL] = rc

	go rc.readLoop()

	return rc, nil
}

// filterToReq converts a Filter to the NIP-01 REQ filter object
func filterToReq(filter types.Filter) map[string]interface{} {
	req := map[string]interface{}{}
	if filter.Limit > 0 {
		req["limit"] = filter.Limit
	}
	if len(filter.IDs) > 0 {
		req["ids"] = filter.IDs
	}
	if len(filter.Authors) > 0 {
		req["authors"] = filter.Authors
	}
	if len(filter.Kinds) > 0 {
		req["kinds"] = filter.Kinds
	}
	if len(filter.ETags) > 0 {
		req["#e"] = filter.ETags
	}
	if len(filter.UpperE) > 0 {
		req["#E"] = filter.UpperE
	}
	if len(filter.PTags) > 0 {
		req["#p"] = filter.PTags
	}
	if filter.Since != nil {
		req["since"] = *filter.Since
	}
	if filter.Until != nil {
		req["until"] = *filter.Until
	}
	return req
}

// Subscribe creates a new subscription on the relay
func (p *RelayPool) Subscribe(ctx context.Context, relayURL string, subID string, filter types.Filter) (*Subscription, error) {
	const maxRetries = 3
	var rc *RelayConn
	var err error
	var connected bool

	for attempt := 0; attempt < maxRetries; attempt++ {
		rc, err = p.getOrCreateConn(ctx, relayURL)
		if err != nil {
			return nil, err
		}

		rc.mu.Lock()
		if rc.closed {
			rc.mu.Unlock()
			// Connection was closed, remove and retry
			p.mu.Lock()
			delete(p.connections, relayURL)
			p.mu.Unlock()
			continue
		}
		connected = true
		break
	}

	if !connected {
		return nil, errors.New("failed to establish connection after retries")
	}

	sub := &Subscription{
		ID:        subID,
		EventChan: make(chan types.Event, 100),
		EOSEChan:  make(chan bool, 1),
		Done:      make(chan struct{}),
	}

	// Register subscription (rc.mu is already locked from the loop)
	rc.subscriptions[subID] = sub
	rc.mu.Unlock()

	req := []interface{}{"REQ", subID, filterToReq(filter)}
	rc.writeMu.Lock()
	err = rc.conn.WriteJSON(req)
	rc.writeMu.Unlock()

	if err != nil {
		rc.mu.Lock()
		delete(rc.subscriptions, subID)
		rc.mu.Unlock()
		rc.markClosed()
		return nil, err
	}

	rc.mu.Lock()
	rc.lastActivity = time.Now()
	rc.mu.Unlock()
	return sub, nil
}

// Unsubscribe closes a subscription
func (p *RelayPool) Unsubscribe(relayURL string, sub *Subscription) {
	if sub == nil {
		return
	}

	p.mu.RLock()
	rc := p.connections[relayURL]
	p.mu.RUnlock()

	if rc == nil {
		return
	}

	rc.mu.Lock()
	_, exists := rc.subscriptions[sub.ID]
	shouldSendClose := !rc.closed && exists
	if exists {
		delete(rc.subscriptions, sub.ID)
	}
	rc.mu.Unlock()

	// Send CLOSE outside of mutex (best effort, connection may be closed)
	if shouldSendClose {
		closeMsg := []interface{}{"CLOSE", sub.ID}
		rc.writeMu.Lock()
		rc.conn.WriteJSON(closeMsg)
		rc.writeMu.Unlock()
	}

	sub.Close()
}

// PublishEvent sends an EVENT message and waits for the relay's OK response.
func (p *RelayPool) PublishEvent(ctx context.Context, relayURL string, event *types.Event) (PublishResponse, error) {
	rc, err := p.getOrCreateConn(ctx, relayURL)
	if err != nil {
		return PublishResponse{}, err
	}

	waiter := make(chan PublishResponse, 1)
	rc.mu.Lock()
	if rc.closed {
		rc.mu.Unlock()
		return PublishResponse{}, errors.New("connection closed")
	}
	rc.okWaiters[event.ID] = waiter
	rc.mu.Unlock()

	defer func() {
		rc.mu.Lock()
		delete(rc.okWaiters, event.ID)
		rc.mu.Unlock()
	}()

	eventMsg := []interface{}{"EVENT", event}
	rc.writeMu.Lock()
	rc.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	err = rc.conn.WriteJSON(eventMsg)
	rc.conn.SetWriteDeadline(time.Time{})
	rc.writeMu.Unlock()
	if err != nil {
		rc.markClosed()
		return PublishResponse{}, err
	}

	select {
	case resp := <-waiter:
		return resp, nil
	case <-ctx.Done():
		return PublishResponse{}, fmt.Errorf("waiting for OK from %s: %w", relayURL, ctx.Err())
	}
}

// readLoop continuously reads from the connection and routes messages
func (rc *RelayConn) readLoop() {
	defer rc.markClosed()

	for {
		var msg []interface{}
		err := rc.conn.ReadJSON(&msg)
		if err != nil {
			rc.mu.Lock()
			closed := rc.closed
			rc.mu.Unlock()
			if !closed {
				slog.Debug("pool: read error", "relay", rc.relayURL, "error", err)
			}
			return
		}

		rc.mu.Lock()
		rc.lastActivity = time.Now()
		rc.mu.Unlock()

		if len(msg) < 2 {
			continue
		}

		msgType, ok := msg[0].(string)
		if !ok {
			continue
		}

		switch msgType {
		case "EVENT":
			if len(msg) < 3 {
				continue
			}
			subID, ok := msg[1].(string)
			if !ok {
				continue
			}

			evt, ok := parseEventFromInterface(msg[2])
			if !ok {
				continue
			}
			evt.RelaysSeen = []string{rc.relayURL}

			rc.mu.Lock()
			sub := rc.subscriptions[subID]
			rc.mu.Unlock()

			if sub != nil {
				select {
				case sub.EventChan <- evt:
				case <-sub.Done:
				default:
					// Channel full, drop event
					droppedEventCount.Add(1)
				}
			}

		case "EOSE":
			subID, ok := msg[1].(string)
			if !ok {
				continue
			}

			rc.mu.Lock()
			sub := rc.subscriptions[subID]
			rc.mu.Unlock()

			if sub != nil {
				select {
				case sub.EOSEChan <- true:
				default:
				}
			}

		case "OK":
			// ["OK", <event_id>, <true|false>, <message>]
			if len(msg) < 3 {
				continue
			}
			eventID, _ := msg[1].(string)
			success, _ := msg[2].(bool)
			message := ""
			if len(msg) >= 4 {
				message, _ = msg[3].(string)
			}

			rc.mu.Lock()
			waiter := rc.okWaiters[eventID]
			rc.mu.Unlock()

			if waiter != nil {
				select {
				case waiter <- PublishResponse{EventID: eventID, Success: success, Message: message}:
				default:
				}
			}

		case "CLOSED":
			subID, _ := msg[1].(string)
			rc.mu.Lock()
			sub := rc.subscriptions[subID]
			if sub != nil {
				delete(rc.subscriptions, subID)
			}
			rc.mu.Unlock()
			if sub != nil {
				sub.Close()
			}

		case "NOTICE":
			notice, _ := msg[1].(string)
			slog.Info("pool: NOTICE", "relay", rc.relayURL, "notice", notice)
		}
	}
}

// parseEventFromInterface converts a decoded JSON value to an Event
func parseEventFromInterface(v interface{}) (types.Event, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return types.Event{}, false
	}
	var evt types.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return types.Event{}, false
	}
	if evt.ID == "" {
		return types.Event{}, false
	}
	return evt, true
}

// markClosed marks the connection as closed and cleans up
func (rc *RelayConn) markClosed() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.closed {
		return
	}

	rc.closed = true
	rc.conn.Close()

	for _, sub := range rc.subscriptions {
		sub.Close()
	}
	rc.subscriptions = make(map[string]*Subscription)
	rc.okWaiters = make(map[string]chan PublishResponse)
}

// cleanupLoop periodically removes stale connections
func (p *RelayPool) cleanupLoop() {
	ticker := time.NewTicker(60 * time.Second)
	for range ticker.C {
		p.cleanup()
	}
}

// cleanup removes connections that have been idle too long
func (p *RelayPool) cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for url, rc := range p.connections {
		rc.mu.Lock()
		closed := rc.closed
		idle := len(rc.subscriptions) == 0 && now.Sub(rc.lastActivity) > 2*time.Minute
		rc.mu.Unlock()

		if closed || idle {
			if !closed {
				slog.Debug("pool: closing idle connection", "relay", url)
				rc.markClosed()
			}
			delete(p.connections, url)
		}
	}
}

// CloseRelay closes a specific relay connection
func (p *RelayPool) CloseRelay(relayURL string) {
	p.mu.Lock()
	rc := p.connections[relayURL]
	delete(p.connections, relayURL)
	p.mu.Unlock()

	if rc != nil {
		rc.markClosed()
	}
}
