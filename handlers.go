package main

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nostr-workbench/internal/compose"
	"nostr-workbench/internal/composer"
	"nostr-workbench/internal/config"
	"nostr-workbench/internal/nips"
	"nostr-workbench/internal/publish"
	"nostr-workbench/internal/types"
)

var validEventID = regexp.MustCompile(`^[0-9a-f]{64}$`)

// isValidEventID checks if a string is a valid nostr event ID (64 hex chars)
func isValidEventID(id string) bool {
	return validEventID.MatchString(id)
}

// publishPipeline is wired at startup in main
var publishPipeline *publish.Pipeline

const submitTimeout = 15 * time.Second

type EventItem struct {
	ID            string             `json:"id"`
	Kind          int                `json:"kind"`
	KindName      string             `json:"kind_name"`
	Pubkey        string             `json:"pubkey"`
	CreatedAt     int64              `json:"created_at"`
	Content       string             `json:"content"`
	ContentHTML   template.HTML      `json:"content_html,omitempty"`
	Tags          [][]string         `json:"tags"`
	Sig           string             `json:"sig"`
	RelaysSeen    []string           `json:"relays_seen,omitempty"`
	AuthorName    string             `json:"author_name,omitempty"`
	AuthorProfile *types.ProfileInfo `json:"author_profile,omitempty"`
	NoteID        string             `json:"note_id,omitempty"`
}

type MetaInfo struct {
	EventCount  int       `json:"event_count"`
	LastSeen    int64     `json:"last_seen,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

type ThreadResponse struct {
	Root  *EventItem  `json:"root,omitempty"`
	Items []EventItem `json:"items"`
	Meta  MetaInfo    `json:"meta"`
}

type ComposeRequest struct {
	Content string   `json:"content"`
	Authors []string `json:"authors,omitempty"`
}

type ComposeResponse struct {
	Status string     `json:"status"`
	Event  *EventItem `json:"event,omitempty"`
}

// slogNotifier satisfies the composer's notification surface with log lines.
// A browser frontend would render toasts here instead.
type slogNotifier struct{}

func (slogNotifier) Success(msg string) { slog.Info("composer", "notice", msg) }
func (slogNotifier) Error(msg string)   { slog.Warn("composer", "notice", msg) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// composeErrorStatus maps the compose and publish error taxonomy onto HTTP
// status codes.
func composeErrorStatus(err error) int {
	switch {
	case errors.Is(err, compose.ErrEmptyContent),
		errors.Is(err, compose.ErrInvalidKind),
		errors.Is(err, compose.ErrMissingReference):
		return http.StatusBadRequest
	case errors.Is(err, publish.ErrNoSigner):
		return http.StatusServiceUnavailable
	case errors.Is(err, publish.ErrPublishTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, publish.ErrRelayRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeComposeError(w http.ResponseWriter, err error) {
	writeJSON(w, composeErrorStatus(err), map[string]string{"status": "error", "error": err.Error()})
}

// resolveTarget loads the referenced event, preferring cache over relays.
// Writes the error response itself when the target cannot be resolved.
func resolveTarget(w http.ResponseWriter, r *http.Request) (*types.Event, bool) {
	eventID := r.PathValue("id")
	if !isValidEventID(eventID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": "invalid event id"})
		return nil, false
	}

	if evt, ok := eventCache.Get(eventID); ok {
		return evt, true
	}

	evt := fetchEventByID(config.GetDefaultRelays(), eventID)
	if evt == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "error": "event not found"})
		return nil, false
	}
	eventCache.Set(evt)
	return evt, true
}

func decodeComposeRequest(w http.ResponseWriter, r *http.Request) (*ComposeRequest, bool) {
	var req ComposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": "invalid request body"})
		return nil, false
	}
	return &req, true
}

// runComposer drives a one-shot composer session: open, type, submit.
func runComposer(ctx context.Context, target types.Event, op composer.Operation, content string) (*types.Event, error) {
	ctrl := composer.New(target, op, publishPipeline,
		compose.EncoderFunc(nips.EncodeEventID), slogNotifier{})
	ctrl.OpenReply()
	ctrl.Edit(content)
	return ctrl.Submit(ctx)
}

// composeReplyHandler publishes a kind 1 reply to the target note.
// Route: POST /compose/reply/{id}
func composeReplyHandler(w http.ResponseWriter, r *http.Request) {
	target, ok := resolveTarget(w, r)
	if !ok {
		return
	}
	req, ok := decodeComposeRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()

	signed, err := runComposer(ctx, *target, composer.OpReply, req.Content)
	if err != nil {
		writeComposeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ComposeResponse{Status: "published", Event: eventToItem(*signed, nil)})
}

// composeQuoteHandler publishes a kind 1 quote of the target note. The
// quoted reference is appended to the content as a nostr: URI.
// Route: POST /compose/quote/{id}
func composeQuoteHandler(w http.ResponseWriter, r *http.Request) {
	target, ok := resolveTarget(w, r)
	if !ok {
		return
	}
	req, ok := decodeComposeRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()

	signed, err := runComposer(ctx, *target, composer.OpQuote, req.Content)
	if err != nil {
		writeComposeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ComposeResponse{Status: "published", Event: eventToItem(*signed, nil)})
}

// composeCommentHandler publishes a kind 1111 comment scoped to a parent
// object that is not itself a note.
// Route: POST /compose/comment/{id}
func composeCommentHandler(w http.ResponseWriter, r *http.Request) {
	parentID := r.PathValue("id")
	if !isValidEventID(parentID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": "invalid parent id"})
		return
	}
	req, ok := decodeComposeRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()

	target := types.Event{ID: parentID}
	signed, err := runComposer(ctx, target, composer.OpComment, req.Content)
	if err != nil {
		writeComposeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ComposeResponse{Status: "published", Event: eventToItem(*signed, nil)})
}

// composeRepostHandler publishes a kind 6 repost of the target note. There
// is no buffer to edit, so this skips the composer and drives the pipeline
// directly.
// Route: POST /compose/repost/{id}
func composeRepostHandler(w http.ResponseWriter, r *http.Request) {
	target, ok := resolveTarget(w, r)
	if !ok {
		return
	}

	draft, err := compose.BuildRepost(*target)
	if err != nil {
		writeComposeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()

	signed, err := publishPipeline.Publish(ctx, draft)
	if err != nil {
		writeComposeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ComposeResponse{Status: "published", Event: eventToItem(*signed, nil)})
}

// threadHandler returns the aggregated thread under a parent event. The
// scope stays live after the response, streaming new arrivals from relays
// until the janitor reclaims it.
// Route: GET /thread/{id}
func threadHandler(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if !isValidEventID(eventID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": "invalid event id"})
		return
	}

	q := r.URL.Query()
	authors := parseStringList(q.Get("authors"))
	limit := 100
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}

	agg := threadScopes.Acquire(eventID, authors)

	// Backfill synchronously so the first view is not empty while the
	// streaming subscriptions warm up.
	relays := config.GetDefaultRelays()
	for _, evt := range fetchEventsFromRelays(relays, agg.Filter(threadKinds(), limit)) {
		if agg.Ingest(evt) {
			eventsIngestedTotal.Add(1)
		}
	}

	var root *types.Event
	if evt, ok := eventCache.Get(eventID); ok {
		root = evt
	} else if evt := fetchEventByID(relays, eventID); evt != nil {
		eventCache.Set(evt)
		root = evt
	}

	items := agg.Snapshot()
	if len(items) > limit {
		items = items[:limit]
	}

	pubkeySet := make(map[string]bool)
	if root != nil {
		pubkeySet[root.PubKey] = true
	}
	for _, evt := range items {
		pubkeySet[evt.PubKey] = true
	}
	pubkeys := make([]string, 0, len(pubkeySet))
	for pk := range pubkeySet {
		pubkeys = append(pubkeys, pk)
	}
	profiles := fetchProfiles(pubkeys)

	resp := ThreadResponse{
		Items: make([]EventItem, 0, len(items)),
		Meta: MetaInfo{
			EventCount:  agg.Len(),
			LastSeen:    agg.LastSeen(),
			GeneratedAt: time.Now().UTC(),
		},
	}
	if root != nil {
		resp.Root = eventToItem(*root, profiles)
	}
	for _, evt := range items {
		resp.Items = append(resp.Items, *eventToItem(evt, profiles))
	}

	writeJSON(w, http.StatusOK, resp)
}

// eventToItem shapes an event for API output, attaching the author profile
// and rendered content where it applies.
func eventToItem(evt types.Event, profiles map[string]*types.ProfileInfo) *EventItem {
	item := &EventItem{
		ID:         evt.ID,
		Kind:       evt.Kind,
		KindName:   KindName(evt.Kind),
		Pubkey:     evt.PubKey,
		CreatedAt:  evt.CreatedAt,
		Content:    evt.Content,
		Tags:       evt.Tags,
		Sig:        evt.Sig,
		RelaysSeen: evt.RelaysSeen,
	}

	if def, ok := KindRegistry[evt.Kind]; !ok || !def.SkipContent {
		item.ContentHTML = RenderNoteHTML(evt.Content)
	}

	if profile := profiles[evt.PubKey]; profile != nil {
		item.AuthorProfile = profile
		item.AuthorName = profile.BestName()
	}

	if noteID, err := nips.EncodeEventID(evt.ID); err == nil {
		item.NoteID = noteID
	}

	return item
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"cache_backend":    cacheBackendType,
		"signer_available": publishPipeline != nil && publishPipeline.SignerAvailable(),
	})
}

// statsHandler returns a JSON operational summary. Prometheus scraping goes
// to /metrics instead.
func statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds":     int64(time.Since(serverStartTime).Seconds()),
		"cache_backend":      cacheBackendType,
		"relay_connections":  relayPool.ActiveConnections(),
		"thread_scopes":      threadScopes.Len(),
		"events_published":   publishedTotal.Load(),
		"publish_failures":   publishFailedTotal.Load(),
		"events_ingested":    eventsIngestedTotal.Load(),
		"duplicates_dropped": duplicatesDropped.Load(),
		"events_dropped":     droppedEventCount.Load(),
		"http_requests":      httpRequestsTotal.Load(),
		"http_errors":        httpErrorsTotal.Load(),
	})
}
