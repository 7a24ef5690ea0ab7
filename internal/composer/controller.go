// Package composer models the per-card compose lifecycle as an explicit
// state machine: Idle -> Composing -> Publishing -> Idle, with failures
// returning to Composing so typed content is never lost.
package composer

import (
	"context"
	"strings"
	"sync"

	"nostr-workbench/internal/compose"
	"nostr-workbench/internal/publish"
	"nostr-workbench/internal/types"
)

// Mode is the controller's current state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeComposing
	ModePublishing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeComposing:
		return "composing"
	case ModePublishing:
		return "publishing"
	}
	return "unknown"
}

// Operation selects which draft the controller builds on submit.
type Operation int

const (
	OpReply Operation = iota
	OpQuote
	OpComment
)

// Notifier receives user-visible outcomes. Implementations must not block.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}

// Controller orchestrates one card's compose state and delegates the actual
// work to the tag planner, draft builder and publish pipeline. One instance
// per displayed event; instances share nothing.
type Controller struct {
	mu     sync.Mutex
	mode   Mode
	buffer string

	target   types.Event
	op       Operation
	pipeline *publish.Pipeline
	encoder  compose.BechEncoder
	notifier Notifier
}

// New creates a controller for the given target event and operation.
// For OpComment the target's ID is the parent task ID.
func New(target types.Event, op Operation, pipeline *publish.Pipeline, encoder compose.BechEncoder, notifier Notifier) *Controller {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Controller{
		mode:     ModeIdle,
		target:   target,
		op:       op,
		pipeline: pipeline,
		encoder:  encoder,
		notifier: notifier,
	}
}

// Mode returns the controller's current state.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Buffer returns the current content buffer.
func (c *Controller) Buffer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer
}

// OpenReply opens the compose form with a cleared buffer. Only valid from
// Idle; otherwise it is a no-op.
func (c *Controller) OpenReply() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeIdle {
		return
	}
	c.mode = ModeComposing
	c.buffer = ""
}

// Edit replaces the buffer content. Purely local, no network effect; ignored
// outside Composing.
func (c *Controller) Edit(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeComposing {
		return
	}
	c.buffer = text
}

// Cancel discards the buffer and returns to Idle. Ignored outside Composing;
// in particular an in-flight publish cannot be cancelled from here.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeComposing {
		return
	}
	c.mode = ModeIdle
	c.buffer = ""
}

// Submit signs and publishes the buffered content.
//
// Guards are checked synchronously: an empty buffer or a missing signer
// raises an error without any state transition or transport call. A Submit
// while a publish is already in flight is dropped, so double-clicks cannot
// produce duplicate posts.
//
// On success the buffer is cleared and the controller returns to Idle. On
// failure the buffer is retained and the controller returns to Composing so
// the user can resubmit.
func (c *Controller) Submit(ctx context.Context) (*types.Event, error) {
	c.mu.Lock()
	if c.mode == ModePublishing {
		c.mu.Unlock()
		return nil, nil
	}
	if c.mode != ModeComposing {
		c.mu.Unlock()
		return nil, ErrNotComposing
	}
	if strings.TrimSpace(c.buffer) == "" {
		c.mu.Unlock()
		c.notifier.Error("You cannot post an empty note!")
		return nil, compose.ErrEmptyContent
	}
	if !c.pipeline.SignerAvailable() {
		c.mu.Unlock()
		c.notifier.Error("No signer connected")
		return nil, publish.ErrNoSigner
	}
	content := c.buffer
	c.mode = ModePublishing
	c.mu.Unlock()

	draft, err := c.buildDraft(content)
	if err != nil {
		c.fail(err)
		return nil, err
	}

	signed, err := c.pipeline.Publish(ctx, draft)
	if err != nil {
		c.fail(err)
		return nil, err
	}

	c.mu.Lock()
	c.mode = ModeIdle
	c.buffer = ""
	c.mu.Unlock()
	c.notifier.Success("Published")
	return signed, nil
}

// buildDraft is the structural step; its errors are cheap to retry after
// local correction.
func (c *Controller) buildDraft(content string) (*compose.Draft, error) {
	switch c.op {
	case OpQuote:
		return compose.BuildQuote(c.target, content, c.encoder)
	case OpComment:
		return compose.BuildComment(c.target.ID, content)
	default:
		return compose.BuildReply(c.target, content)
	}
}

// fail returns to Composing with the buffer intact.
func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.mode = ModeComposing
	c.mu.Unlock()
	c.notifier.Error(err.Error())
}
