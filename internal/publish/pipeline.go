// Package publish owns the sign -> publish lifecycle for composed drafts.
// The signer and the relay transport are injected capabilities, never
// resolved from ambient state, so the pipeline is testable without a live
// relay connection.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nostr-workbench/internal/compose"
	"nostr-workbench/internal/types"
)

// Signer signs event drafts. Availability is checked before any network
// attempt so a missing signer fails fast.
type Signer interface {
	TrySign(ctx context.Context, event types.UnsignedEvent) (*types.Event, error)
	IsAvailable() bool
}

// Transport delivers signed events to the relay set. Implementations return
// ErrPublishTimeout or ErrRelayRejected (possibly wrapped) on failure.
type Transport interface {
	Publish(ctx context.Context, event *types.Event) error
}

// Pipeline signs and publishes drafts, one attempt per call. Retry is a
// caller decision: every retry is a fresh Publish call with the same draft.
// The pipeline itself is stateless; serializing double-submits is the
// composer controller's job.
type Pipeline struct {
	signer    Signer
	transport Transport
	decorate  func(*compose.Draft)
}

// New creates a pipeline over the given capabilities.
func New(signer Signer, transport Transport) *Pipeline {
	return &Pipeline{signer: signer, transport: transport}
}

// SetDecorator installs a hook that runs on every draft just before signing.
// Used to stamp ambient tags, like the client tag, without the composer
// knowing about them.
func (p *Pipeline) SetDecorator(fn func(*compose.Draft)) {
	p.decorate = fn
}

// SignerAvailable reports whether a signer capability is currently present.
func (p *Pipeline) SignerAvailable() bool {
	return p.signer != nil && p.signer.IsAvailable()
}

// Publish signs the draft and transmits it. Either a fully signed, accepted
// event is returned, or an error is returned and the draft is untouched.
func (p *Pipeline) Publish(ctx context.Context, draft *compose.Draft) (*types.Event, error) {
	if !p.SignerAvailable() {
		return nil, ErrNoSigner
	}

	if p.decorate != nil {
		p.decorate(draft)
	}

	signed, err := p.signer.TrySign(ctx, draft.Unsigned())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSign, err)
	}

	if err := p.transport.Publish(ctx, signed); err != nil {
		slog.Warn("publish failed", "event_id", signed.ID, "kind", signed.Kind, "error", err)
		return nil, classifyTransportError(err)
	}

	slog.Debug("event published", "event_id", signed.ID, "kind", signed.Kind)
	return signed, nil
}

// classifyTransportError maps transport failures onto the pipeline's error
// taxonomy. Context deadlines count as publish timeouts; everything else that
// is not already classified is a relay rejection.
func classifyTransportError(err error) error {
	switch {
	case errors.Is(err, ErrPublishTimeout), errors.Is(err, ErrRelayRejected):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrPublishTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrRelayRejected, err)
	}
}
