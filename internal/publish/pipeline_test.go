package publish

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"nostr-workbench/internal/compose"
	"nostr-workbench/internal/types"
)

type fakeSigner struct {
	available bool
	err       error
	signed    int
}

func (s *fakeSigner) IsAvailable() bool { return s.available }

func (s *fakeSigner) TrySign(ctx context.Context, event types.UnsignedEvent) (*types.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.signed++
	return &types.Event{
		ID:        "signed-id",
		PubKey:    "signer-pubkey",
		Kind:      event.Kind,
		Content:   event.Content,
		Tags:      event.Tags,
		CreatedAt: event.CreatedAt,
		Sig:       "sig",
	}, nil
}

type fakeTransport struct {
	err   error
	calls int
}

func (t *fakeTransport) Publish(ctx context.Context, event *types.Event) error {
	t.calls++
	return t.err
}

func mustDraft(t *testing.T) *compose.Draft {
	t.Helper()
	draft, err := compose.BuildReply(types.Event{ID: "orig", PubKey: "pk"}, "hello")
	if err != nil {
		t.Fatal(err)
	}
	return draft
}

func TestPublishNoSignerFailsFast(t *testing.T) {
	transport := &fakeTransport{}
	p := New(&fakeSigner{available: false}, transport)

	_, err := p.Publish(context.Background(), mustDraft(t))
	if !errors.Is(err, ErrNoSigner) {
		t.Errorf("expected ErrNoSigner, got %v", err)
	}
	if transport.calls != 0 {
		t.Errorf("transport must not be called without a signer, got %d calls", transport.calls)
	}
}

func TestPublishNilSigner(t *testing.T) {
	p := New(nil, &fakeTransport{})
	if _, err := p.Publish(context.Background(), mustDraft(t)); !errors.Is(err, ErrNoSigner) {
		t.Errorf("expected ErrNoSigner, got %v", err)
	}
}

func TestPublishSignFailure(t *testing.T) {
	transport := &fakeTransport{}
	p := New(&fakeSigner{available: true, err: errors.New("user rejected")}, transport)

	_, err := p.Publish(context.Background(), mustDraft(t))
	if !errors.Is(err, ErrSign) {
		t.Errorf("expected ErrSign, got %v", err)
	}
	if transport.calls != 0 {
		t.Errorf("transport must not be called when signing fails, got %d calls", transport.calls)
	}
}

func TestPublishSuccess(t *testing.T) {
	signer := &fakeSigner{available: true}
	p := New(signer, &fakeTransport{})

	draft := mustDraft(t)
	signed, err := p.Publish(context.Background(), draft)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if signed.ID != "signed-id" || signed.Sig == "" {
		t.Errorf("expected a fully signed event, got %+v", signed)
	}
	if signed.Content != draft.Content {
		t.Errorf("draft content altered: %q vs %q", signed.Content, draft.Content)
	}
}

func TestPublishTimeoutClassification(t *testing.T) {
	p := New(&fakeSigner{available: true}, &fakeTransport{
		err: fmt.Errorf("relay: %w", context.DeadlineExceeded),
	})

	_, err := p.Publish(context.Background(), mustDraft(t))
	if !errors.Is(err, ErrPublishTimeout) {
		t.Errorf("expected ErrPublishTimeout, got %v", err)
	}
}

func TestPublishRejectionClassification(t *testing.T) {
	p := New(&fakeSigner{available: true}, &fakeTransport{
		err: errors.New("blocked: pow required"),
	})

	_, err := p.Publish(context.Background(), mustDraft(t))
	if !errors.Is(err, ErrRelayRejected) {
		t.Errorf("expected ErrRelayRejected, got %v", err)
	}
}

func TestPublishPreservesClassifiedErrors(t *testing.T) {
	wrapped := fmt.Errorf("relay wss://r: %w", ErrPublishTimeout)
	p := New(&fakeSigner{available: true}, &fakeTransport{err: wrapped})

	_, err := p.Publish(context.Background(), mustDraft(t))
	if !errors.Is(err, ErrPublishTimeout) {
		t.Errorf("expected ErrPublishTimeout to pass through, got %v", err)
	}
}
