package compose

import (
	"fmt"
	"strings"
	"time"

	"nostr-workbench/internal/types"
)

// Event kinds this composer produces
const (
	KindNote    = 1    // short text note / reply
	KindRepost  = 6    // repost wrapper
	KindComment = 1111 // task-scoped comment
)

// BechEncoder produces the bech32 form of an event ID for content-level
// quote embeds.
type BechEncoder interface {
	EncodeEventID(hexEventID string) (string, error)
}

// EncoderFunc adapts a plain function to the BechEncoder interface.
type EncoderFunc func(hexEventID string) (string, error)

func (f EncoderFunc) EncodeEventID(hexEventID string) (string, error) {
	return f(hexEventID)
}

// Draft is an unsigned event owned by the composer until it is handed to the
// publish pipeline. It is either fully signed and sent, or discarded.
type Draft struct {
	Kind      int
	Content   string
	Tags      [][]string
	CreatedAt int64
}

// Unsigned converts the draft to the signer's input shape.
func (d *Draft) Unsigned() types.UnsignedEvent {
	return types.UnsignedEvent{
		Kind:      d.Kind,
		Content:   d.Content,
		Tags:      d.Tags,
		CreatedAt: d.CreatedAt,
	}
}

// AddRawTag appends a raw wire tag to the draft (e.g., a NIP-89 client tag).
func (d *Draft) AddRawTag(tag []string) {
	if len(tag) == 0 {
		return
	}
	d.Tags = append(d.Tags, tag)
}

// Build constructs a draft from a tag plan and user content. CreatedAt is
// captured at build time, not at publish time, so the timestamp reflects when
// the user committed the content.
//
// Empty content fails with ErrEmptyContent except for reposts, which are
// empty by policy. Kinds outside the composer's set fail with ErrInvalidKind.
func Build(refs []EventRef, content string, kind int) (*Draft, error) {
	switch kind {
	case KindNote, KindRepost, KindComment:
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, kind)
	}

	if kind != KindRepost && strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	return &Draft{
		Kind:      kind,
		Content:   content,
		Tags:      Tags(refs),
		CreatedAt: time.Now().Unix(),
	}, nil
}

// BuildReply builds a kind-1 reply draft for original.
func BuildReply(original types.Event, content string) (*Draft, error) {
	return Build(PlanReply(original), content, KindNote)
}

// BuildRepost builds a kind-6 repost draft. Content is left empty; this
// client does not embed the original's raw form.
func BuildRepost(original types.Event) (*Draft, error) {
	return Build(PlanRepost(original), "", KindRepost)
}

// BuildQuote builds a kind-1 quote draft: a "mention"-marked e tag plus a
// nostr: reference token appended to the content. If the event ID cannot be
// bech32-encoded no draft is produced and ErrMissingReference is returned.
func BuildQuote(original types.Event, content string, enc BechEncoder) (*Draft, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	noteID, err := enc.EncodeEventID(original.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingReference, err)
	}

	full := content + "\n\nnostr:" + noteID
	return Build(PlanQuote(original), full, KindNote)
}

// BuildComment builds a kind-1111 comment draft scoped to a task.
func BuildComment(parentTaskID string, content string) (*Draft, error) {
	if parentTaskID == "" {
		return nil, ErrMissingReference
	}
	return Build(PlanComment(parentTaskID), content, KindComment)
}
