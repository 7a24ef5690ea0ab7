package compose

import (
	"errors"
	"strings"
	"testing"

	"nostr-workbench/internal/types"
)

func TestBuildRejectsEmptyContentForNotes(t *testing.T) {
	_, err := Build(nil, "   \n\t ", KindNote)
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
}

func TestBuildRepostToleratesEmptyContent(t *testing.T) {
	draft, err := Build(PlanRepost(types.Event{ID: "a", PubKey: "p"}), "", KindRepost)
	if err != nil {
		t.Fatalf("repost with empty content should build: %v", err)
	}
	if draft.Content != "" {
		t.Errorf("repost content should stay empty, got %q", draft.Content)
	}
	if draft.CreatedAt <= 0 {
		t.Errorf("created_at not set: %d", draft.CreatedAt)
	}
}

func TestBuildRejectsUnknownKind(t *testing.T) {
	for _, kind := range []int{0, 7, 30023, -1} {
		_, err := Build(nil, "hello", kind)
		if !errors.Is(err, ErrInvalidKind) {
			t.Errorf("kind %d: expected ErrInvalidKind, got %v", kind, err)
		}
	}
}

func TestBuildCommentRequiresContent(t *testing.T) {
	_, err := Build(PlanComment("task1"), "", KindComment)
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent for empty comment, got %v", err)
	}
}

func TestBuildReplyTags(t *testing.T) {
	original := types.Event{ID: "aa", PubKey: "pk"}
	draft, err := BuildReply(original, "looks good")
	if err != nil {
		t.Fatalf("build reply: %v", err)
	}
	if draft.Kind != KindNote {
		t.Errorf("expected kind 1, got %d", draft.Kind)
	}
	if len(draft.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", draft.Tags)
	}
	if draft.Tags[0][0] != "e" || draft.Tags[0][3] != "root" {
		t.Errorf("first tag should be root-marked e tag, got %v", draft.Tags[0])
	}
}

func TestBuildQuoteAppendsContentToken(t *testing.T) {
	enc := EncoderFunc(func(id string) (string, error) {
		return "note1fake", nil
	})

	draft, err := BuildQuote(types.Event{ID: "aa", PubKey: "pk"}, "check this out", enc)
	if err != nil {
		t.Fatalf("build quote: %v", err)
	}
	if !strings.HasSuffix(draft.Content, "\n\nnostr:note1fake") {
		t.Errorf("quote content missing nostr: token, got %q", draft.Content)
	}
	if len(draft.Tags) != 1 || draft.Tags[0][3] != "mention" {
		t.Errorf("quote draft should carry a single mention tag, got %v", draft.Tags)
	}
}

func TestBuildQuoteEncoderFailure(t *testing.T) {
	enc := EncoderFunc(func(id string) (string, error) {
		return "", errors.New("bad id")
	})

	draft, err := BuildQuote(types.Event{ID: "zz"}, "content", enc)
	if draft != nil {
		t.Error("no draft may be produced when encoding fails")
	}
	if !errors.Is(err, ErrMissingReference) {
		t.Errorf("expected ErrMissingReference, got %v", err)
	}
}

func TestBuildCommentScopedTag(t *testing.T) {
	draft, err := BuildComment("task99", "on it")
	if err != nil {
		t.Fatalf("build comment: %v", err)
	}
	if draft.Kind != KindComment {
		t.Errorf("expected kind 1111, got %d", draft.Kind)
	}
	if len(draft.Tags) != 1 || draft.Tags[0][0] != "E" || draft.Tags[0][1] != "task99" {
		t.Errorf("expected single E tag for task99, got %v", draft.Tags)
	}
}

func TestBuildCommentMissingParent(t *testing.T) {
	_, err := BuildComment("", "orphan")
	if !errors.Is(err, ErrMissingReference) {
		t.Errorf("expected ErrMissingReference, got %v", err)
	}
}

func TestAddRawTag(t *testing.T) {
	draft, err := BuildReply(types.Event{ID: "aa", PubKey: "pk"}, "hi")
	if err != nil {
		t.Fatal(err)
	}
	draft.AddRawTag([]string{"client", "workbench"})
	draft.AddRawTag(nil) // ignored

	last := draft.Tags[len(draft.Tags)-1]
	if last[0] != "client" {
		t.Errorf("raw tag not appended, tags: %v", draft.Tags)
	}
}

func TestDraftUnsigned(t *testing.T) {
	draft, err := BuildReply(types.Event{ID: "aa", PubKey: "pk"}, "hi")
	if err != nil {
		t.Fatal(err)
	}
	unsigned := draft.Unsigned()
	if unsigned.Kind != draft.Kind || unsigned.Content != draft.Content || unsigned.CreatedAt != draft.CreatedAt {
		t.Errorf("unsigned event does not match draft: %+v vs %+v", unsigned, draft)
	}
}
