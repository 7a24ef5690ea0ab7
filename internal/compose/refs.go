// Package compose derives reference tags and unsigned event drafts from user
// intent (reply, repost, quote, comment) against an existing event. It does no
// I/O; signing and publishing live elsewhere.
package compose

// Tag names understood by the composer
const (
	TagEvent      = "e" // reference to another event
	TagPubkey     = "p" // reference to an author
	TagScopedRoot = "E" // scoped-root reference (NIP-22 style comment threads)
)

// NIP-10 positional markers
const (
	MarkerRoot    = "root"
	MarkerReply   = "reply"
	MarkerMention = "mention"
)

// EventRef is the structural form of one reference tag.
type EventRef struct {
	TagName   string // "e", "p" or "E"
	TargetID  string // event ID or pubkey as hex
	RelayHint string // optional relay URL
	Marker    string // optional "root", "reply" or "mention"

	// Positions past the marker (NIP-10 allows a trailing pubkey).
	// Carried so a parsed tag re-serializes without loss.
	rest []string
}

// Valid reports whether the ref can be serialized to a wire tag.
func (r EventRef) Valid() bool {
	if r.TargetID == "" {
		return false
	}
	switch r.TagName {
	case TagEvent, TagPubkey, TagScopedRoot:
		return true
	}
	return false
}

// Tag serializes the ref to its wire form: [name, target, relayHint, marker].
// A trailing empty relay hint is kept when a marker follows so the marker
// stays at position 3.
func (r EventRef) Tag() []string {
	if r.Marker != "" || len(r.rest) > 0 {
		tag := []string{r.TagName, r.TargetID, r.RelayHint, r.Marker}
		return append(tag, r.rest...)
	}
	if r.RelayHint != "" {
		return []string{r.TagName, r.TargetID, r.RelayHint}
	}
	return []string{r.TagName, r.TargetID}
}

// ParseRef reads an EventRef back from a raw tag. Tags with fewer than two
// elements, or an unknown tag name, are rejected. A tag with no fourth
// element keeps an empty Marker (legacy form, not reinterpreted).
func ParseRef(tag []string) (EventRef, bool) {
	if len(tag) < 2 || tag[1] == "" {
		return EventRef{}, false
	}
	switch tag[0] {
	case TagEvent, TagPubkey, TagScopedRoot:
	default:
		return EventRef{}, false
	}

	ref := EventRef{TagName: tag[0], TargetID: tag[1]}
	if len(tag) > 2 {
		ref.RelayHint = tag[2]
	}
	if len(tag) > 3 {
		ref.Marker = tag[3]
	}
	if len(tag) > 4 {
		ref.rest = append([]string(nil), tag[4:]...)
	}
	return ref, true
}

// Tags serializes a ref sequence to wire tags, skipping invalid refs.
func Tags(refs []EventRef) [][]string {
	tags := make([][]string, 0, len(refs))
	for _, ref := range refs {
		if !ref.Valid() {
			continue
		}
		tags = append(tags, ref.Tag())
	}
	return tags
}
