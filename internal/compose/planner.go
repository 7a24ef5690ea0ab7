package compose

import (
	"nostr-workbench/internal/types"
)

// findRootRef scans an event's tags for an "e" tag explicitly marked "root".
// Unmarked legacy tags are never promoted to root.
func findRootRef(tags [][]string) (EventRef, bool) {
	for _, tag := range tags {
		ref, ok := ParseRef(tag)
		if !ok {
			continue
		}
		if ref.TagName == TagEvent && ref.Marker == MarkerRoot {
			return ref, true
		}
	}
	return EventRef{}, false
}

// PlanReply computes the reference tags for a reply to original.
//
// If original carries a root-marked "e" tag, that tag is preserved unchanged
// and original becomes the direct parent (marker "reply"). Otherwise original
// is treated as the thread root. No multi-hop ancestor resolution is done: an
// unmarked reply used as a target degrades to being the root.
//
// Ordering is significant: root precedes reply precedes the author mention,
// so a consumer reading the last "e" tag recovers the direct parent.
func PlanReply(original types.Event) []EventRef {
	refs := make([]EventRef, 0, 3)

	if root, ok := findRootRef(original.Tags); ok && root.TargetID != original.ID {
		refs = append(refs, root)
		refs = append(refs, EventRef{TagName: TagEvent, TargetID: original.ID, Marker: MarkerReply})
	} else {
		// The marker is overwritten to "root" rather than emitting a
		// second tag for the same target.
		refs = append(refs, EventRef{TagName: TagEvent, TargetID: original.ID, Marker: MarkerRoot})
	}

	refs = append(refs, EventRef{TagName: TagPubkey, TargetID: original.PubKey})
	return refs
}

// PlanRepost computes the reference tags for a kind-6 repost (NIP-18):
// one unmarked "e" tag and one "p" tag for the original author.
func PlanRepost(original types.Event) []EventRef {
	return []EventRef{
		{TagName: TagEvent, TargetID: original.ID},
		{TagName: TagPubkey, TargetID: original.PubKey},
	}
}

// PlanQuote computes the reference tags for a quote post: a single "e" tag
// with the "mention" marker. The content-level nostr: embed is the draft
// builder's job, not the planner's.
func PlanQuote(original types.Event) []EventRef {
	return []EventRef{
		{TagName: TagEvent, TargetID: original.ID, Marker: MarkerMention},
	}
}

// PlanComment computes the reference tags for a task-scoped comment
// (kind 1111): a single uppercase "E" tag pointing at the root task, not an
// immediate parent.
func PlanComment(parentTaskID string) []EventRef {
	return []EventRef{
		{TagName: TagScopedRoot, TargetID: parentTaskID},
	}
}
