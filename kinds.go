package main

// KindDefinition describes how to label and render a Nostr event kind.
type KindDefinition struct {
	Kind        int    // Nostr event kind number
	Name        string // Machine name: "note", "repost", "comment"
	Label       string // Human label for display
	IsRepost    bool   // This kind wraps another event (kind 6)
	SkipContent bool   // Don't render .Content (e.g. reposts)
	Composable  bool   // Can be produced by the composer
}

// KindRegistry maps kind numbers to their definitions.
// Add new kinds here to support them throughout the application.
var KindRegistry = map[int]*KindDefinition{
	// Kind 1: Short text note (also carries replies and quotes)
	1: {
		Kind:       1,
		Name:       "note",
		Label:      "Note",
		Composable: true,
	},

	// Kind 6: Repost
	6: {
		Kind:        6,
		Name:        "repost",
		Label:       "Repost",
		IsRepost:    true,
		SkipContent: true, // Content is the reposted event, not text
		Composable:  true,
	},

	// Kind 1111: Scoped comment on a non-note parent
	1111: {
		Kind:       1111,
		Name:       "comment",
		Label:      "Comment",
		Composable: true,
	},
}

// KindName returns the machine name for a kind, or "unknown"
func KindName(kind int) string {
	if def, ok := KindRegistry[kind]; ok {
		return def.Name
	}
	return "unknown"
}

// threadKinds lists the kinds a thread view aggregates
func threadKinds() []int {
	return []int{1, 6, 1111}
}
