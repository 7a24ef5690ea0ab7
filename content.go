package main

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"nostr-workbench/internal/nips"
)

// Nostr reference regex - matches nostr:nevent1..., nostr:note1..., nostr:npub1...
var nostrRefRegex = regexp.MustCompile(`nostr:(nevent1[a-z0-9]+|note1[a-z0-9]+|npub1[a-z0-9]+)`)

// markdown converts note content to HTML. Hard wraps matter in notes, so
// single newlines become <br>.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// sanitizer strips anything the markdown pass let through that we do not
// want to serve back. UGC policy plus the note link targets we generate.
var sanitizer = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("a", "span")
	p.RequireNoFollowOnLinks(true)
	return p
}()

// RenderNoteHTML converts plain text note content to sanitized HTML.
// nostr: references are swapped for placeholders before the markdown pass
// so the URL linkifier cannot mangle the generated anchors.
func RenderNoteHTML(content string) template.HTML {
	type placeholder struct {
		key   string
		value string
	}
	var placeholders []placeholder
	placeholderIndex := 0

	processed := nostrRefRegex.ReplaceAllStringFunc(content, func(match string) string {
		identifier := strings.TrimPrefix(match, "nostr:")
		key := fmt.Sprintf("NOSTRREF%dEND", placeholderIndex)
		placeholderIndex++
		placeholders = append(placeholders, placeholder{key: key, value: nostrRefToLink(identifier)})
		return key
	})

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(processed), &buf); err != nil {
		// Fall back to escaped plain text
		return template.HTML("<p>" + html.EscapeString(content) + "</p>")
	}

	rendered := sanitizer.Sanitize(buf.String())

	for _, ph := range placeholders {
		rendered = strings.Replace(rendered, ph.key, ph.value, 1)
	}

	return template.HTML(rendered)
}

// nostrRefToLink renders a bech32 identifier as an anchor. Event references
// link into the local thread view, profile references get a shortened label.
func nostrRefToLink(identifier string) string {
	switch {
	case strings.HasPrefix(identifier, "note1"):
		if id, err := nips.DecodeNote(identifier); err == nil {
			return fmt.Sprintf(`<a href="/thread/%s" class="nostr-ref">%s</a>`,
				html.EscapeString(id), html.EscapeString(formatBechShort(identifier)))
		}
	case strings.HasPrefix(identifier, "nevent1"):
		if ne, err := nips.DecodeNEvent(identifier); err == nil {
			return fmt.Sprintf(`<a href="/thread/%s" class="nostr-ref">%s</a>`,
				html.EscapeString(ne.EventID), html.EscapeString(formatBechShort(identifier)))
		}
	case strings.HasPrefix(identifier, "npub1"):
		return fmt.Sprintf(`<span class="nostr-mention">%s</span>`,
			html.EscapeString(formatBechShort(identifier)))
	}
	return "nostr:" + html.EscapeString(identifier)
}

// formatBechShort creates a shortened display like "note1abc...xyz"
func formatBechShort(bech string) string {
	if len(bech) <= 16 {
		return bech
	}
	return bech[:9] + "..." + bech[len(bech)-4:]
}
