package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/skip2/go-qrcode"

	"nostr-workbench/internal/config"
	"nostr-workbench/internal/nips"
)

// shareQRHandler serves a PNG QR code encoding a nostr:nevent1 URI for the
// event, so the note can be opened in any client from another device.
// Route: GET /share/{id}/qr.png
func shareQRHandler(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if !isValidEventID(eventID) {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}

	if png, ok := qrCache.Get(eventID); ok {
		serveQRPNG(w, png)
		return
	}

	// Embed relay hints so scanning clients know where to look
	hints := config.GetDefaultRelays()
	if len(hints) > 2 {
		hints = hints[:2]
	}

	author := ""
	if evt, ok := eventCache.Get(eventID); ok {
		author = evt.PubKey
	}

	nevent, err := nips.EncodeNEvent(eventID, author, hints)
	if err != nil {
		slog.Error("failed to encode nevent for QR", "event_id", shortID(eventID), "error", err)
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}

	png, err := qrcode.Encode("nostr:"+nevent, qrcode.Medium, 256)
	if err != nil {
		slog.Error("failed to generate QR code", "error", err)
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	qrCache.Set(eventID, png)
	serveQRPNG(w, png)
}

func serveQRPNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(png)
}
