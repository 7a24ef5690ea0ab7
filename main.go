package main

import (
	"log/slog"
	"net/http"
	"os"

	"nostr-workbench/internal/compose"
	"nostr-workbench/internal/config"
	"nostr-workbench/internal/publish"
)

// Request body size limits
const (
	maxBodySize = 32 * 1024 // 32KB for POST requests
)

// limitBody wraps an HTTP handler to limit request body size
func limitBody(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// securityHeaders wraps an HTTP handler to add security headers
func securityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")

		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Referrer policy - don't leak full URLs to external sites
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

// stampClientTag adds the NIP-89 client tag to drafts of tagged kinds
func stampClientTag(draft *compose.Draft) {
	cfg := config.GetClientConfig()
	if !cfg.ShouldTagKind(draft.Kind) {
		return
	}
	draft.AddRawTag(cfg.GetClientTag())
}

func main() {
	InitLogger()

	if err := InitCaches(); err != nil {
		slog.Error("cache init failed", "error", err)
		os.Exit(1)
	}
	defer CloseCaches()

	signer := loadSignerFromEnv()
	if signer != nil {
		slog.Info("signer loaded", "npub", signer.Npub())
	} else {
		slog.Warn("no signer configured, running read-only")
	}

	publishPipeline = publish.New(signerOrNil(signer), newRelayTransport())
	publishPipeline.SetDecorator(stampClientTag)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	mux := http.NewServeMux()

	// Compose endpoints
	mux.HandleFunc("POST /compose/reply/{id}", securityHeaders(limitBody(composeReplyHandler, maxBodySize)))
	mux.HandleFunc("POST /compose/quote/{id}", securityHeaders(limitBody(composeQuoteHandler, maxBodySize)))
	mux.HandleFunc("POST /compose/comment/{id}", securityHeaders(limitBody(composeCommentHandler, maxBodySize)))
	mux.HandleFunc("POST /compose/repost/{id}", securityHeaders(composeRepostHandler))

	// Thread aggregation
	mux.HandleFunc("GET /thread/{id}", securityHeaders(threadHandler))

	// Sharing
	mux.HandleFunc("GET /share/{id}/qr.png", securityHeaders(shareQRHandler))

	// Operational endpoints
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /stats", statsHandler)
	mux.HandleFunc("GET /metrics", metricsHandler)

	handler := RequestLoggingMiddleware(mux)

	slog.Info("starting server",
		"port", port,
		"relays", config.GetDefaultRelays(),
		"cache_backend", cacheBackendType)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// signerOrNil avoids tucking a typed nil into the pipeline's interface
func signerOrNil(s *LocalSigner) publish.Signer {
	if s == nil {
		return nil
	}
	return s
}
