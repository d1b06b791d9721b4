package handler

import (
	"log/slog"
	"net/http"

	"github.com/arhamch/codecast/internal/media"
)

// MediaHandler hands signed upload tokens to the browser.
type MediaHandler struct {
	signer *media.Signer
	logger *slog.Logger
}

// NewMediaHandler creates a MediaHandler. signer may be nil when the CDN
// keys are not configured; the endpoint then reports a server error.
func NewMediaHandler(signer *media.Signer, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{signer: signer, logger: logger}
}

// HandleAuth mints a short-lived upload token. The browser uploads the
// video straight to the CDN with it; the file bytes never pass through
// this server.
//
// HTTP: GET /api/media/auth
func (h *MediaHandler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	if h.signer == nil {
		h.logger.Error("media auth requested but CDN keys are not configured")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "media uploads are not configured",
		})
		return
	}

	writeJSON(w, http.StatusOK, h.signer.Sign())
}
