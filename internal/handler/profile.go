package handler

import (
	"log/slog"
	"net/http"

	"github.com/arhamch/codecast/internal/model"
	"github.com/arhamch/codecast/internal/service"
)

// ProfileHandler serves public profiles.
type ProfileHandler struct {
	svc    *service.ProfileService
	logger *slog.Logger
}

func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

type profileResponse struct {
	User   *service.Profile `json:"user"`
	Videos []model.Showcase `json:"videos"`
}

// HandleGet resolves {username} against local usernames and GitHub logins.
//
// HTTP: GET /api/profile/{username}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, videos, err := h.svc.Get(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{User: profile, Videos: videos})
}
