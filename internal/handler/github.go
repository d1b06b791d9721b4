package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/arhamch/codecast/internal/apperror"
	"github.com/arhamch/codecast/internal/github"
)

// RepoHandler previews repository metadata for the upload form, so the
// user sees stars/language/topics before publishing.
type RepoHandler struct {
	client *github.Client
	logger *slog.Logger
}

func NewRepoHandler(client *github.Client, logger *slog.Logger) *RepoHandler {
	return &RepoHandler{client: client, logger: logger}
}

type repoRequest struct {
	RepoURL string `json:"repoUrl"`
}

// HandleFetch returns metadata for a repository URL. An unfetchable repo is
// a 400 here — the preview endpoint is the one place where "no metadata"
// should be visible, so the form can tell the user to check the URL.
//
// HTTP: POST /api/github/repo
func (h *RepoHandler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	var req repoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.RepoURL == "" {
		writeError(w, apperror.ValidationFailed("repoUrl", "Repository URL is required"))
		return
	}

	data := h.client.Fetch(r.Context(), req.RepoURL)
	if data == nil {
		writeError(w, apperror.ValidationFailed("repoUrl",
			"Failed to fetch repository data. Check the URL and try again."))
		return
	}

	writeJSON(w, http.StatusOK, data)
}
