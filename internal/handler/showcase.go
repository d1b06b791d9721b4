package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/arhamch/codecast/internal/apperror"
	"github.com/arhamch/codecast/internal/auth"
	"github.com/arhamch/codecast/internal/model"
	"github.com/arhamch/codecast/internal/service"
)

// ShowcaseHandler manages the showcase CRUD surface.
type ShowcaseHandler struct {
	svc    *service.ShowcaseService
	logger *slog.Logger
}

func NewShowcaseHandler(svc *service.ShowcaseService, logger *slog.Logger) *ShowcaseHandler {
	return &ShowcaseHandler{svc: svc, logger: logger}
}

// HandleList returns showcases newest-first.
//
// HTTP: GET /api/videos?category=Web+Dev&limit=20&offset=0
func (h *ShowcaseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	showcases, err := h.svc.List(r.Context(), q.Get("category"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, showcases)
}

type createShowcaseRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	VideoURL     string `json:"videoURL"`
	ThumbnailURL string `json:"thumbnailURL"`
	RepoURL      string `json:"githubRepoUrl"`
	DemoURL      string `json:"demoUrl"`
	Category     string `json:"category"`
	Transform    *struct {
		Quality int `json:"quality"`
	} `json:"transformation"`
}

// HandleCreate publishes a new showcase for the signed-in user.
//
// HTTP: POST /api/videos (RequireAuth)
func (h *ShowcaseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req createShowcaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	in := service.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		RepoURL:      req.RepoURL,
		DemoURL:      req.DemoURL,
		Category:     req.Category,
	}
	if req.Transform != nil {
		in.Quality = req.Transform.Quality
	}

	sc, err := h.svc.Create(r.Context(), id.UserID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sc)
}

type showcaseDetailResponse struct {
	Video   *model.Showcase `json:"video"`
	Creator *model.User     `json:"creator,omitempty"`
}

// HandleGet returns one showcase with its creator, bumping the view count.
//
// HTTP: GET /api/videos/{id}
func (h *ShowcaseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sc, creator, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, showcaseDetailResponse{Video: sc, Creator: creator})
}

// HandleLike bumps the like counter.
//
// HTTP: POST /api/videos/{id}/like (RequireAuth)
func (h *ShowcaseHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	likes, err := h.svc.Like(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"likes": likes})
}

// HandleDelete removes a showcase owned by the signed-in user.
//
// HTTP: DELETE /api/videos/{id} (RequireAuth)
func (h *ShowcaseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := h.svc.Delete(r.Context(), r.PathValue("id"), id.UserID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Video deleted successfully"})
}
