package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arhamch/codecast/internal/apperror"
	"github.com/arhamch/codecast/internal/model"
	"github.com/arhamch/codecast/internal/repository"
)

const (
	MaxTitleLength       = 150
	MaxDescriptionLength = 5000
	DefaultListLimit     = 20
	MaxListLimit         = 100
)

// RepoFetcher supplies best-effort repository metadata. A nil result means
// "no metadata available" and is not an error.
type RepoFetcher interface {
	Fetch(ctx context.Context, repoURL string) *model.RepoData
}

// ShowcaseService handles business logic for showcases: validation,
// metadata enrichment, ownership checks.
type ShowcaseService struct {
	showcases repository.ShowcaseRepository
	users     repository.UserRepository
	repos     RepoFetcher
	logger    *slog.Logger
}

func NewShowcaseService(
	showcases repository.ShowcaseRepository,
	users repository.UserRepository,
	repos RepoFetcher,
	logger *slog.Logger,
) *ShowcaseService {
	return &ShowcaseService{
		showcases: showcases,
		users:     users,
		repos:     repos,
		logger:    logger,
	}
}

// CreateInput is the payload for a new showcase. Quality 0 means "use the
// default"; anything else is clamped to 1-100.
type CreateInput struct {
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	RepoURL      string
	DemoURL      string
	Category     string
	Quality      int
}

// Create validates and stores a new showcase for userID. Repository
// metadata is fetched best-effort: a failed lookup produces a showcase
// without repoData, never an error.
func (s *ShowcaseService) Create(ctx context.Context, userID string, in CreateInput) (*model.Showcase, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("sign in to publish a showcase")
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	switch {
	case in.Title == "":
		return nil, apperror.ValidationFailed("title", "title is required")
	case len(in.Title) > MaxTitleLength:
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	case in.Description == "":
		return nil, apperror.ValidationFailed("description", "description is required")
	case len(in.Description) > MaxDescriptionLength:
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	case in.VideoURL == "":
		return nil, apperror.ValidationFailed("videoURL", "video URL is required")
	case in.ThumbnailURL == "":
		return nil, apperror.ValidationFailed("thumbnailURL", "thumbnail URL is required")
	case in.RepoURL == "":
		return nil, apperror.ValidationFailed("githubRepoUrl", "repository URL is required")
	case in.Category == "":
		return nil, apperror.ValidationFailed("category", "category is required")
	case !model.ValidCategory(in.Category):
		return nil, apperror.ValidationFailed("category",
			fmt.Sprintf("category must be one of: %s", strings.Join(model.Categories, ", ")))
	}

	quality := in.Quality
	if quality == 0 {
		quality = model.DefaultTransformQuality
	}
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	sc := &model.Showcase{
		UserID:       userID,
		Title:        in.Title,
		Description:  in.Description,
		VideoURL:     in.VideoURL,
		ThumbnailURL: in.ThumbnailURL,
		RepoURL:      in.RepoURL,
		DemoURL:      strings.TrimSpace(in.DemoURL),
		Category:     in.Category,
		Repo:         s.repos.Fetch(ctx, in.RepoURL),
		Transform: model.Transformation{
			Width:   model.DefaultTransformWidth,
			Height:  model.DefaultTransformHeight,
			Quality: quality,
		},
	}

	if err := s.showcases.Create(ctx, sc); err != nil {
		s.logger.Error("failed to create showcase",
			slog.String("userID", userID),
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("showcase created",
		slog.String("id", sc.ID),
		slog.String("userID", userID),
		slog.String("category", sc.Category),
	)

	return sc, nil
}

// List returns showcases newest-first, optionally filtered by category.
func (s *ShowcaseService) List(ctx context.Context, category string, limit, offset int) ([]model.Showcase, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	showcases, err := s.showcases.List(ctx, repository.ListOptions{
		Category: category,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		s.logger.Error("failed to list showcases", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing showcases: %w", err)
	}

	return showcases, nil
}

// Get fetches a showcase for its detail page, bumping the view counter as a
// side effect, and resolves the creator. A missing creator (e.g. a row
// predating the foreign key) degrades to a nil creator, not an error.
func (s *ShowcaseService) Get(ctx context.Context, id string) (*model.Showcase, *model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, apperror.ValidationFailed("id", "video ID is required")
	}

	sc, err := s.showcases.IncrementViews(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	creator, err := s.users.GetByID(ctx, sc.UserID)
	if err != nil {
		s.logger.Warn("showcase creator missing",
			slog.String("videoID", sc.ID),
			slog.String("userID", sc.UserID),
		)
		creator = nil
	}

	return sc, creator, nil
}

// Like bumps the like counter and returns the new count.
func (s *ShowcaseService) Like(ctx context.Context, id string) (int64, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, apperror.ValidationFailed("id", "video ID is required")
	}
	return s.showcases.IncrementLikes(ctx, id)
}

// Delete removes a showcase after checking the requester owns it.
func (s *ShowcaseService) Delete(ctx context.Context, id, requesterID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "video ID is required")
	}

	sc, err := s.showcases.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sc.UserID != requesterID {
		return apperror.Forbidden("only the owner can delete a showcase")
	}

	if err := s.showcases.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("showcase deleted",
		slog.String("id", id),
		slog.String("userID", requesterID),
	)
	return nil
}
