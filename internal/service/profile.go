package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/arhamch/codecast/internal/apperror"
	"github.com/arhamch/codecast/internal/model"
	"github.com/arhamch/codecast/internal/repository"
)

// Profile is a public account view with its showcases. PasswordHash never
// leaves the model's json:"-" field, so serializing User here is safe.
type Profile struct {
	Username    string    `json:"username"`
	GitHubLogin string    `json:"githubUsername,omitempty"`
	AvatarURL   string    `json:"avatar,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	VideoCount  int       `json:"videoCount"`
}

// ProfileService resolves public profiles by handle.
type ProfileService struct {
	users     repository.UserRepository
	showcases repository.ShowcaseRepository
	logger    *slog.Logger
}

func NewProfileService(
	users repository.UserRepository,
	showcases repository.ShowcaseRepository,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:     users,
		showcases: showcases,
		logger:    logger,
	}
}

// Get resolves handle against the local username or the GitHub login and
// returns the profile with the account's showcases, newest-first.
func (s *ProfileService) Get(ctx context.Context, handle string) (*Profile, []model.Showcase, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, nil, apperror.ValidationFailed("username", "username is required")
	}

	user, err := s.users.GetByHandle(ctx, handle)
	if err != nil {
		return nil, nil, err
	}

	videos, err := s.showcases.ListByUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to list profile showcases",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, nil, err
	}

	profile := &Profile{
		Username:    user.Username,
		GitHubLogin: user.GitHubLogin,
		AvatarURL:   user.AvatarURL,
		Email:       user.Email,
		CreatedAt:   user.CreatedAt,
		VideoCount:  len(videos),
	}

	return profile, videos, nil
}
