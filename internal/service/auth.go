// Package service contains the business logic layer: handlers parse HTTP
// and write responses, services validate and orchestrate, repositories talk
// to the database. Services accept primitives and return domain errors from
// internal/apperror; they know nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rs/xid"

	"github.com/arhamch/codecast/internal/apperror"
	"github.com/arhamch/codecast/internal/auth"
	"github.com/arhamch/codecast/internal/model"
	"github.com/arhamch/codecast/internal/repository"
)

// AuthService owns registration, credential sign-in, and GitHub
// reconciliation. Both sign-in paths converge on the same outcome: a
// canonical account ID wrapped in a signed session token.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the account and its freshly issued session token so
// the handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a credential account. Duplicate email and username are
// detected before the insert so the client gets a field-specific message;
// the store's unique constraints remain the backstop under concurrent
// registration. The password is hashed exactly once, here, on the write
// path — never re-hashed on read.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Duplicate("email")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperror.Duplicate("username")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking username: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err // constraint race — already a field-specific duplicate
		}
		return nil, fmt.Errorf("service/auth: creating user %s: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies a username/password pair and issues a session token.
// An unknown username is NotFound; a wrong password is Unauthorized. Both
// map to a sign-in failure at the HTTP layer, but callers that care (the
// login form) can tell them apart.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("username", "username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if user.PasswordHash == "" {
		// GitHub-only account — there is no password to check.
		return nil, apperror.Unauthorized("this account signs in with GitHub")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid password")
	}

	return s.issueFor(user)
}

// LoginOrRegisterGitHub reconciles a GitHub identity with a local account:
// first sign-in creates the account, every later sign-in refreshes avatar,
// email, and GitHub login while the local username stays stable. The whole
// step is one atomic upsert in the store, so concurrent first sign-ins for
// the same GitHub user still produce exactly one account. Reconciliation is
// all-or-nothing — any failure rejects the sign-in rather than leaving a
// half-created account.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil || ghUser.ID == 0 {
		return nil, fmt.Errorf("service/auth: GitHub user must not be empty")
	}

	user := &model.User{
		Username:    deriveUsername(ghUser),
		Email:       strings.TrimSpace(ghUser.Email),
		GitHubID:    ghUser.ID,
		GitHubLogin: ghUser.Login,
		AvatarURL:   ghUser.AvatarURL,
	}

	// The derived username only matters on first sign-in. If it is already
	// taken by someone else, de-dup with the GitHub numeric ID, then with a
	// random suffix as the last resort.
	for attempt := 0; ; attempt++ {
		err := s.users.ReconcileGitHub(ctx, user)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrUsernameTaken) {
			return nil, fmt.Errorf("service/auth: reconciling github user %d: %w", ghUser.ID, err)
		}
		switch attempt {
		case 0:
			user.Username = deriveUsername(ghUser) + "-" + strconv.FormatInt(ghUser.ID, 10)
		case 1:
			user.Username = deriveUsername(ghUser) + "-" + xid.New().String()
		default:
			return nil, fmt.Errorf("service/auth: could not allocate a username for github user %d", ghUser.ID)
		}
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.GitHubLogin),
	)

	return s.issueFor(user)
}

// GetUserByID returns the account for a verified session's user ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) issueFor(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(auth.Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// deriveUsername picks a display username for a first GitHub sign-in:
// the GitHub login, else the profile name, else the local part of the
// email, else a generic placeholder.
func deriveUsername(gh *auth.GitHubUser) string {
	if login := strings.TrimSpace(gh.Login); login != "" {
		return login
	}
	if name := strings.TrimSpace(gh.Name); name != "" {
		return strings.ReplaceAll(name, " ", "-")
	}
	if email := strings.TrimSpace(gh.Email); email != "" {
		if at := strings.Index(email, "@"); at > 0 {
			return email[:at]
		}
	}
	return "user"
}
