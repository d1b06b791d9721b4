package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/arhamch/codecast/internal/apperror"
	"github.com/arhamch/codecast/internal/model"
	"github.com/arhamch/codecast/internal/repository"
)

// UserStore implements repository.UserRepository on the shared handle.
type UserStore struct {
	db *DB
}

var _ repository.UserRepository = (*UserStore)(nil)

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a credential account. ID and timestamps are assigned here
// so the caller gets the canonical record back in-place.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	conn, err := s.db.acquire(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, github_id, github_login, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		nullableGitHubID(user.GitHubID),
		user.GitHubLogin,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// The service checks for duplicates before inserting, but the unique
		// constraints are the real guarantee under concurrent registration.
		switch {
		case isUniqueViolation(err, "users.username"):
			return apperror.Duplicate("username")
		case isUniqueViolation(err, "users.email"):
			return apperror.Duplicate("email")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// ReconcileGitHub maps a GitHub identity to a local account in a single
// atomic statement: first sign-in inserts, every later sign-in refreshes
// the mutable profile fields. Keying the conflict on the unique github_id
// index makes concurrent first sign-ins safe — the two INSERTs race, one
// wins, the other turns into the UPDATE arm. A select-then-insert here
// would create duplicate accounts under that race.
//
// The stored username is never changed by a refresh. The provider email can
// be withheld (hidden on GitHub), so an empty incoming email does not erase
// a known one.
func (s *UserStore) ReconcileGitHub(ctx context.Context, user *model.User) error {
	conn, err := s.db.acquire(ctx)
	if err != nil {
		return err
	}

	if user.GitHubID == 0 {
		return apperror.ValidationFailed("githubId", "GitHub account id is required")
	}

	now := time.Now().UTC()
	newID := xid.New().String()

	_, err = conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, github_id, github_login, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, '', ?, ?, ?, ?, ?)
		 ON CONFLICT(github_id) DO UPDATE SET
			email        = CASE WHEN excluded.email <> '' THEN excluded.email ELSE users.email END,
			github_login = excluded.github_login,
			avatar_url   = excluded.avatar_url,
			updated_at   = excluded.updated_at`,
		newID,
		user.Username,
		user.Email,
		user.GitHubID,
		user.GitHubLogin,
		user.AvatarURL,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return repository.ErrUsernameTaken
		}
		return fmt.Errorf("sqlite: reconciling github user %d: %w", user.GitHubID, err)
	}

	// Read back the canonical row — on the UPDATE arm the id, username, and
	// created_at all predate this call.
	stored, err := s.getUserWhere(ctx, `github_id = ?`, user.GitHubID)
	if err != nil {
		return fmt.Errorf("sqlite: reading back github user %d: %w", user.GitHubID, err)
	}

	*user = *stored
	return nil
}

// GetByID retrieves a user by internal ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.getUserWhere(ctx, `id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("user", id)
	}
	return user, err
}

// GetByUsername retrieves a user by their unique local username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.getUserWhere(ctx, `username = ?`, username)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("user", username)
	}
	return user, err
}

// GetByEmail retrieves a user by email. Empty emails never match.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, apperror.NotFound("user", email)
	}
	user, err := s.getUserWhere(ctx, `email = ?`, email)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("user", email)
	}
	return user, err
}

// GetByHandle matches either the local username or the GitHub login, the
// way profile URLs resolve.
func (s *UserStore) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	user, err := s.getUserWhere(ctx, `username = ? OR (github_login <> '' AND github_login = ?)`, handle, handle)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("user", handle)
	}
	return user, err
}

func (s *UserStore) getUserWhere(ctx context.Context, where string, args ...any) (*model.User, error) {
	conn, err := s.db.acquire(ctx)
	if err != nil {
		return nil, err
	}

	var (
		u        model.User
		githubID sql.NullInt64
	)
	err = conn.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, github_id, github_login, avatar_url, created_at, updated_at
		 FROM users WHERE `+where,
		args...,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&githubID,
		&u.GitHubLogin,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err // translated by the caller, which knows the lookup key
		}
		return nil, fmt.Errorf("sqlite: querying user: %w", err)
	}

	u.GitHubID = githubID.Int64
	return &u, nil
}

// nullableGitHubID maps the zero value to NULL so credential-only accounts
// don't collide on the github_id unique index.
func nullableGitHubID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
