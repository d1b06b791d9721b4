package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/arhamch/codecast/internal/apperror"
	"github.com/arhamch/codecast/internal/model"
	"github.com/arhamch/codecast/internal/repository"
)

// ShowcaseStore implements repository.ShowcaseRepository on the shared
// handle.
type ShowcaseStore struct {
	db *DB
}

var _ repository.ShowcaseRepository = (*ShowcaseStore)(nil)

func NewShowcaseStore(db *DB) *ShowcaseStore {
	return &ShowcaseStore{db: db}
}

const showcaseColumns = `id, user_id, title, description, video_url, thumbnail_url,
	repo_url, demo_url, category,
	repo_name, repo_description, repo_stars, repo_language, repo_topics, has_repo_data,
	transform_width, transform_height, transform_quality,
	views, likes, created_at, updated_at`

// Create inserts a new showcase. The owning user must exist — the foreign
// key on user_id rejects dangling references.
func (s *ShowcaseStore) Create(ctx context.Context, sc *model.Showcase) error {
	conn, err := s.db.acquire(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	sc.ID = xid.New().String()
	sc.CreatedAt = now
	sc.UpdatedAt = now
	sc.Views = 0
	sc.Likes = 0

	var (
		repoName, repoDesc, repoLang string
		repoStars                    int
		topicsJSON                   = "[]"
		hasRepo                      = 0
	)
	if sc.Repo != nil {
		repoName = sc.Repo.Name
		repoDesc = sc.Repo.Description
		repoStars = sc.Repo.Stars
		repoLang = sc.Repo.Language
		hasRepo = 1
		if b, err := json.Marshal(sc.Repo.Topics); err == nil {
			topicsJSON = string(b)
		}
	}

	_, err = conn.ExecContext(ctx,
		`INSERT INTO showcases (`+showcaseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID,
		sc.UserID,
		sc.Title,
		sc.Description,
		sc.VideoURL,
		sc.ThumbnailURL,
		sc.RepoURL,
		sc.DemoURL,
		sc.Category,
		repoName,
		repoDesc,
		repoStars,
		repoLang,
		topicsJSON,
		hasRepo,
		sc.Transform.Width,
		sc.Transform.Height,
		sc.Transform.Quality,
		sc.Views,
		sc.Likes,
		sc.CreatedAt,
		sc.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return apperror.NotFound("user", sc.UserID)
		}
		return fmt.Errorf("sqlite: inserting showcase %q: %w", sc.Title, err)
	}

	return nil
}

// GetByID retrieves a showcase without touching its counters.
func (s *ShowcaseStore) GetByID(ctx context.Context, id string) (*model.Showcase, error) {
	conn, err := s.db.acquire(ctx)
	if err != nil {
		return nil, err
	}

	row := conn.QueryRowContext(ctx,
		`SELECT `+showcaseColumns+` FROM showcases WHERE id = ?`, id)

	sc, err := scanShowcase(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("video", id)
		}
		return nil, fmt.Errorf("sqlite: getting showcase %s: %w", id, err)
	}
	return sc, nil
}

// List returns showcases newest-first, optionally filtered by category.
func (s *ShowcaseStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Showcase, error) {
	conn, err := s.db.acquire(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + showcaseColumns + ` FROM showcases`
	args := []any{}
	if opts.Category != "" {
		query += ` WHERE category = ?`
		args = append(args, opts.Category)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing showcases: %w", err)
	}
	defer rows.Close()

	return collectShowcases(rows)
}

// ListByUser returns one user's showcases, newest-first.
func (s *ShowcaseStore) ListByUser(ctx context.Context, userID string) ([]model.Showcase, error) {
	conn, err := s.db.acquire(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx,
		`SELECT `+showcaseColumns+` FROM showcases
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing showcases for user %s: %w", userID, err)
	}
	defer rows.Close()

	return collectShowcases(rows)
}

// IncrementViews bumps the view counter in a single UPDATE and returns the
// updated row. Two concurrent detail-page fetches each add exactly one —
// the increment happens in the database, not in Go.
func (s *ShowcaseStore) IncrementViews(ctx context.Context, id string) (*model.Showcase, error) {
	conn, err := s.db.acquire(ctx)
	if err != nil {
		return nil, err
	}

	res, err := conn.ExecContext(ctx,
		`UPDATE showcases SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: incrementing views for %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, apperror.NotFound("video", id)
	}

	return s.GetByID(ctx, id)
}

// IncrementLikes bumps the like counter and returns the new count.
func (s *ShowcaseStore) IncrementLikes(ctx context.Context, id string) (int64, error) {
	conn, err := s.db.acquire(ctx)
	if err != nil {
		return 0, err
	}

	res, err := conn.ExecContext(ctx,
		`UPDATE showcases SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("sqlite: incrementing likes for %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, apperror.NotFound("video", id)
	}

	var likes int64
	err = conn.QueryRowContext(ctx,
		`SELECT likes FROM showcases WHERE id = ?`, id).Scan(&likes)
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading likes for %s: %w", id, err)
	}
	return likes, nil
}

// Delete removes a showcase. Returns NotFound if no row matched.
func (s *ShowcaseStore) Delete(ctx context.Context, id string) error {
	conn, err := s.db.acquire(ctx)
	if err != nil {
		return err
	}

	res, err := conn.ExecContext(ctx, `DELETE FROM showcases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting showcase %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("video", id)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanShowcase(row scanner) (*model.Showcase, error) {
	var (
		sc         model.Showcase
		repo       model.RepoData
		topicsJSON string
		hasRepo    int
	)

	err := row.Scan(
		&sc.ID,
		&sc.UserID,
		&sc.Title,
		&sc.Description,
		&sc.VideoURL,
		&sc.ThumbnailURL,
		&sc.RepoURL,
		&sc.DemoURL,
		&sc.Category,
		&repo.Name,
		&repo.Description,
		&repo.Stars,
		&repo.Language,
		&topicsJSON,
		&hasRepo,
		&sc.Transform.Width,
		&sc.Transform.Height,
		&sc.Transform.Quality,
		&sc.Views,
		&sc.Likes,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if hasRepo == 1 {
		if err := json.Unmarshal([]byte(topicsJSON), &repo.Topics); err != nil {
			repo.Topics = nil
		}
		sc.Repo = &repo
	}

	return &sc, nil
}

func collectShowcases(rows *sql.Rows) ([]model.Showcase, error) {
	showcases := []model.Showcase{}
	for rows.Next() {
		sc, err := scanShowcase(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning showcase: %w", err)
		}
		showcases = append(showcases, *sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating showcases: %w", err)
	}
	return showcases, nil
}
