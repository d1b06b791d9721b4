package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/arhamch/codecast/internal/apperror"
	"github.com/arhamch/codecast/internal/model"
	"github.com/arhamch/codecast/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo is an in-memory repository.UserRepository with the same
// uniqueness and reconcile semantics as the SQLite implementation.
type fakeUserRepo struct {
	users  map[string]*model.User // by ID
	nextID int

	// usernameTakenOnce forces the first ReconcileGitHub call to report a
	// username collision, exercising the retry path.
	usernameTakenOnce bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) newID() string {
	f.nextID++
	return fmt.Sprintf("user-%d", f.nextID)
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Duplicate("username")
		}
		if user.Email != "" && u.Email == user.Email {
			return apperror.Duplicate("email")
		}
	}
	user.ID = f.newID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) ReconcileGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return apperror.ValidationFailed("githubId", "GitHub account id is required")
	}

	for _, u := range f.users {
		if u.GitHubID == user.GitHubID {
			if user.Email != "" {
				u.Email = user.Email
			}
			u.GitHubLogin = user.GitHubLogin
			u.AvatarURL = user.AvatarURL
			u.UpdatedAt = time.Now().UTC()
			*user = *u
			return nil
		}
	}

	if f.usernameTakenOnce {
		f.usernameTakenOnce = false
		return repository.ErrUsernameTaken
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return repository.ErrUsernameTaken
		}
	}

	user.ID = f.newID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if email != "" && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == handle || (u.GitHubLogin != "" && u.GitHubLogin == handle) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", handle)
}

// fakeShowcaseRepo is an in-memory repository.ShowcaseRepository.
type fakeShowcaseRepo struct {
	showcases []*model.Showcase
	nextID    int
}

func newFakeShowcaseRepo() *fakeShowcaseRepo {
	return &fakeShowcaseRepo{}
}

func (f *fakeShowcaseRepo) Create(ctx context.Context, sc *model.Showcase) error {
	f.nextID++
	sc.ID = fmt.Sprintf("video-%d", f.nextID)
	sc.CreatedAt = time.Now().UTC()
	sc.UpdatedAt = sc.CreatedAt
	cp := *sc
	// Prepend so iteration order is newest-first like the SQL ORDER BY.
	f.showcases = append([]*model.Showcase{&cp}, f.showcases...)
	return nil
}

func (f *fakeShowcaseRepo) find(id string) *model.Showcase {
	for _, sc := range f.showcases {
		if sc.ID == id {
			return sc
		}
	}
	return nil
}

func (f *fakeShowcaseRepo) GetByID(ctx context.Context, id string) (*model.Showcase, error) {
	if sc := f.find(id); sc != nil {
		cp := *sc
		return &cp, nil
	}
	return nil, apperror.NotFound("video", id)
}

func (f *fakeShowcaseRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Showcase, error) {
	out := []model.Showcase{}
	skipped := 0
	for _, sc := range f.showcases {
		if opts.Category != "" && sc.Category != opts.Category {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		out = append(out, *sc)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeShowcaseRepo) ListByUser(ctx context.Context, userID string) ([]model.Showcase, error) {
	out := []model.Showcase{}
	for _, sc := range f.showcases {
		if sc.UserID == userID {
			out = append(out, *sc)
		}
	}
	return out, nil
}

func (f *fakeShowcaseRepo) IncrementViews(ctx context.Context, id string) (*model.Showcase, error) {
	sc := f.find(id)
	if sc == nil {
		return nil, apperror.NotFound("video", id)
	}
	sc.Views++
	cp := *sc
	return &cp, nil
}

func (f *fakeShowcaseRepo) IncrementLikes(ctx context.Context, id string) (int64, error) {
	sc := f.find(id)
	if sc == nil {
		return 0, apperror.NotFound("video", id)
	}
	sc.Likes++
	return sc.Likes, nil
}

func (f *fakeShowcaseRepo) Delete(ctx context.Context, id string) error {
	for i, sc := range f.showcases {
		if sc.ID == id {
			f.showcases = append(f.showcases[:i], f.showcases[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("video", id)
}

// fakeRepoFetcher returns canned metadata, keyed by repo URL substring.
type fakeRepoFetcher struct {
	data *model.RepoData
}

func (f *fakeRepoFetcher) Fetch(ctx context.Context, repoURL string) *model.RepoData {
	if f.data == nil || !strings.Contains(repoURL, "github.com") {
		return nil
	}
	cp := *f.data
	return &cp
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)
var _ repository.ShowcaseRepository = (*fakeShowcaseRepo)(nil)
var _ RepoFetcher = (*fakeRepoFetcher)(nil)
