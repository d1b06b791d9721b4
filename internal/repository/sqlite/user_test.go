package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/arhamch/codecast/internal/apperror"
	"github.com/arhamch/codecast/internal/model"
	"github.com/arhamch/codecast/internal/repository"
)

func TestCreateAndGetUser(t *testing.T) {
	users, _ := newTestStores(t)
	ctx := context.Background()

	user := &model.User{
		Username:     "arham",
		Email:        "arham@example.com",
		PasswordHash: "$2a$10$fakehash",
	}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Fatal("Create() did not assign timestamps")
	}

	got, err := users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "arham" || got.Email != "arham@example.com" {
		t.Errorf("GetByID() = %+v, want username arham, email arham@example.com", got)
	}

	if _, err := users.GetByUsername(ctx, "arham"); err != nil {
		t.Errorf("GetByUsername() error = %v", err)
	}
	if _, err := users.GetByEmail(ctx, "arham@example.com"); err != nil {
		t.Errorf("GetByEmail() error = %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	users, _ := newTestStores(t)
	ctx := context.Background()

	for name, fn := range map[string]func() error{
		"GetByID":       func() error { _, err := users.GetByID(ctx, "nope"); return err },
		"GetByUsername": func() error { _, err := users.GetByUsername(ctx, "nope"); return err },
		"GetByEmail":    func() error { _, err := users.GetByEmail(ctx, "nope@example.com"); return err },
		"GetByHandle":   func() error { _, err := users.GetByHandle(ctx, "nope"); return err },
	} {
		if err := fn(); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("%s error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	users, _ := newTestStores(t)
	ctx := context.Background()

	first := &model.User{Username: "arham", Email: "one@example.com", PasswordHash: "h"}
	if err := users.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dupe := &model.User{Username: "arham", Email: "two@example.com", PasswordHash: "h"}
	err := users.Create(ctx, dupe)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "username" {
		t.Errorf("conflict field = %q, want username", appErr.Field)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	users, _ := newTestStores(t)
	ctx := context.Background()

	first := &model.User{Username: "one", Email: "same@example.com", PasswordHash: "h"}
	if err := users.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dupe := &model.User{Username: "two", Email: "same@example.com", PasswordHash: "h"}
	err := users.Create(ctx, dupe)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
}

func TestEmptyEmailsDoNotCollide(t *testing.T) {
	users, _ := newTestStores(t)
	ctx := context.Background()

	// GitHub users without a public email all store "", which must not trip
	// the email uniqueness index.
	for _, name := range []string{"one", "two", "three"} {
		u := &model.User{Username: name}
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}
}

func TestReconcileGitHubFirstSignIn(t *testing.T) {
	users, _ := newTestStores(t)
	ctx := context.Background()

	user := &model.User{
		Username:    "octocat",
		Email:       "octo@example.com",
		GitHubID:    583231,
		GitHubLogin: "octocat",
		AvatarURL:   "https://avatars.example.com/1",
	}
	if err := users.ReconcileGitHub(ctx, user); err != nil {
		t.Fatalf("ReconcileGitHub() error = %v", err)
	}
	if user.ID == "" {
		t.Fatal("ReconcileGitHub() did not assign an ID")
	}
	if user.PasswordHash != "" {
		t.Errorf("PasswordHash = %q, want empty for OAuth account", user.PasswordHash)
	}
}

func TestReconcileGitHubRefreshesProfile(t *testing.T) {
	users, _ := newTestStores(t)
	ctx := context.Background()

	first := &model.User{
		Username:    "octocat",
		GitHubID:    583231,
		GitHubLogin: "octocat",
		AvatarURL:   "https://avatars.example.com/old",
	}
	if err := users.ReconcileGitHub(ctx, first); err != nil {
		t.Fatalf("first ReconcileGitHub() error = %v", err)
	}

	// Same GitHub identity returns with a changed avatar and a proposed
	// username that must NOT overwrite the stored one.
	second := &model.User{
		Username:    "octocat-renamed",
		GitHubID:    583231,
		GitHubLogin: "octocat",
		AvatarURL:   "https://avatars.example.com/new",
	}
	if err := users.ReconcileGitHub(ctx, second); err != nil {
		t.Fatalf("second ReconcileGitHub() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("second sign-in created a new account: %s != %s", second.ID, first.ID)
	}
	if second.Username != "octocat" {
		t.Errorf("Username = %q, want stored username octocat", second.Username)
	}
	if second.AvatarURL != "https://avatars.example.com/new" {
		t.Errorf("AvatarURL = %q, want refreshed avatar", second.AvatarURL)
	}
}

func TestReconcileGitHubKeepsKnownEmail(t *testing.T) {
	users, _ := newTestStores(t)
	ctx := context.Background()

	first := &model.User{Username: "octocat", Email: "octo@example.com", GitHubID: 1, GitHubLogin: "octocat"}
	if err := users.ReconcileGitHub(ctx, first); err != nil {
		t.Fatalf("first ReconcileGitHub() error = %v", err)
	}

	// The user hides their email on GitHub; the refresh must not erase it.
	second := &model.User{Username: "octocat", GitHubID: 1, GitHubLogin: "octocat"}
	if err := users.ReconcileGitHub(ctx, second); err != nil {
		t.Fatalf("second ReconcileGitHub() error = %v", err)
	}
	if second.Email != "octo@example.com" {
		t.Errorf("Email = %q, want retained octo@example.com", second.Email)
	}
}

func TestReconcileGitHubUsernameTaken(t *testing.T) {
	users, _ := newTestStores(t)
	ctx := context.Background()

	existing := &model.User{Username: "arham", PasswordHash: "h"}
	if err := users.Create(ctx, existing); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// First GitHub sign-in whose derived username collides with a
	// credential account.
	claim := &model.User{Username: "arham", GitHubID: 42, GitHubLogin: "arham"}
	if err := users.ReconcileGitHub(ctx, claim); !errors.Is(err, repository.ErrUsernameTaken) {
		t.Fatalf("ReconcileGitHub() error = %v, want ErrUsernameTaken", err)
	}
}

func TestReconcileGitHubRequiresID(t *testing.T) {
	users, _ := newTestStores(t)

	user := &model.User{Username: "octocat", GitHubLogin: "octocat"}
	err := users.ReconcileGitHub(context.Background(), user)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("ReconcileGitHub() error = %v, want ErrValidation", err)
	}
}

func TestReconcileGitHubConcurrentFirstSignIn(t *testing.T) {
	users, _ := newTestStores(t)
	ctx := context.Background()

	// Two racing first sign-ins for the same identity must converge on one
	// account.
	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := &model.User{Username: "octocat", GitHubID: 583231, GitHubLogin: "octocat"}
			errs[i] = users.ReconcileGitHub(ctx, u)
			ids[i] = u.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: ReconcileGitHub() error = %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("worker %d resolved to account %s, worker 0 to %s", i, ids[i], ids[0])
		}
	}
}

func TestGetByHandle(t *testing.T) {
	users, _ := newTestStores(t)
	ctx := context.Background()

	user := &model.User{Username: "arham-chowdhury", GitHubID: 7, GitHubLogin: "arhamch"}
	if err := users.ReconcileGitHub(ctx, user); err != nil {
		t.Fatalf("ReconcileGitHub() error = %v", err)
	}

	byUsername, err := users.GetByHandle(ctx, "arham-chowdhury")
	if err != nil {
		t.Fatalf("GetByHandle(username) error = %v", err)
	}
	byLogin, err := users.GetByHandle(ctx, "arhamch")
	if err != nil {
		t.Fatalf("GetByHandle(github login) error = %v", err)
	}
	if byUsername.ID != byLogin.ID {
		t.Errorf("handle lookups disagree: %s != %s", byUsername.ID, byLogin.ID)
	}
}
