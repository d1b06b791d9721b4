// Package github fetches public repository metadata for showcase
// enrichment.
//
// Metadata is strictly best-effort: a malformed URL, a network failure, a
// rate limit, or a deleted repo all degrade to "no metadata available" —
// never to an error the caller has to handle. A showcase without repoData
// is valid.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/arhamch/codecast/internal/model"
)

// repoURLPattern accepts https://github.com/owner/repo and the same with a
// trailing .git.
var repoURLPattern = regexp.MustCompile(`github\.com/([^\s/]+)/([^\s/.]+)(?:\.git)?$`)

// ParseRepoURL extracts owner and repo from a GitHub repository URL.
func ParseRepoURL(repoURL string) (owner, repo string, ok bool) {
	m := repoURLPattern.FindStringSubmatch(repoURL)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Client calls the GitHub REST API for repository metadata.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string // optional; raises the unauthenticated rate limit
	logger     *slog.Logger
}

// NewClient creates a metadata client. token may be empty.
func NewClient(token string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.github.com",
		token:      token,
		logger:     logger,
	}
}

// NewClientForTest creates a client pointed at a test server. Keep-alives
// are off so no idle connection goroutines outlive the test.
func NewClientForTest(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   2 * time.Second,
			Transport: &http.Transport{DisableKeepAlives: true},
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// repoResponse is the slice of GitHub's repository object we keep.
type repoResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Stars       int      `json:"stargazers_count"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
}

// Fetch returns metadata for the repository at repoURL, or nil when none is
// available for any reason. nil is not an error — it means the showcase
// carries no cached repo data.
func (c *Client) Fetch(ctx context.Context, repoURL string) *model.RepoData {
	owner, repo, ok := ParseRepoURL(repoURL)
	if !ok {
		c.logger.Debug("repo metadata: unparseable URL", slog.String("url", repoURL))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo), nil)
	if err != nil {
		c.logger.Debug("repo metadata: building request", slog.String("error", err.Error()))
		return nil
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("repo metadata: request failed",
			slog.String("repo", owner+"/"+repo),
			slog.String("error", err.Error()),
		)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("repo metadata: non-200 response",
			slog.String("repo", owner+"/"+repo),
			slog.Int("status", resp.StatusCode),
		)
		return nil
	}

	var body repoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Debug("repo metadata: decoding response", slog.String("error", err.Error()))
		return nil
	}

	topics := body.Topics
	if topics == nil {
		topics = []string{}
	}

	return &model.RepoData{
		Name:        body.Name,
		Description: body.Description,
		Stars:       body.Stars,
		Language:    body.Language,
		Topics:      topics,
	}
}
