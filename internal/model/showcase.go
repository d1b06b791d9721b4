package model

import "time"

// Categories is the fixed set of showcase categories. The list endpoint
// filters on these and Create rejects anything outside the set.
var Categories = []string{"Web Dev", "Mobile", "ML/AI", "DevOps", "Game Dev", "Other"}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Default playback dimensions for uploaded demo videos. The media CDN
// transforms on delivery; we only store the requested target.
const (
	DefaultTransformWidth   = 1920
	DefaultTransformHeight  = 1080
	DefaultTransformQuality = 100
)

// Transformation is the playback transform requested from the media CDN.
type Transformation struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	Quality int `json:"quality"` // 1-100
}

// RepoData is GitHub repository metadata cached on a showcase at creation
// time. All fields are optional — when the metadata fetch fails the showcase
// simply carries none.
type RepoData struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Stars       int      `json:"stargazers_count"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
}

// Showcase is one linked repository + demo video pair, owned by a User.
//
// Views and Likes are engagement counters: non-negative, monotonically
// increasing, incremented atomically in the store (never read-modify-write
// in Go code, which would lose counts under concurrent requests).
type Showcase struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	VideoURL     string         `json:"videoURL"`
	ThumbnailURL string         `json:"thumbnailURL"`
	RepoURL      string         `json:"githubRepoUrl"`
	DemoURL      string         `json:"demoUrl,omitempty"`
	Category     string         `json:"category"`
	Repo         *RepoData      `json:"repoData,omitempty"`
	Transform    Transformation `json:"transformation"`
	Views        int64          `json:"views"`
	Likes        int64          `json:"likes"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}
