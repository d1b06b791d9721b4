// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents one account. An account is reachable by at least one of
// two authentication paths: a local username/password pair, or a linked
// GitHub identity. A record therefore always has PasswordHash and/or
// GitHubID populated — never neither. A credential account that later signs
// in through GitHub ends up with both.
//
// We generate our own internal string ID (xid) rather than keying accounts
// on GitHub's numeric ID, so primary keys aren't tied to a third party's
// numbering scheme and credential-only accounts fit the same shape.
//
// Optional fields use the zero value ("" / 0) rather than pointers. GitHub
// user IDs start at 1, so GitHubID == 0 reliably means "no linked identity".
type User struct {
	ID           string    `json:"id"          db:"id"`
	Username     string    `json:"username"    db:"username"`
	Email        string    `json:"email,omitempty" db:"email"`
	PasswordHash string    `json:"-"           db:"password_hash"` // never serialized
	GitHubID     int64     `json:"-"           db:"github_id"`
	GitHubLogin  string    `json:"githubUsername,omitempty" db:"github_login"`
	AvatarURL    string    `json:"avatar,omitempty" db:"avatar_url"`
	CreatedAt    time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"   db:"updated_at"`
}

// HasGitHub reports whether a GitHub identity is linked to this account.
func (u *User) HasGitHub() bool {
	return u.GitHubID != 0
}
