// Package media signs short-lived upload tokens for the media CDN.
//
// Video and thumbnail bytes never transit this server: the browser asks
// GET /api/media/auth for a signed token, uploads directly to the CDN with
// it, and posts the resulting file URL back when creating a showcase. The
// CDN validates the signature against the same private key, so a token is
// only mintable by someone holding it.
package media

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
)

// tokenWindow is how long a signed upload token stays accepted by the CDN.
const tokenWindow = 40 * time.Minute

// UploadAuth is the signed parameter set the upload widget passes to the
// CDN, plus the public key identifying this application.
type UploadAuth struct {
	AuthenticationParams AuthParams `json:"authenticationParams"`
	PublicKey            string     `json:"publicKey"`
}

// AuthParams is the token triple the CDN verifies: signature is
// hex(HMAC-SHA1(token + expire)) keyed with the private key. SHA-1 is what
// the CDN's verification endpoint requires; it authenticates a short-lived
// random token, it does not hash secrets.
type AuthParams struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"` // unix seconds
	Signature string `json:"signature"`
}

// Signer mints upload tokens with the CDN key pair.
type Signer struct {
	publicKey  string
	privateKey string
	now        func() time.Time
}

// NewSigner creates a Signer. Both keys must be configured; an unconfigured
// deployment should surface a server error rather than mint unverifiable
// tokens.
func NewSigner(publicKey, privateKey string) (*Signer, error) {
	if publicKey == "" || privateKey == "" {
		return nil, errors.New("media: public and private keys are required")
	}
	return &Signer{
		publicKey:  publicKey,
		privateKey: privateKey,
		now:        time.Now,
	}, nil
}

// Sign mints a fresh single-use upload token valid for the next 40 minutes.
func (s *Signer) Sign() UploadAuth {
	token := xid.New().String()
	expire := s.now().Unix() + int64(tokenWindow.Seconds())

	return UploadAuth{
		AuthenticationParams: AuthParams{
			Token:     token,
			Expire:    expire,
			Signature: s.signature(token, expire),
		},
		PublicKey: s.publicKey,
	}
}

func (s *Signer) signature(token string, expire int64) string {
	mac := hmac.New(sha1.New, []byte(s.privateKey))
	fmt.Fprintf(mac, "%s%d", token, expire)
	return hex.EncodeToString(mac.Sum(nil))
}
