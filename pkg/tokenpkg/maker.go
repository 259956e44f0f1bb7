// Package tokenpkg provides access token creation and verification.
package tokenpkg

import (
	"errors"
	"time"
)

// Token kinds accepted by NewMaker.
const (
	KindPaseto = "paseto"
	KindJWT    = "jwt"
)

// ErrUnknownKind is returned by NewMaker for an unsupported token kind.
var ErrUnknownKind = errors.New("unknown token kind")

// Maker is an interface for managing tokens.
type Maker interface {
	// CreateToken creates a new token for a specific username and duration.
	CreateToken(username string, duration time.Duration) (string, *Payload, error)
	// VerifyToken checks if the token is valid or not.
	VerifyToken(token string) (*Payload, error)
}

// NewMaker returns the maker of the given kind, PASETO when kind is empty.
func NewMaker(kind, key string) (Maker, error) {
	switch kind {
	case KindPaseto, "":
		return NewPasetoMaker(key)
	case KindJWT:
		return NewJWTMaker(key)
	}

	return nil, ErrUnknownKind
}
