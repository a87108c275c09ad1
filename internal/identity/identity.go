package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind discriminates the two owner flavors a cart can have.
type Kind string

const (
	KindUser  Kind = "user"
	KindGuest Kind = "guest"
)

// Identity names exactly one cart owner: a registered user or an anonymous
// browser session. The zero value is invalid.
type Identity struct {
	kind       Kind
	userID     uuid.UUID
	sessionKey string
}

// User builds an identity for a registered account.
func User(id uuid.UUID) (Identity, error) {
	if id == uuid.Nil {
		return Identity{}, fmt.Errorf("user id is required")
	}
	return Identity{kind: KindUser, userID: id}, nil
}

// Guest builds an identity for an anonymous session.
func Guest(sessionKey string) (Identity, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return Identity{}, fmt.Errorf("session key is required")
	}
	return Identity{kind: KindGuest, sessionKey: sessionKey}, nil
}

// Kind reports which owner flavor this identity names.
func (i Identity) Kind() Kind {
	return i.kind
}

// IsZero reports whether the identity was never initialized.
func (i Identity) IsZero() bool {
	return i.kind == ""
}

// UserID returns the account id; the second result is false for guests.
func (i Identity) UserID() (uuid.UUID, bool) {
	if i.kind != KindUser {
		return uuid.Nil, false
	}
	return i.userID, true
}

// SessionKey returns the anonymous session key; the second result is false
// for registered users.
func (i Identity) SessionKey() (string, bool) {
	if i.kind != KindGuest {
		return "", false
	}
	return i.sessionKey, true
}

// String renders a log-safe label for the identity.
func (i Identity) String() string {
	switch i.kind {
	case KindUser:
		return "user:" + i.userID.String()
	case KindGuest:
		return "guest:" + i.sessionKey
	default:
		return "unknown"
	}
}
