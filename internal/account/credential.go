package account

import (
	"fmt"
	"strings"
)

// Credential is the platform-specific secret material for one account.
// It is a closed set: Token for the token-authenticated platforms and
// Login for Instagram's username/password session exchange. Parsing
// happens at construction so a malformed composite credential is caught
// when the account is configured, not at publish time.
type Credential interface {
	// encode returns the single-string storage form.
	encode() string
}

// Token is a single opaque access token (vk, telegram, pinterest,
// youtube).
type Token struct {
	Value string
}

func (t Token) encode() string { return t.Value }

// Login is a username/password pair (instagram). The storage form is
// "username:password"; the username must not contain a colon.
type Login struct {
	Username string
	Password string
}

func (l Login) encode() string { return l.Username + ":" + l.Password }

// ParseCredential parses the storage form of a credential for the given
// platform.
func ParseCredential(platform Platform, secret string) (Credential, error) {
	if !platform.Valid() {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
	if secret == "" {
		return nil, fmt.Errorf("%s: credential is empty", platform)
	}

	if platform == PlatformInstagram {
		username, password, ok := strings.Cut(secret, ":")
		if !ok || username == "" || password == "" {
			return nil, fmt.Errorf("instagram: credential must be username:password")
		}
		return Login{Username: username, Password: password}, nil
	}

	return Token{Value: secret}, nil
}
