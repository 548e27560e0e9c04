// Package account models destination accounts on the supported social
// platforms. Credentials are stored encrypted and only revealed through
// explicit accessors so the encryption boundary is visible at call sites.
package account

import (
	"fmt"
	"time"

	"github.com/abdulachik/crossbot/internal/crypto"
)

// Platform identifies one of the supported social networks.
type Platform string

const (
	PlatformVK        Platform = "vk"
	PlatformTelegram  Platform = "telegram"
	PlatformInstagram Platform = "instagram"
	PlatformPinterest Platform = "pinterest"
	PlatformYouTube   Platform = "youtube"
)

// Platforms returns all supported platforms in a stable order.
func Platforms() []Platform {
	return []Platform{
		PlatformVK,
		PlatformTelegram,
		PlatformInstagram,
		PlatformPinterest,
		PlatformYouTube,
	}
}

// Valid reports whether p names a supported platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformVK, PlatformTelegram, PlatformInstagram, PlatformPinterest, PlatformYouTube:
		return true
	}
	return false
}

// Account is one configured destination on one platform. The credential
// is kept encrypted; use RevealCredential/StoreCredential to cross the
// encryption boundary. Accounts are read-only during a dispatch.
type Account struct {
	ID             int64
	Platform       Platform
	Name           string
	EncryptedToken string
	Settings       map[string]string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Setting returns a platform-specific setting value.
func (a *Account) Setting(key string) (string, bool) {
	val, ok := a.Settings[key]
	return val, ok
}

// RevealCredential decrypts and parses the stored credential.
func (a *Account) RevealCredential(fe *crypto.FieldEncryptor) (Credential, error) {
	plain, err := fe.Decrypt(a.EncryptedToken)
	if err != nil {
		return nil, fmt.Errorf("reveal credential for account %d: %w", a.ID, err)
	}
	return ParseCredential(a.Platform, plain)
}

// StoreCredential encrypts cred and places it on the account, replacing
// any previous value.
func (a *Account) StoreCredential(fe *crypto.FieldEncryptor, cred Credential) error {
	stored, err := fe.Encrypt(cred.encode())
	if err != nil {
		return fmt.Errorf("store credential for account %d: %w", a.ID, err)
	}
	a.EncryptedToken = stored
	return nil
}
