package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulachik/crossbot/internal/account"
	"github.com/abdulachik/crossbot/internal/poster"
)

func TestNewPoster(t *testing.T) {
	tests := []struct {
		platform account.Platform
		cred     account.Credential
		settings map[string]string
	}{
		{account.PlatformVK, account.Token{Value: "tok"}, map[string]string{"owner_id": "-1"}},
		{account.PlatformTelegram, account.Token{Value: "tok"}, map[string]string{"chat_id": "@c"}},
		{account.PlatformInstagram, account.Login{Username: "u", Password: "p"}, nil},
		{account.PlatformPinterest, account.Token{Value: "tok"}, map[string]string{"board_id": "b1"}},
		{account.PlatformYouTube, account.Token{Value: "tok"}, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			acct := &account.Account{ID: 1, Platform: tt.platform, Settings: tt.settings}
			p, err := NewPoster(acct, tt.cred)
			require.NoError(t, err)
			assert.Equal(t, tt.platform, p.Platform())
		})
	}
}

func TestNewPoster_CredentialMismatch(t *testing.T) {
	t.Run("token where a login is needed", func(t *testing.T) {
		acct := &account.Account{Platform: account.PlatformInstagram}
		_, err := NewPoster(acct, account.Token{Value: "tok"})
		assert.True(t, poster.IsConfigError(err))
	})

	t.Run("login where a token is needed", func(t *testing.T) {
		acct := &account.Account{Platform: account.PlatformVK, Settings: map[string]string{"owner_id": "-1"}}
		_, err := NewPoster(acct, account.Login{Username: "u", Password: "p"})
		assert.True(t, poster.IsConfigError(err))
	})
}

func TestNewPoster_MissingSettings(t *testing.T) {
	tests := []struct {
		platform account.Platform
		want     string
	}{
		{account.PlatformVK, "owner_id"},
		{account.PlatformTelegram, "chat_id"},
		{account.PlatformPinterest, "board_id"},
	}

	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			acct := &account.Account{Platform: tt.platform}
			_, err := NewPoster(acct, account.Token{Value: "tok"})
			var ce *poster.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Contains(t, ce.Reason, tt.want)
		})
	}
}

func TestNewPoster_UnsupportedPlatform(t *testing.T) {
	acct := &account.Account{Platform: account.Platform("myspace")}
	_, err := NewPoster(acct, account.Token{Value: "tok"})
	assert.True(t, poster.IsConfigError(err))
}
