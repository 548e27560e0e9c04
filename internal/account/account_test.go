package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulachik/crossbot/internal/crypto"
)

func TestPlatform_Valid(t *testing.T) {
	for _, p := range Platforms() {
		assert.True(t, p.Valid(), "platform %s should be valid", p)
	}
	assert.False(t, Platform("myspace").Valid())
	assert.False(t, Platform("").Valid())
}

func TestParseCredential(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		secret   string
		want     Credential
		wantErr  bool
	}{
		{
			name:     "vk token",
			platform: PlatformVK,
			secret:   "vk1.a.token",
			want:     Token{Value: "vk1.a.token"},
		},
		{
			name:     "telegram token keeps colons",
			platform: PlatformTelegram,
			secret:   "123456:ABC-bot-token",
			want:     Token{Value: "123456:ABC-bot-token"},
		},
		{
			name:     "instagram login pair",
			platform: PlatformInstagram,
			secret:   "someuser:s3cret",
			want:     Login{Username: "someuser", Password: "s3cret"},
		},
		{
			name:     "instagram password may contain colons",
			platform: PlatformInstagram,
			secret:   "someuser:pass:with:colons",
			want:     Login{Username: "someuser", Password: "pass:with:colons"},
		},
		{
			name:     "instagram missing separator",
			platform: PlatformInstagram,
			secret:   "justausername",
			wantErr:  true,
		},
		{
			name:     "instagram empty password",
			platform: PlatformInstagram,
			secret:   "someuser:",
			wantErr:  true,
		},
		{
			name:     "empty credential",
			platform: PlatformVK,
			secret:   "",
			wantErr:  true,
		},
		{
			name:     "unknown platform",
			platform: Platform("myspace"),
			secret:   "token",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCredential(tt.platform, tt.secret)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccount_CredentialRoundTrip(t *testing.T) {
	fe, err := crypto.NewFieldEncryptor([]byte("test-secret"), "credentials")
	require.NoError(t, err)

	t.Run("token", func(t *testing.T) {
		acc := &Account{ID: 1, Platform: PlatformTelegram}
		err := acc.StoreCredential(fe, Token{Value: "123456:bot-token"})
		require.NoError(t, err)
		assert.True(t, crypto.IsEncrypted(acc.EncryptedToken))

		cred, err := acc.RevealCredential(fe)
		require.NoError(t, err)
		assert.Equal(t, Token{Value: "123456:bot-token"}, cred)
	})

	t.Run("login pair", func(t *testing.T) {
		acc := &Account{ID: 2, Platform: PlatformInstagram}
		err := acc.StoreCredential(fe, Login{Username: "user", Password: "pass"})
		require.NoError(t, err)

		cred, err := acc.RevealCredential(fe)
		require.NoError(t, err)
		assert.Equal(t, Login{Username: "user", Password: "pass"}, cred)
	})

	t.Run("wrong key fails", func(t *testing.T) {
		other, err := crypto.NewFieldEncryptor([]byte("different-secret"), "credentials")
		require.NoError(t, err)

		acc := &Account{ID: 3, Platform: PlatformVK}
		require.NoError(t, acc.StoreCredential(fe, Token{Value: "tok"}))

		_, err = acc.RevealCredential(other)
		assert.Error(t, err)
	})
}

func TestAccount_Setting(t *testing.T) {
	acc := &Account{Settings: map[string]string{"chat_id": "@mychannel"}}

	val, ok := acc.Setting("chat_id")
	assert.True(t, ok)
	assert.Equal(t, "@mychannel", val)

	_, ok = acc.Setting("board_id")
	assert.False(t, ok)

	var empty Account
	_, ok = empty.Setting("chat_id")
	assert.False(t, ok)
}
