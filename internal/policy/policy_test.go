package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdulachik/crossbot/internal/account"
)

func TestFor(t *testing.T) {
	tests := []struct {
		platform       account.Platform
		requiresMedia  bool
		maxAttachments int
	}{
		{account.PlatformVK, false, 10},
		{account.PlatformTelegram, false, 1},
		{account.PlatformInstagram, true, 1},
		{account.PlatformPinterest, true, 1},
		{account.PlatformYouTube, true, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			c := For(tt.platform)
			assert.Equal(t, tt.requiresMedia, c.RequiresMedia)
			assert.Equal(t, tt.maxAttachments, c.MaxAttachments)
		})
	}
}

func TestFor_MediaDelivery(t *testing.T) {
	assert.Equal(t, DeliverLocal, For(account.PlatformVK).MediaDelivery)
	assert.Equal(t, DeliverLocalOrURL, For(account.PlatformTelegram).MediaDelivery)
	assert.Equal(t, DeliverURL, For(account.PlatformPinterest).MediaDelivery)
}

func TestCheck(t *testing.T) {
	t.Run("text-only allowed on vk and telegram", func(t *testing.T) {
		assert.NoError(t, Check(account.PlatformVK, "hello", 0))
		assert.NoError(t, Check(account.PlatformTelegram, "hello", 0))
	})

	t.Run("media-required platforms reject empty media", func(t *testing.T) {
		for _, p := range []account.Platform{
			account.PlatformInstagram,
			account.PlatformPinterest,
			account.PlatformYouTube,
		} {
			err := Check(p, "hi", 0)
			var violation *Violation
			assert.ErrorAs(t, err, &violation, "platform %s", p)
			assert.Contains(t, violation.Reason, "media required")
		}
	})

	t.Run("media satisfies the requirement", func(t *testing.T) {
		assert.NoError(t, Check(account.PlatformInstagram, "caption", 1))
		assert.NoError(t, Check(account.PlatformYouTube, "", 1))
	})

	t.Run("completely empty post rejected", func(t *testing.T) {
		err := Check(account.PlatformVK, "", 0)
		assert.Error(t, err)
	})

	t.Run("unknown platform rejected", func(t *testing.T) {
		err := Check(account.Platform("myspace"), "hello", 1)
		var violation *Violation
		assert.ErrorAs(t, err, &violation)
		assert.Contains(t, violation.Reason, "unknown platform")
	})
}
