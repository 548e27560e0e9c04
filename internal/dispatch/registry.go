package dispatch

import (
	"github.com/abdulachik/crossbot/internal/account"
	"github.com/abdulachik/crossbot/internal/poster"
)

// Factory builds the platform adapter for one account from its
// decrypted credential. Swappable for tests.
type Factory func(acct *account.Account, cred account.Credential) (poster.Poster, error)

// NewPoster is the default Factory. Per-account settings supply the
// platform-specific addressing (wall owner, chat, board) the credential
// alone does not carry.
func NewPoster(acct *account.Account, cred account.Credential) (poster.Poster, error) {
	switch acct.Platform {
	case account.PlatformVK:
		token, err := tokenValue(acct, cred)
		if err != nil {
			return nil, err
		}
		ownerID, _ := acct.Setting("owner_id")
		return poster.NewVKPoster(poster.VKConfig{Token: token, OwnerID: ownerID})

	case account.PlatformTelegram:
		token, err := tokenValue(acct, cred)
		if err != nil {
			return nil, err
		}
		chatID, _ := acct.Setting("chat_id")
		return poster.NewTelegramPoster(poster.TelegramConfig{Token: token, ChatID: chatID})

	case account.PlatformInstagram:
		login, ok := cred.(account.Login)
		if !ok {
			return nil, &poster.ConfigError{Platform: acct.Platform, Reason: "credential is not a username/password pair"}
		}
		return poster.NewInstagramPoster(poster.InstagramConfig{Login: login})

	case account.PlatformPinterest:
		token, err := tokenValue(acct, cred)
		if err != nil {
			return nil, err
		}
		boardID, _ := acct.Setting("board_id")
		return poster.NewPinterestPoster(poster.PinterestConfig{Token: token, BoardID: boardID})

	case account.PlatformYouTube:
		token, err := tokenValue(acct, cred)
		if err != nil {
			return nil, err
		}
		return poster.NewYouTubePoster(poster.YouTubeConfig{Token: token})
	}

	return nil, &poster.ConfigError{Platform: acct.Platform, Reason: "unsupported platform"}
}

func tokenValue(acct *account.Account, cred account.Credential) (string, error) {
	token, ok := cred.(account.Token)
	if !ok {
		return "", &poster.ConfigError{Platform: acct.Platform, Reason: "credential is not an access token"}
	}
	return token.Value, nil
}
