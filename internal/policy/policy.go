// Package policy holds the static capability table describing what each
// platform requires and allows. It is consulted before an adapter is
// invoked; a violation skips the destination without any network call.
package policy

import (
	"fmt"

	"github.com/abdulachik/crossbot/internal/account"
)

// Delivery describes how a platform consumes media.
type Delivery int

const (
	// DeliverLocal means media must be a local file (upload protocols).
	DeliverLocal Delivery = iota
	// DeliverLocalOrURL means a local file is preferred but the platform
	// also accepts a raw URL, so a failed download can fall back.
	DeliverLocalOrURL
	// DeliverURL means the platform takes the remote URL directly and no
	// download should happen.
	DeliverURL
)

// Capability is the static constraint set for one platform.
type Capability struct {
	RequiresMedia    bool
	MaxAttachments   int
	MaxCaptionLength int // runes; 0 means unbounded
	MediaDelivery    Delivery
}

var table = map[account.Platform]Capability{
	account.PlatformVK: {
		RequiresMedia:  false,
		MaxAttachments: 10,
		MediaDelivery:  DeliverLocal,
	},
	account.PlatformTelegram: {
		RequiresMedia:    false,
		MaxAttachments:   1,
		MaxCaptionLength: 1024,
		MediaDelivery:    DeliverLocalOrURL,
	},
	account.PlatformInstagram: {
		RequiresMedia:  true,
		MaxAttachments: 1,
		MediaDelivery:  DeliverLocal,
	},
	account.PlatformPinterest: {
		RequiresMedia:    true,
		MaxAttachments:   1,
		MaxCaptionLength: 500,
		MediaDelivery:    DeliverURL,
	},
	account.PlatformYouTube: {
		RequiresMedia:    true,
		MaxAttachments:   1,
		MaxCaptionLength: 5000,
		MediaDelivery:    DeliverLocal,
	},
}

// For returns the capability set for a platform. Unknown platforms get a
// zero Capability; callers are expected to validate the platform first.
func For(p account.Platform) Capability {
	return table[p]
}

// Violation is a pre-dispatch policy failure. It is terminal for the
// destination but never retryable.
type Violation struct {
	Platform account.Platform
	Reason   string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Platform, v.Reason)
}

// Check validates a post against the platform's capabilities. It returns
// a *Violation when the destination must be skipped, nil otherwise.
func Check(p account.Platform, text string, mediaCount int) error {
	if !p.Valid() {
		return &Violation{Platform: p, Reason: "unknown platform"}
	}

	c := table[p]
	if c.RequiresMedia && mediaCount == 0 {
		return &Violation{Platform: p, Reason: "media required"}
	}
	if text == "" && mediaCount == 0 {
		return &Violation{Platform: p, Reason: "post has no content"}
	}
	return nil
}
