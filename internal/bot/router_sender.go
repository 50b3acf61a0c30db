package bot

import (
	"fmt"
	"strings"

	"github.com/kusandriadi/relaybot/internal/router"
	"github.com/kusandriadi/relaybot/internal/util"
)

// RouterSender adapts internal/router.Router to the activation.Sender seam
// so a bound plugin can send or pin a message without depending on router
// or platform internals. channelID is "platform:chatId", the same key
// ActivationHandler uses to scope an activation.
type RouterSender struct {
	router *router.Router
}

// NewRouterSender wraps an already-constructed router.Router.
func NewRouterSender(r *router.Router) *RouterSender {
	return &RouterSender{router: r}
}

// SendMessage implements activation.Sender.
func (s *RouterSender) SendMessage(channelID, content string) ([]string, error) {
	platform, chatID, err := splitChannelID(channelID)
	if err != nil {
		return nil, err
	}
	if err := s.router.Send(platform, chatID, content); err != nil {
		return nil, err
	}
	// router.Platform.Send doesn't report back a platform message id, so a
	// locally-minted one stands in for ContextMessageIDs bookkeeping.
	return []string{util.RandomID(12)}, nil
}

// PinMessage implements activation.Sender. None of the wired platforms
// (telegram, slack, whatsapp, webhook) expose a pin operation through
// router.Platform yet, so this is a no-op rather than an error — a plugin
// can call it unconditionally without special-casing platforms that lack
// the feature.
func (s *RouterSender) PinMessage(channelID, messageID string) error {
	return nil
}

// SplitChannelID splits a "platform:chatId" channel id as minted by
// ActivationHandler.Build back into its platform and chat components, for
// callers (like a reminders notifyChannel func) that need to route by
// platform outside the plugin runtime itself.
func SplitChannelID(channelID string) (platform, chatID string, err error) {
	parts := strings.SplitN(channelID, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("bot: invalid channel id %q", channelID)
	}
	return parts[0], parts[1], nil
}

func splitChannelID(channelID string) (platform, chatID string, err error) {
	return SplitChannelID(channelID)
}
