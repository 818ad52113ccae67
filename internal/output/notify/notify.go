// Package notify posts stage run summaries to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/platform/htmlutils"
)

// MaxMessageSize is Telegram's per-message text limit in UTF-16 units.
const MaxMessageSize = 4096

// Sender is the part of tgbotapi.BotAPI used here.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Stat is one line of a summary.
type Stat struct {
	Name  string
	Value string
}

// Summary describes a finished stage run.
type Summary struct {
	Stage string
	Key   string
	RunID string
	Stats []Stat
	Notes []string
}

// Notifier sends summaries. A nil *Notifier is valid and sends nothing.
type Notifier struct {
	sender Sender
	chatID int64
	logger *zerolog.Logger
}

// New connects to the Bot API. It returns nil without error when token or
// chatID is unset so callers can notify unconditionally.
func New(token string, chatID int64, logger *zerolog.Logger) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil //nolint:nilnil // notifications are optional
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	return NewWithSender(api, chatID, logger), nil
}

func NewWithSender(sender Sender, chatID int64, logger *zerolog.Logger) *Notifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Notifier{sender: sender, chatID: chatID, logger: logger}
}

// Notify sends s. Delivery failures are returned; callers decide whether
// they matter.
func (n *Notifier) Notify(ctx context.Context, s Summary) error {
	if n == nil {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notify %s: %w", s.Stage, err)
	}

	msg := tgbotapi.NewMessage(n.chatID, Format(s))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("send %s summary to chat %d: %w", s.Stage, n.chatID, err)
	}

	n.logger.Debug().Str("stage", s.Stage).Int64("chat_id", n.chatID).Msg("run summary sent")

	return nil
}

// Format renders s as Telegram HTML, truncated to MaxMessageSize.
func Format(s Summary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>%s</b>", html.EscapeString(s.Stage))

	if s.Key != "" {
		fmt.Fprintf(&sb, " %s", html.EscapeString(s.Key))
	}

	sb.WriteString("\n")

	if s.RunID != "" {
		fmt.Fprintf(&sb, "<code>%s</code>\n", html.EscapeString(s.RunID))
	}

	for _, st := range s.Stats {
		fmt.Fprintf(&sb, "\n%s: <b>%s</b>", html.EscapeString(st.Name), html.EscapeString(st.Value))
	}

	for _, note := range s.Notes {
		fmt.Fprintf(&sb, "\n• %s", html.EscapeString(note))
	}

	return htmlutils.Truncate(sb.String(), MaxMessageSize)
}
