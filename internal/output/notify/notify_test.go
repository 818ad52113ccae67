package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xhubed/agent-engineering/internal/platform/htmlutils"
)

var errSendFailed = errors.New("send failed")

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func sample() Summary {
	return Summary{
		Stage: "scout",
		Key:   "2026-01-14",
		RunID: "run-1",
		Stats: []Stat{{Name: "items_found", Value: "12"}, {Name: "cost_usd", Value: "0.0031"}},
		Notes: []string{"tavily <timeout>"},
	}
}

func TestFormat(t *testing.T) {
	got := Format(sample())

	assert.Equal(t, "<b>scout</b> 2026-01-14\n<code>run-1</code>\n\nitems_found: <b>12</b>\ncost_usd: <b>0.0031</b>\n• tavily &lt;timeout&gt;", got)
}

func TestFormat_Truncates(t *testing.T) {
	s := Summary{Stage: "suggest", Notes: []string{strings.Repeat("x", MaxMessageSize*2)}}

	got := Format(s)
	assert.Equal(t, MaxMessageSize, htmlutils.UTF16Len(got))
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.True(t, strings.HasPrefix(got, "<b>suggest</b>"))
}

func TestNotify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "delivered"},
		{name: "send error", err: errSendFailed, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{err: tt.err}
			n := NewWithSender(sender, 42, nil)

			err := n.Notify(context.Background(), sample())
			if tt.wantErr {
				require.ErrorIs(t, err, errSendFailed)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, sender.sent, 1)

			msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
			require.True(t, ok)
			assert.Equal(t, int64(42), msg.ChatID)
			assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
			assert.True(t, msg.DisableWebPagePreview)
		})
	}
}

func TestNotify_NilAndCanceled(t *testing.T) {
	var n *Notifier
	require.NoError(t, n.Notify(context.Background(), sample()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := &fakeSender{}
	require.ErrorIs(t, NewWithSender(sender, 1, nil).Notify(ctx, sample()), context.Canceled)
	assert.Empty(t, sender.sent)
}

func TestNew_Unconfigured(t *testing.T) {
	n, err := New("", 42, nil)
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = New("token", 0, nil)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestNotify_BotAPI(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
		text    string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()

		mu.Lock()
		methods = append(methods, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
		if v := r.FormValue("text"); v != "" {
			text = v
		}
		mu.Unlock()

		var result any = map[string]any{"id": 1, "is_bot": true, "first_name": "pipeline", "username": "pipeline_bot"}
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			result = map[string]any{"message_id": 7, "date": 0, "chat": map[string]any{"id": 42, "type": "private"}}
		}

		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
	}))
	defer srv.Close()

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint("test-token", srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	require.NoError(t, NewWithSender(api, 42, nil).Notify(context.Background(), sample()))

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []string{"getMe", "sendMessage"}, methods)
	assert.Contains(t, text, "<b>scout</b>")
}
