package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendFansOutToAllChats(t *testing.T) {
	var payloads []sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var payload sendMessageRequest
		require.NoError(t, json.Unmarshal(body, &payload))
		payloads = append(payloads, payload)

		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	tg, err := NewTelegram(&TelegramConfig{
		BaseAPIURL: server.URL,
		Token:      "test-token",
		ChatIDs:    []string{"111", "222"},
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)
	assert.True(t, tg.Configured())

	require.NoError(t, tg.Send(context.Background(), "hedge found"))

	require.Len(t, payloads, 2)
	assert.Equal(t, "111", payloads[0].ChatID)
	assert.Equal(t, "222", payloads[1].ChatID)
	assert.Equal(t, "hedge found", payloads[0].Text)
	assert.Equal(t, "HTML", payloads[0].ParseMode)
}

func TestSendUnconfiguredIsNoop(t *testing.T) {
	tg, err := NewTelegram(&TelegramConfig{Logger: zap.NewNop()})
	require.NoError(t, err)

	assert.False(t, tg.Configured())
	assert.NoError(t, tg.Send(context.Background(), "dropped"))
}

func TestSendContinuesPastFailingChat(t *testing.T) {
	var delivered []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload sendMessageRequest
		require.NoError(t, json.Unmarshal(body, &payload))

		if payload.ChatID == "bad" {
			http.Error(w, "chat not found", http.StatusBadRequest)
			return
		}
		delivered = append(delivered, payload.ChatID)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	tg, err := NewTelegram(&TelegramConfig{
		BaseAPIURL: server.URL,
		Token:      "test-token",
		ChatIDs:    []string{"bad", "good"},
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)

	err = tg.Send(context.Background(), "still delivered")
	assert.Error(t, err)
	assert.Equal(t, []string{"good"}, delivered)
}

func TestSendTruncatesLongMessages(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload sendMessageRequest
		require.NoError(t, json.Unmarshal(body, &payload))
		got = payload.Text
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	tg, err := NewTelegram(&TelegramConfig{
		BaseAPIURL: server.URL,
		Token:      "test-token",
		ChatIDs:    []string{"111"},
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)

	long := strings.Repeat("line of hedge detail\n", 400)
	require.NoError(t, tg.Send(context.Background(), long))

	assert.LessOrEqual(t, len(got), MaxMessageBytes)
	assert.False(t, strings.HasSuffix(got, "line of hedge de"), "cut at a line boundary")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 100))

	cut := Truncate("first line\nsecond line\nthird", 15)
	assert.Equal(t, "first line", cut)

	noNewline := Truncate(strings.Repeat("a", 50), 10)
	assert.Len(t, noNewline, 10)

	multibyte := Truncate(strings.Repeat("é", 30), 9)
	assert.LessOrEqual(t, len(multibyte), 9)
	assert.True(t, strings.HasSuffix(multibyte, "é"))
}
