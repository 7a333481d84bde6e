package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessage(t *testing.T) {
	t.Run("short text single chunk", func(t *testing.T) {
		chunks := SplitMessage("hello\nworld", 100)
		assert.Equal(t, []string{"hello\nworld"}, chunks)
	})

	t.Run("splits on line boundaries", func(t *testing.T) {
		text := strings.Repeat("aaaa\n", 10) // 50 bytes
		chunks := SplitMessage(text, 20)

		require.Greater(t, len(chunks), 1)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 20)
			for _, line := range strings.Split(chunk, "\n") {
				if line != "" {
					assert.Equal(t, "aaaa", line) // no mid-line cuts
				}
			}
		}
	})

	t.Run("hard cuts an oversized line", func(t *testing.T) {
		chunks := SplitMessage(strings.Repeat("x", 45), 20)
		assert.Equal(t, []string{strings.Repeat("x", 20), strings.Repeat("x", 20), "xxxxx"}, chunks)
	})

	t.Run("hard cut keeps rune boundaries", func(t *testing.T) {
		line := strings.Repeat("가", 20) // 60 bytes of 3-byte runes
		chunks := SplitMessage(line, 10)

		var joined strings.Builder
		for _, chunk := range chunks {
			assert.True(t, utf8.ValidString(chunk))
			assert.LessOrEqual(t, len(chunk), 10)
			joined.WriteString(chunk)
		}
		assert.Equal(t, line, joined.String())
	})

	t.Run("content preserved", func(t *testing.T) {
		text := "line one\nline two\nline three"
		chunks := SplitMessage(text, 12)
		assert.Equal(t, text, strings.Join(chunks, "\n"))
	})
}

func TestTelegramSend(t *testing.T) {
	var received []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/sendMessage"))
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received = append(received, payload)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	tg := NewTelegram("test-token", "42", zerolog.Nop()).WithBaseURL(srv.URL + "/bot")

	require.NoError(t, tg.Send(context.Background(), "안녕하세요"))
	require.Len(t, received, 1)
	assert.Equal(t, "42", received[0]["chat_id"])
	assert.Equal(t, "안녕하세요", received[0]["text"])
	assert.Equal(t, "Markdown", received[0]["parse_mode"])
}

func TestTelegramSendChunked(t *testing.T) {
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		texts = append(texts, payload["text"])
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	tg := NewTelegram("test-token", "42", zerolog.Nop()).WithBaseURL(srv.URL + "/bot")

	long := strings.Repeat("리포트 본문 라인입니다\n", 300) // well past 4096 bytes
	require.NoError(t, tg.Send(context.Background(), long))

	require.Greater(t, len(texts), 1)
	assert.True(t, strings.HasPrefix(texts[0], fmt.Sprintf("*[메시지 1/%d]*", len(texts))))
	assert.True(t, strings.HasPrefix(texts[len(texts)-1], fmt.Sprintf("*[메시지 %d/%d]*", len(texts), len(texts))))
}

func TestTelegramSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`)
	}))
	defer srv.Close()

	tg := NewTelegram("test-token", "42", zerolog.Nop()).WithBaseURL(srv.URL + "/bot")
	tg.retry.BaseDelay = time.Millisecond

	err := tg.Send(context.Background(), "broken *markdown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't parse entities")
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(zerolog.Nop())
	assert.NoError(t, n.Send(context.Background(), "dry run message"))
}
