// Package notify delivers finished reports to Telegram, chunking long
// messages to fit the Bot API limit.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/pkg/retry"
)

// MaxMessageLength is the Telegram Bot API per-message limit.
const MaxMessageLength = 4096

const telegramAPIBase = "https://api.telegram.org/bot"

// Notifier sends a finished report somewhere a human will see it.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// LogNotifier writes the message to the log instead of sending it.
// Used when no Telegram credentials are configured (dry runs).
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify-dry").Logger()}
}

func (n *LogNotifier) Send(_ context.Context, text string) error {
	n.log.Info().Int("length", len(text)).Msg("dry-run, message not sent")
	fmt.Println(text)
	return nil
}

// Telegram sends messages through the Bot API with chunking and retry.
type Telegram struct {
	token   string
	chatID  string
	client  *http.Client
	baseURL string
	retry   retry.Config
	log     zerolog.Logger
}

func NewTelegram(token, chatID string, log zerolog.Logger) *Telegram {
	return &Telegram{
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: telegramAPIBase,
		retry:   retry.Config{MaxRetries: 2, BaseDelay: 2 * time.Second, MaxDelay: 8 * time.Second},
		log:     log.With().Str("component", "notify-telegram").Logger(),
	}
}

// WithBaseURL points the sender at a different API host.
func (t *Telegram) WithBaseURL(baseURL string) *Telegram {
	t.baseURL = baseURL
	return t
}

// Send splits the text into API-sized chunks and delivers them in
// order, prefixing a part counter when more than one is needed. The
// first chunk that exhausts its retries fails the whole send.
func (t *Telegram) Send(ctx context.Context, text string) error {
	chunks := SplitMessage(text, MaxMessageLength)

	for i, chunk := range chunks {
		if len(chunks) > 1 {
			chunk = fmt.Sprintf("*[메시지 %d/%d]*\n\n%s", i+1, len(chunks), chunk)
		}
		if err := t.sendOne(ctx, chunk); err != nil {
			return fmt.Errorf("telegram send %d/%d: %w", i+1, len(chunks), err)
		}
		t.log.Info().Int("part", i+1).Int("total", len(chunks)).Msg("message sent")
	}

	return nil
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

func (t *Telegram) sendOne(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s%s/sendMessage", t.baseURL, t.token)
	payload, err := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return err
	}

	return retry.Do(ctx, t.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var decoded apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if !decoded.OK {
			return fmt.Errorf("api error %d: %s", decoded.ErrorCode, decoded.Description)
		}
		return nil
	})
}

// SplitMessage breaks a long text into chunks of at most maxLength
// bytes, splitting on line boundaries where possible and hard-cutting
// single oversized lines.
func SplitMessage(text string, maxLength int) []string {
	if len(text) <= maxLength {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if current.Len()+len(line)+1 > maxLength {
			flush()
			for len(line) > maxLength {
				// Back off to a rune boundary so Korean text is never
				// cut mid-character.
				cut := maxLength
				for cut > 0 && !utf8.RuneStart(line[cut]) {
					cut--
				}
				if cut == 0 {
					cut = maxLength
				}
				chunks = append(chunks, line[:cut])
				line = line[cut:]
			}
			current.WriteString(line)
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	return chunks
}
