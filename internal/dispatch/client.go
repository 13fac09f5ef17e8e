package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tinytelemetry/killfeed/internal/model"
)

const (
	DefaultVerifyPath = "/api/killtracker/verify"
	DefaultSendPath   = "/api/killtracker/kills"
	DefaultTimeout    = 10 * time.Second

	maxBodyBytes = 4096
)

// Recorder receives one entry per call; the journal implements it.
type Recorder interface {
	Append(e model.DispatchEntry) error
}

// Config holds the endpoint and credentials for one session.
type Config struct {
	BaseURL    string
	VerifyPath string
	SendPath   string
	Token      string
	UserAgent  string
	SessionID  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Recorder   Recorder
}

// Client sends kill records to the collection endpoint. It performs exactly one
// request per call and never retries.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a dispatcher client.
func New(cfg Config) *Client {
	if cfg.VerifyPath == "" {
		cfg.VerifyPath = DefaultVerifyPath
	}
	if cfg.SendPath == "" {
		cfg.SendPath = DefaultSendPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: hc}
}

// VerifyConnection checks that the endpoint is reachable and accepts the token.
func (c *Client) VerifyConnection(ctx context.Context) (bool, string) {
	return c.do(ctx, "verify", http.MethodGet, c.cfg.VerifyPath, nil)
}

// Send posts one record.
func (c *Client) Send(ctx context.Context, rec model.KillRecord) (bool, string) {
	body, err := json.Marshal(rec)
	if err != nil {
		msg := fmt.Sprintf("encode kill record: %v", err)
		c.record("send", false, 0, msg, "")
		return false, msg
	}
	return c.do(ctx, "send", http.MethodPost, c.cfg.SendPath, body)
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte) (bool, string) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		msg := fmt.Sprintf("build request: %v", err)
		c.record(op, false, 0, msg, "")
		return false, msg
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.SessionID != "" {
		req.Header.Set("X-Session-ID", c.cfg.SessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		msg := err.Error()
		c.record(op, false, 0, msg, "")
		return false, msg
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if len(raw) == maxBodyBytes {
		raw = dropPartialRune(raw)
	}
	text := strings.TrimSpace(string(raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if text != "" {
			msg += ": " + snippet(text)
		}
		c.record(op, false, resp.StatusCode, msg, text)
		return false, msg
	}

	msg := "OK"
	if text != "" {
		msg = snippet(text)
	}
	c.record(op, true, resp.StatusCode, msg, text)
	return true, msg
}

func (c *Client) record(op string, ok bool, code int, msg, response string) {
	if c.cfg.Recorder == nil {
		return
	}
	err := c.cfg.Recorder.Append(model.DispatchEntry{
		Time:       time.Now(),
		SessionID:  c.cfg.SessionID,
		Op:         op,
		OK:         ok,
		StatusCode: code,
		Message:    msg,
		Response:   response,
	})
	if err != nil {
		log.Printf("dispatch: journal append failed: %v", err)
	}
}

func snippet(s string) string {
	const maxLen = 200
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxLen {
		return truncateUTF8(s, maxLen) + "..."
	}
	return s
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// dropPartialRune removes an incomplete rune left at the end of b by a
// length-limited read.
func dropPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			return b
		}
	}
	return b
}
