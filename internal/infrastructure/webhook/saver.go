// Package webhook hands saved drafts off to the host application over HTTP.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cscx-ai/draftd/internal/domain/document"
)

// Saver POSTs the final draft to the host's save endpoint. A non-2xx
// response or transport failure is the host's rejection: it is reported
// back to the session as a failed save and never retried here; every
// retry is a fresh user submit.
type Saver struct {
	url        string
	secret     string
	client     *http.Client
	deadLetter *DeadLetterStore
}

// NewSaver creates a saver for the given endpoint. With a secret, payloads
// are HMAC-SHA256 signed via the X-Draftd-Signature header.
func NewSaver(url, secret string) *Saver {
	return &Saver{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithDeadLetters records every rejected save in the given store.
func (s *Saver) WithDeadLetters(store *DeadLetterStore) *Saver {
	s.deadLetter = store
	return s
}

// Payload is the JSON body sent to the host.
type Payload struct {
	SessionID string         `json:"session_id"`
	Kind      document.Kind  `json:"kind"`
	Document  map[string]any `json:"document"`
	SavedAt   time.Time      `json:"saved_at"`
}

// Save delivers the draft.
func (s *Saver) Save(ctx context.Context, id string, kind document.Kind, draft map[string]any) error {
	payload := Payload{
		SessionID: id,
		Kind:      kind,
		Document:  draft,
		SavedAt:   time.Now(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal save payload: %w", err)
	}

	if err := s.deliver(ctx, body); err != nil {
		if s.deadLetter != nil {
			_ = s.deadLetter.Append(DeadLetter{
				Payload:  payload,
				Error:    err.Error(),
				FailedAt: time.Now(),
			})
		}
		return err
	}
	return nil
}

func (s *Saver) deliver(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Draftd-Webhook/1.0")
	if s.secret != "" {
		req.Header.Set("X-Draftd-Signature", sign(body, s.secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver draft: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("host rejected save with status: %s", resp.Status)
	}
	return nil
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
