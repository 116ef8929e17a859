// Package client implements the HTTP transport to the card catalog API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/strength/internal/models"
)

const defaultTimeout = 10 * time.Second

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient replaces the underlying HTTP client. A nil client is
// ignored. The client is copied, so WithTimeout never mutates it.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		if c != nil {
			t.base = c
		}
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.timeout = &d
	}
}

// Transport performs authenticated calls against the cards resource. It
// never retries; every failure is returned to the caller as an *Error.
type Transport struct {
	baseURL string
	http    *http.Client

	base    *http.Client
	timeout *time.Duration
}

// New creates a Transport rooted at baseURL, the cards resource root
// (for example http://localhost:8080/api/cards).
func New(baseURL string, opts ...Option) *Transport {
	t := &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		base:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}

	hc := *t.base
	if t.timeout != nil {
		hc.Timeout = *t.timeout
	}
	t.http = &hc
	return t
}

func (t *Transport) url(segments ...string) string {
	var b strings.Builder
	b.WriteString(t.baseURL)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// call sends one request and decodes the response into out when the status
// equals want. tmpl is filled in with Op, Section and CardName for errors.
func (t *Transport) call(ctx context.Context, cred Credential, method, target string, body any, want int, out any, tmpl Error) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			tmpl.Err = fmt.Errorf("encode body: %w", err)
			return &tmpl
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		tmpl.Err = err
		return &tmpl
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cred.apply(req)

	resp, err := t.http.Do(req)
	if err != nil {
		tmpl.Err = err
		return &tmpl
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		tmpl.StatusCode = resp.StatusCode
		tmpl.Message = serverMessage(resp.Body)
		return &tmpl
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		tmpl.StatusCode = resp.StatusCode
		tmpl.Err = fmt.Errorf("decode response: %w", err)
		return &tmpl
	}
	return nil
}

// serverMessage extracts the "error" field of a JSON error body, if any.
func serverMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}

// Get loads one card scoped by section.
func (t *Transport) Get(ctx context.Context, cred Credential, section models.Section, cardName string) (models.Card, error) {
	var card models.Card
	err := t.call(ctx, cred, http.MethodGet, t.url(string(section), cardName), nil, http.StatusOK, &card,
		Error{Op: OpGet, Section: section, CardName: cardName})
	return card, err
}

// List loads the cards of one section.
func (t *Transport) List(ctx context.Context, cred Credential, section models.Section) ([]models.Card, error) {
	cards := []models.Card{}
	err := t.call(ctx, cred, http.MethodGet, t.url(string(section)), nil, http.StatusOK, &cards,
		Error{Op: OpList, Section: section})
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []models.Card{}
	}
	return cards, nil
}

// Index loads every card in the catalog.
func (t *Transport) Index(ctx context.Context, cred Credential) ([]models.Card, error) {
	cards := []models.Card{}
	err := t.call(ctx, cred, http.MethodGet, t.baseURL, nil, http.StatusOK, &cards, Error{Op: OpIndex})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// Patch sends only the present fields of patch and returns the full card
// as stored by the server.
func (t *Transport) Patch(ctx context.Context, cred Credential, section models.Section, cardName string, patch models.CardPatch) (models.Card, error) {
	var card models.Card
	err := t.call(ctx, cred, http.MethodPatch, t.url(string(section), cardName), patch, http.StatusOK, &card,
		Error{Op: OpPatch, Section: section, CardName: cardName})
	return card, err
}

// Create stores a new card.
func (t *Transport) Create(ctx context.Context, cred Credential, card models.Card) (models.Card, error) {
	var created models.Card
	err := t.call(ctx, cred, http.MethodPost, t.baseURL, card, http.StatusCreated, &created,
		Error{Op: OpCreate, Section: card.Section, CardName: card.CardName})
	return created, err
}

// Delete removes a card scoped by section.
func (t *Transport) Delete(ctx context.Context, cred Credential, section models.Section, cardName string) error {
	return t.call(ctx, cred, http.MethodDelete, t.url(string(section), cardName), nil, http.StatusNoContent, nil,
		Error{Op: OpDelete, Section: section, CardName: cardName})
}
