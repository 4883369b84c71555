// Package notestore is a client for the local note-storage HTTP API
// (AnkiConnect). Every operation POSTs a single JSON envelope to the
// service root and reads back a {result, error} pair; an empty body or a
// present error field is a failure.
package notestore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// apiVersion is the envelope version the service expects.
const apiVersion = 6

// ErrEmptyResponse indicates the service returned no body at all, which
// usually means the desktop application is not running.
var ErrEmptyResponse = errors.New("notestore: empty response")

// Note is one flashcard to create. Fields maps field names (Front, Back)
// to rich-text content.
type Note struct {
	Deck           string
	Model          string
	Fields         map[string]string
	Tags           []string
	AllowDuplicate bool
}

// Client talks to a running AnkiConnect endpoint.
type Client struct {
	http *resty.Client
}

// New returns a client for the given base URL, e.g. http://127.0.0.1:8765.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New()
	c.SetBaseURL(baseURL)
	c.SetTimeout(timeout)
	c.SetHeader("Content-Type", "application/json")
	return &Client{http: c}
}

type envelope struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type reply struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// invoke performs one action and decodes the result into out when non-nil.
func (c *Client) invoke(ctx context.Context, action string, params any, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(envelope{Action: action, Version: apiVersion, Params: params}).
		Post("/")
	if err != nil {
		return fmt.Errorf("notestore: %s: %w", action, err)
	}
	body := resp.Body()
	if len(body) == 0 {
		return fmt.Errorf("%s: %w", action, ErrEmptyResponse)
	}
	var r reply
	if err := json.Unmarshal(body, &r); err != nil {
		return fmt.Errorf("notestore: %s: decode: %w", action, err)
	}
	if r.Error != nil && *r.Error != "" {
		return fmt.Errorf("notestore: %s: %s", action, *r.Error)
	}
	if out != nil {
		if err := json.Unmarshal(r.Result, out); err != nil {
			return fmt.Errorf("notestore: %s: decode result: %w", action, err)
		}
	}
	return nil
}

// AddNote creates one note and returns its id.
func (c *Client) AddNote(ctx context.Context, n Note) (int64, error) {
	params := map[string]any{
		"note": map[string]any{
			"deckName":  n.Deck,
			"modelName": n.Model,
			"fields":    n.Fields,
			"tags":      n.Tags,
			"options": map[string]any{
				"allowDuplicate": n.AllowDuplicate,
			},
		},
	}
	var id int64
	if err := c.invoke(ctx, "addNote", params, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// FindNotes returns the ids of notes matching the search query.
func (c *Client) FindNotes(ctx context.Context, query string) ([]int64, error) {
	var ids []int64
	err := c.invoke(ctx, "findNotes", map[string]any{"query": query}, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteNotes removes the given notes. A nil or empty slice is a no-op.
func (c *Client) DeleteNotes(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return c.invoke(ctx, "deleteNotes", map[string]any{"notes": ids}, nil)
}

// StoreMediaFile saves a named binary blob into the shared media store.
func (c *Client) StoreMediaFile(ctx context.Context, filename string, data []byte) error {
	params := map[string]any{
		"filename": filename,
		"data":     base64.StdEncoding.EncodeToString(data),
	}
	return c.invoke(ctx, "storeMediaFile", params, nil)
}

// DeckNames lists the target categories notes can be filed under.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.invoke(ctx, "deckNames", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}
