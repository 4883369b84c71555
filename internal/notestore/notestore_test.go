package notestore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// captured is the last envelope a test server received.
type captured struct {
	Action  string         `json:"action"`
	Version int            `json:"version"`
	Params  map[string]any `json:"params"`
}

func newTestServer(t *testing.T, handler func(captured) string) (*httptest.Server, *captured) {
	t.Helper()
	last := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(last); err != nil {
			t.Errorf("decode envelope: %v", err)
		}
		if _, err := w.Write([]byte(handler(*last))); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func TestAddNote(t *testing.T) {
	srv, last := newTestServer(t, func(captured) string {
		return `{"result": 1496198395707, "error": null}`
	})
	c := New(srv.URL, time.Second)

	id, err := c.AddNote(context.Background(), Note{
		Deck:   "Lessons",
		Model:  "Basic",
		Fields: map[string]string{"Front": "q", "Back": "a"},
		Tags:   []string{"autocard"},
	})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if id != 1496198395707 {
		t.Fatalf("id = %d", id)
	}
	if last.Action != "addNote" || last.Version != 6 {
		t.Fatalf("envelope = %+v", last)
	}
	note, ok := last.Params["note"].(map[string]any)
	if !ok {
		t.Fatalf("note params missing: %+v", last.Params)
	}
	if note["deckName"] != "Lessons" || note["modelName"] != "Basic" {
		t.Fatalf("note = %+v", note)
	}
	opts, ok := note["options"].(map[string]any)
	if !ok || opts["allowDuplicate"] != false {
		t.Fatalf("options = %+v", note["options"])
	}
}

func TestInvoke_ServiceError(t *testing.T) {
	srv, _ := newTestServer(t, func(captured) string {
		return `{"result": null, "error": "deck was not found: Nope"}`
	})
	c := New(srv.URL, time.Second)

	_, err := c.AddNote(context.Background(), Note{Deck: "Nope", Model: "Basic"})
	if err == nil {
		t.Fatalf("expected error from service error field")
	}
	if got := err.Error(); got != "notestore: addNote: deck was not found: Nope" {
		t.Fatalf("error = %q", got)
	}
}

func TestInvoke_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	c := New(srv.URL, time.Second)

	_, err := c.DeckNames(context.Background())
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestFindNotes(t *testing.T) {
	srv, last := newTestServer(t, func(captured) string {
		return `{"result": [3, 7], "error": null}`
	})
	c := New(srv.URL, time.Second)

	ids, err := c.FindNotes(context.Background(), `"Front:*marker*"`)
	if err != nil {
		t.Fatalf("FindNotes: %v", err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 7 {
		t.Fatalf("ids = %v", ids)
	}
	if last.Params["query"] != `"Front:*marker*"` {
		t.Fatalf("query = %v", last.Params["query"])
	}
}

func TestDeleteNotes_EmptySkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()
	c := New(srv.URL, time.Second)

	if err := c.DeleteNotes(context.Background(), nil); err != nil {
		t.Fatalf("DeleteNotes: %v", err)
	}
	if called {
		t.Fatalf("empty delete must not hit the service")
	}
}

func TestStoreMediaFile(t *testing.T) {
	srv, last := newTestServer(t, func(captured) string {
		return `{"result": "autocard-1-0.png", "error": null}`
	})
	c := New(srv.URL, time.Second)

	blob := []byte{0x89, 'P', 'N', 'G'}
	if err := c.StoreMediaFile(context.Background(), "autocard-1-0.png", blob); err != nil {
		t.Fatalf("StoreMediaFile: %v", err)
	}
	if last.Params["filename"] != "autocard-1-0.png" {
		t.Fatalf("filename = %v", last.Params["filename"])
	}
	if last.Params["data"] != base64.StdEncoding.EncodeToString(blob) {
		t.Fatalf("data = %v", last.Params["data"])
	}
}

func TestDeckNames(t *testing.T) {
	srv, _ := newTestServer(t, func(captured) string {
		return `{"result": ["Default", "Lessons"], "error": null}`
	})
	c := New(srv.URL, time.Second)

	names, err := c.DeckNames(context.Background())
	if err != nil {
		t.Fatalf("DeckNames: %v", err)
	}
	if len(names) != 2 || names[1] != "Lessons" {
		t.Fatalf("names = %v", names)
	}
}
