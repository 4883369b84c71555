// anki-stub is an in-memory stand-in for the AnkiConnect endpoint, useful
// for trying autocard without a running Anki desktop.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
)

type envelope struct {
	Action  string          `json:"action"`
	Version int             `json:"version"`
	Params  json.RawMessage `json:"params"`
}

type store struct {
	mu     sync.Mutex
	nextID int64
	notes  map[int64]map[string]string
	media  map[string]int
}

func main() {
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8765"
	}
	s := &store{nextID: 1, notes: map[int64]map[string]string{}, media: map[string]int{}}

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var env envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			reply(w, nil, "invalid request")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		switch env.Action {
		case "deckNames":
			reply(w, []string{"Default", "Lessons"}, "")
		case "addNote":
			var p struct {
				Note struct {
					Fields map[string]string `json:"fields"`
				} `json:"note"`
			}
			_ = json.Unmarshal(env.Params, &p)
			id := s.nextID
			s.nextID++
			s.notes[id] = p.Note.Fields
			log.Printf("addNote id=%d front=%q", id, truncate(p.Note.Fields["Front"], 80))
			reply(w, id, "")
		case "findNotes":
			var p struct {
				Query string `json:"query"`
			}
			_ = json.Unmarshal(env.Params, &p)
			needle := strings.Trim(strings.TrimPrefix(strings.Trim(p.Query, `"`), "Front:"), "*")
			ids := []int64{}
			for id, fields := range s.notes {
				if strings.Contains(fields["Front"], needle) {
					ids = append(ids, id)
				}
			}
			reply(w, ids, "")
		case "deleteNotes":
			var p struct {
				Notes []int64 `json:"notes"`
			}
			_ = json.Unmarshal(env.Params, &p)
			for _, id := range p.Notes {
				delete(s.notes, id)
			}
			reply(w, nil, "")
		case "storeMediaFile":
			var p struct {
				Filename string `json:"filename"`
				Data     string `json:"data"`
			}
			_ = json.Unmarshal(env.Params, &p)
			s.media[p.Filename] = len(p.Data)
			log.Printf("storeMediaFile %s (%d b64 bytes)", p.Filename, len(p.Data))
			reply(w, nil, "")
		default:
			reply(w, nil, "unsupported action: "+env.Action)
		}
	})

	log.Printf("anki-stub listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}

func reply(w http.ResponseWriter, result any, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	out := map[string]any{"result": result, "error": nil}
	if errMsg != "" {
		out["error"] = errMsg
	}
	_ = json.NewEncoder(w).Encode(out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
