package consultation

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Registry owns every in-memory Consultation, keyed by consultation
// identifier. Each entry carries its own mutex so operations on the same
// session are strictly ordered while unrelated sessions never contend.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu sync.Mutex
	c  Consultation
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Resolve maps a caller-supplied session identifier to a consultation
// identifier, creating an empty consultation on first use. An empty or
// "undefined" session id (browsers serialize a missing field that way)
// mints a fresh identifier; continuity is then the caller's problem.
// created reports whether this call registered the consultation.
func (r *Registry) Resolve(sessionID string) (id string, created bool) {
	id = strings.TrimSpace(sessionID)
	if id == "" || id == "undefined" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		r.entries[id] = &entry{}
		created = true
	}
	return id, created
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Get returns a deep copy of the consultation.
func (r *Registry) Get(id string) (Consultation, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Consultation{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.c.Clone(), nil
}

// Append adds one transcribed utterance to the running transcript,
// newline-separated. Empty text still appends: ordering of submissions is
// significant even for blanks, filtering is the caller's job.
func (r *Registry) Append(id, text string) (Consultation, error) {
	return r.WithSession(id, func(c *Consultation) error {
		if c.RawTranscript == "" {
			c.RawTranscript = text
		} else {
			c.RawTranscript += "\n" + text
		}
		return nil
	})
}

// WithSession runs fn over a working copy of the consultation while holding
// its per-session lock, and commits the copy only when fn returns nil. A
// failing fn therefore leaves the stored consultation byte-identical, and
// pipeline stages for the same session cannot interleave.
func (r *Registry) WithSession(id string, fn func(c *Consultation) error) (Consultation, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Consultation{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.c.Clone()
	if err := fn(&working); err != nil {
		return e.c.Clone(), err
	}
	e.c = working
	return working.Clone(), nil
}
