package consultation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestResolveMintsIDForEmptySession(t *testing.T) {
	r := NewRegistry()

	for _, raw := range []string{"", "   ", "undefined"} {
		id, created := r.Resolve(raw)
		if id == "" {
			t.Fatalf("Resolve(%q) returned empty id", raw)
		}
		if id == "undefined" {
			t.Fatalf("Resolve(%q) kept the sentinel id", raw)
		}
		if !created {
			t.Fatalf("Resolve(%q) should create a consultation", raw)
		}
	}
}

func TestResolveMintsDistinctIDs(t *testing.T) {
	r := NewRegistry()

	first, _ := r.Resolve("")
	second, _ := r.Resolve("")
	if first == second {
		t.Fatalf("two empty resolves produced the same id %q", first)
	}
}

func TestResolveIsStableForKnownID(t *testing.T) {
	r := NewRegistry()

	id, created := r.Resolve("visit-42")
	if id != "visit-42" {
		t.Fatalf("Resolve rewrote the id: got %q", id)
	}
	if !created {
		t.Fatal("first Resolve should report created")
	}

	again, created := r.Resolve("visit-42")
	if again != id {
		t.Fatalf("second Resolve returned %q, want %q", again, id)
	}
	if created {
		t.Fatal("second Resolve should not report created")
	}
}

func TestResolveTrimsWhitespace(t *testing.T) {
	r := NewRegistry()

	id, _ := r.Resolve("  visit-7  ")
	if id != "visit-7" {
		t.Fatalf("got %q, want trimmed id", id)
	}
}

func TestGetUnknownID(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestAppendJoinsWithNewline(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Resolve("visit-1")

	if _, err := r.Append(id, "first utterance"); err != nil {
		t.Fatal(err)
	}
	c, err := r.Append(id, "second utterance")
	if err != nil {
		t.Fatal(err)
	}

	want := "first utterance\nsecond utterance"
	if c.RawTranscript != want {
		t.Fatalf("transcript = %q, want %q", c.RawTranscript, want)
	}
}

func TestAppendEmptyTextStillAppends(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Resolve("visit-1")

	r.Append(id, "hello")
	c, err := r.Append(id, "")
	if err != nil {
		t.Fatal(err)
	}
	if c.RawTranscript != "hello\n" {
		t.Fatalf("transcript = %q, want trailing newline", c.RawTranscript)
	}
}

func TestAppendUnknownID(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Append("missing", "text"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestWithSessionCommitsOnSuccess(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Resolve("visit-1")

	got, err := r.WithSession(id, func(c *Consultation) error {
		c.Diagnoses = []string{"flu"}
		c.NotesForDoctor = "note"
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.NotesForDoctor != "note" {
		t.Fatalf("returned consultation missing mutation: %+v", got)
	}

	stored, _ := r.Get(id)
	if !reflect.DeepEqual(stored.Diagnoses, []string{"flu"}) {
		t.Fatalf("stored diagnoses = %v", stored.Diagnoses)
	}
}

func TestWithSessionDiscardsOnError(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Resolve("visit-1")
	r.Append(id, "original transcript")

	before, _ := r.Get(id)

	boom := errors.New("boom")
	prior, err := r.WithSession(id, func(c *Consultation) error {
		c.RawTranscript = "clobbered"
		c.Diagnoses = []string{"wrong"}
		c.QAHistory = append(c.QAHistory, QAItem{Question: "q", Answer: "a"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got err %v, want boom", err)
	}
	if !reflect.DeepEqual(prior, before) {
		t.Fatalf("error return should carry the prior state, got %+v", prior)
	}

	after, _ := r.Get(id)
	if !reflect.DeepEqual(after, before) {
		t.Fatalf("stored consultation changed despite error:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestWithSessionUnknownID(t *testing.T) {
	r := NewRegistry()

	_, err := r.WithSession("missing", func(c *Consultation) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestWithSessionReturnsIndependentCopy(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Resolve("visit-1")

	got, err := r.WithSession(id, func(c *Consultation) error {
		c.Symptoms = []string{"cough"}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	got.Symptoms[0] = "mutated"

	stored, _ := r.Get(id)
	if stored.Symptoms[0] != "cough" {
		t.Fatal("returned copy aliases registry state")
	}
}

func TestConcurrentAppendsAllLand(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Resolve("visit-1")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := r.Append(id, fmt.Sprintf("line %d", i)); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	c, _ := r.Get(id)
	lines := strings.Split(c.RawTranscript, "\n")
	if len(lines) != n {
		t.Fatalf("got %d transcript lines, want %d", len(lines), n)
	}
}

func TestConcurrentSessionsDoNotCross(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Resolve("visit-a")
	b, _ := r.Resolve("visit-b")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Append(a, "a")
			r.Append(b, "b")
		}()
	}
	wg.Wait()

	ca, _ := r.Get(a)
	if strings.Contains(ca.RawTranscript, "b") {
		t.Fatal("session a transcript contains session b text")
	}
	cb, _ := r.Get(b)
	if strings.Contains(cb.RawTranscript, "a") {
		t.Fatal("session b transcript contains session a text")
	}
}
