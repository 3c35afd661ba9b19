package interaction

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newGraphServer(t *testing.T, ids map[string]string, groupsJSON string) (*httptest.Server, *int32) {
	t.Helper()
	var mu sync.Mutex
	interactionCalls := new(int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.URL.Path {
		case "/resolve":
			name := r.URL.Query().Get("name")
			id, ok := ids[name]
			if !ok {
				http.Error(w, "unknown drug", http.StatusNotFound)
				return
			}
			fmt.Fprintf(w, `{"id":%q}`, id)
		case "/interactions":
			*interactionCalls++
			fmt.Fprint(w, groupsJSON)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, interactionCalls
}

func TestGraphSourceMapsSeverities(t *testing.T) {
	groups := `{"interaction_groups":[
		{"severity":"high","pairs":[{"a":"warfarin","b":"aspirin","description":"bleeding risk","recommendation":"avoid"}]},
		{"severity":"low","pairs":[{"a":"warfarin","b":"omeprazole","description":"inr drift"}]},
		{"severity":"N/A","pairs":[{"a":"aspirin","b":"omeprazole","description":"unknown class"}]}
	]}`
	srv, _ := newGraphServer(t, map[string]string{
		"warfarin": "11289", "aspirin": "1191", "omeprazole": "7646",
	}, groups)

	src := NewGraphSource(srv.URL, zerolog.Nop())
	found, err := src.Find(context.Background(), []string{"warfarin", "aspirin", "omeprazole"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("expected 3 interactions, got %d", len(found))
	}
	want := map[string]Severity{
		"bleeding risk": SeverityMajor,
		"inr drift":     SeverityMinor,
		"unknown class": SeverityModerate,
	}
	for _, d := range found {
		if d.Severity != want[d.Description] {
			t.Errorf("%q severity = %s, want %s", d.Description, d.Severity, want[d.Description])
		}
	}
}

func TestGraphSourceSkipsUnresolvableNames(t *testing.T) {
	srv, calls := newGraphServer(t, map[string]string{"warfarin": "11289"}, `{"interaction_groups":[]}`)

	src := NewGraphSource(srv.URL, zerolog.Nop())
	found, err := src.Find(context.Background(), []string{"warfarin", "notadrug"})
	if err != nil {
		t.Fatalf("Find should tolerate partial resolution, got %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no interactions, got %d", len(found))
	}
	if *calls != 0 {
		t.Error("batch query must be skipped with fewer than two resolved ids")
	}
}

func TestGraphSourceBatchQueryOnce(t *testing.T) {
	srv, calls := newGraphServer(t, map[string]string{
		"a": "1", "b": "2", "c": "3",
	}, `{"interaction_groups":[]}`)

	src := NewGraphSource(srv.URL, zerolog.Nop())
	if _, err := src.Find(context.Background(), []string{"a", "b", "c"}); err != nil {
		t.Fatalf("Find: %v", err)
	}
	if *calls != 1 {
		t.Errorf("expected exactly one batch interaction query, got %d", *calls)
	}
}

func TestGraphSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewGraphSource(srv.URL, zerolog.Nop())
	found, err := src.Find(context.Background(), []string{"warfarin", "aspirin"})
	// All resolutions fail, so there is nothing to query and no data.
	if err != nil {
		t.Fatalf("resolution failures must degrade to no data, got %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no data, got %d interactions", len(found))
	}
}

func TestGraphSourceResolvesConcurrently(t *testing.T) {
	// Every resolution blocks until two are in flight at once. Serial
	// resolution would deadlock here; the timeout turns that into a failure.
	var mu sync.Mutex
	inFlight := 0
	timeouts := 0
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resolve" {
			fmt.Fprint(w, `{"interaction_groups":[]}`)
			return
		}
		mu.Lock()
		inFlight++
		if inFlight == 2 {
			close(gate)
		}
		mu.Unlock()

		select {
		case <-gate:
		case <-time.After(2 * time.Second):
			mu.Lock()
			timeouts++
			mu.Unlock()
			http.Error(w, "no concurrent resolution observed", http.StatusRequestTimeout)
			return
		}
		fmt.Fprintf(w, `{"id":"id-%s"}`, r.URL.Query().Get("name"))
	}))
	defer srv.Close()

	src := NewGraphSource(srv.URL, zerolog.Nop(), WithGraphConcurrency(4))
	if _, err := src.Find(context.Background(), []string{"warfarin", "aspirin"}); err != nil {
		t.Fatalf("Find: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if timeouts != 0 {
		t.Error("resolutions ran serially")
	}
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
	hits int
}

func (m *mapCache) Get(_ context.Context, name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.data[name]
	if ok {
		m.hits++
	}
	return id, ok
}

func (m *mapCache) Set(_ context.Context, name, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = id
}

func TestGraphSourceUsesResolveCache(t *testing.T) {
	var mu sync.Mutex
	resolveCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/resolve" {
			mu.Lock()
			resolveCalls++
			mu.Unlock()
			fmt.Fprintf(w, `{"id":"id-%s"}`, r.URL.Query().Get("name"))
			return
		}
		fmt.Fprint(w, `{"interaction_groups":[]}`)
	}))
	defer srv.Close()

	cache := &mapCache{data: map[string]string{}}
	src := NewGraphSource(srv.URL, zerolog.Nop(), WithResolveCache(cache))
	ctx := context.Background()

	if _, err := src.Find(ctx, []string{"warfarin", "aspirin"}); err != nil {
		t.Fatalf("Find: %v", err)
	}
	if _, err := src.Find(ctx, []string{"warfarin", "aspirin"}); err != nil {
		t.Fatalf("Find: %v", err)
	}
	if resolveCalls != 2 {
		t.Errorf("expected 2 resolve calls (second run cached), got %d", resolveCalls)
	}
	if cache.hits != 2 {
		t.Errorf("expected 2 cache hits on the second run, got %d", cache.hits)
	}
}
