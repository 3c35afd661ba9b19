package interaction

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// GraphSource queries an external pairwise-interaction graph. Each medication
// name is first resolved to the service's normalized drug identifier (one
// call per name, best-effort); when at least two identifiers resolve, a
// single batch interaction query is issued for the whole set.
type GraphSource struct {
	baseURL     string
	httpClient  *http.Client
	cache       ResolveCache
	concurrency int
	logger      zerolog.Logger
}

// GraphOption configures a GraphSource.
type GraphOption func(*GraphSource)

// WithGraphHTTPClient overrides the default HTTP client.
func WithGraphHTTPClient(c *http.Client) GraphOption {
	return func(s *GraphSource) { s.httpClient = c }
}

// WithResolveCache installs a cache for name→identifier resolution.
func WithResolveCache(c ResolveCache) GraphOption {
	return func(s *GraphSource) { s.cache = c }
}

// WithGraphConcurrency bounds the number of simultaneous name resolutions.
func WithGraphConcurrency(n int) GraphOption {
	return func(s *GraphSource) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewGraphSource creates a GraphSource with an 8 second client timeout and 4
// concurrent name resolutions.
func NewGraphSource(baseURL string, logger zerolog.Logger, opts ...GraphOption) *GraphSource {
	s := &GraphSource{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 8 * time.Second},
		concurrency: 4,
		logger:      logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *GraphSource) Name() string { return "interaction-graph" }

type resolveResponse struct {
	ID string `json:"id"`
}

type graphResponse struct {
	InteractionGroups []struct {
		Severity string `json:"severity"`
		Pairs    []struct {
			A              string `json:"a"`
			B              string `json:"b"`
			Description    string `json:"description"`
			Recommendation string `json:"recommendation"`
		} `json:"pairs"`
	} `json:"interaction_groups"`
}

// mapGraphSeverity maps the external high|low vocabulary onto the canonical
// one. Anything unrecognized lands in the moderate bucket.
func mapGraphSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "high":
		return SeverityMajor
	case "low":
		return SeverityMinor
	default:
		return SeverityModerate
	}
}

// Find resolves each name and issues one batch query. Resolutions are
// independent and failure-isolated, so they fan out with bounded concurrency;
// names that fail to resolve are skipped. Fewer than two resolved identifiers
// means no data.
func (s *GraphSource) Find(ctx context.Context, names []string) ([]DrugInteraction, error) {
	resolved := make([]string, len(names))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			id, err := s.resolve(ctx, name)
			if err != nil {
				s.logger.Warn().Err(err).Str("source", s.Name()).Str("drug", name).
					Msg("identifier resolution failed, skipping")
				return
			}
			resolved[i] = id
		}(i, name)
	}
	wg.Wait()

	var ids []string
	for _, id := range resolved {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) < 2 {
		return nil, nil
	}

	u := fmt.Sprintf("%s/interactions?ids=%s", s.baseURL, url.QueryEscape(strings.Join(ids, ",")))
	var parsed graphResponse
	if err := s.getJSON(ctx, u, &parsed); err != nil {
		return nil, fmt.Errorf("interaction graph query: %w", err)
	}

	var found []DrugInteraction
	for _, group := range parsed.InteractionGroups {
		severity := mapGraphSeverity(group.Severity)
		for _, p := range group.Pairs {
			found = append(found, DrugInteraction{
				DrugA:       p.A,
				DrugB:       p.B,
				Severity:    severity,
				Description: p.Description,
				Action:      p.Recommendation,
				Source:      s.Name(),
			})
		}
	}
	return found, nil
}

// resolve maps a free-text name to the graph service's drug identifier,
// consulting the cache first. An empty identifier with nil error means the
// service does not know the name.
func (s *GraphSource) resolve(ctx context.Context, name string) (string, error) {
	if s.cache != nil {
		if id, ok := s.cache.Get(ctx, name); ok {
			return id, nil
		}
	}

	u := fmt.Sprintf("%s/resolve?name=%s", s.baseURL, url.QueryEscape(name))
	var parsed resolveResponse
	if err := s.getJSON(ctx, u, &parsed); err != nil {
		return "", err
	}

	if s.cache != nil && parsed.ID != "" {
		s.cache.Set(ctx, name, parsed.ID)
	}
	return parsed.ID, nil
}

func (s *GraphSource) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-2xx response: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
