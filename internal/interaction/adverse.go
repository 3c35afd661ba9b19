package interaction

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// AdverseEventSource is the last-resort adapter: it searches an external
// adverse-event database for reports that mention both drugs of a pair and
// synthesizes an interaction when serious events exist. It only runs when the
// other sources returned nothing.
type AdverseEventSource struct {
	baseURL     string
	httpClient  *http.Client
	concurrency int
	logger      zerolog.Logger
}

// AdverseOption configures an AdverseEventSource.
type AdverseOption func(*AdverseEventSource)

// WithAdverseHTTPClient overrides the default HTTP client.
func WithAdverseHTTPClient(c *http.Client) AdverseOption {
	return func(s *AdverseEventSource) { s.httpClient = c }
}

// WithConcurrency bounds the number of simultaneous pair lookups.
func WithConcurrency(n int) AdverseOption {
	return func(s *AdverseEventSource) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewAdverseEventSource creates an AdverseEventSource with an 8 second client
// timeout and 4 concurrent pair lookups.
func NewAdverseEventSource(baseURL string, logger zerolog.Logger, opts ...AdverseOption) *AdverseEventSource {
	s := &AdverseEventSource{
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

func (s *AdverseEventSource) Name() string { return "adverse-events" }

type adverseEvent struct {
	Serious                   bool     `json:"serious"`
	SeriousnessDeath          bool     `json:"seriousness_death"`
	SeriousnessHospitalization bool    `json:"seriousness_hospitalization"`
	Reactions                 []string `json:"reactions"`
}

type adverseResponse struct {
	Results []adverseEvent `json:"results"`
}

// Find fans out one search per medication pair with bounded concurrency.
// Pair lookups are independent and failure-isolated: a failed pair
// contributes nothing while the rest still count.
func (s *AdverseEventSource) Find(ctx context.Context, names []string) ([]DrugInteraction, error) {
	pairList := pairs(names)
	if len(pairList) == 0 {
		return nil, nil
	}

	type pairOutcome struct {
		interaction *DrugInteraction
		err         error
	}

	outcomes := make([]pairOutcome, len(pairList))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, pair := range pairList {
		wg.Add(1)
		go func(i int, a, b string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			di, err := s.checkPair(ctx, a, b)
			outcomes[i] = pairOutcome{interaction: di, err: err}
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	var found []DrugInteraction
	var errs error
	for i, out := range outcomes {
		if out.err != nil {
			s.logger.Warn().Err(out.err).Str("source", s.Name()).
				Str("drug_a", pairList[i][0]).Str("drug_b", pairList[i][1]).
				Msg("adverse event lookup failed")
			errs = multierr.Append(errs, out.err)
			continue
		}
		if out.interaction != nil {
			found = append(found, *out.interaction)
		}
	}

	// Partial data beats no data: only surface failure when every pair failed.
	if len(found) == 0 && errs != nil {
		return nil, errs
	}
	return found, nil
}

// checkPair queries events mentioning both drugs and synthesizes an
// interaction when at least one serious event is reported. Any death report
// escalates the synthesized severity to major.
func (s *AdverseEventSource) checkPair(ctx context.Context, a, b string) (*DrugInteraction, error) {
	u := fmt.Sprintf("%s/events?drug_a=%s&drug_b=%s&limit=25",
		s.baseURL, url.QueryEscape(a), url.QueryEscape(b))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("non-2xx response: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var parsed adverseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	var serious int
	var anyDeath bool
	reactionCounts := map[string]int{}
	for _, ev := range parsed.Results {
		if !ev.Serious {
			continue
		}
		serious++
		if ev.SeriousnessDeath {
			anyDeath = true
		}
		for _, r := range ev.Reactions {
			r = strings.ToLower(strings.TrimSpace(r))
			if r != "" {
				reactionCounts[r]++
			}
		}
	}
	if serious == 0 {
		return nil, nil
	}

	severity := SeverityModerate
	if anyDeath {
		severity = SeverityMajor
	}

	return &DrugInteraction{
		DrugA:    a,
		DrugB:    b,
		Severity: severity,
		Description: fmt.Sprintf(
			"%d serious adverse event report(s) mention both drugs. Most reported reactions: %s.",
			serious, strings.Join(topReactions(reactionCounts, 3), ", ")),
		Action: "Review adverse event reports and consider alternatives or closer monitoring.",
		Source: s.Name(),
	}, nil
}

// topReactions returns the n most frequent reaction terms, deduplicated, ties
// broken alphabetically for stable output.
func topReactions(counts map[string]int, n int) []string {
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}
