package interaction

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// Source is one lookup strategy for candidate interactions. Implementations
// report lookup failures as errors; the Checker treats a failed source as "no
// data from this source" and never surfaces the error to callers.
type Source interface {
	Name() string
	Find(ctx context.Context, names []string) ([]DrugInteraction, error)
}

// Checker aggregates the source chain: the curated internal table and the
// interaction graph always run; the adverse-event search runs only when both
// came back empty. Results are deduplicated by unordered normalized pair.
type Checker struct {
	knowledge Source
	graph     Source
	adverse   Source
	logger    zerolog.Logger
}

// NewChecker wires the source chain. graph and adverse may be nil when the
// corresponding external service is not configured.
func NewChecker(knowledge, graph, adverse Source, logger zerolog.Logger) *Checker {
	return &Checker{knowledge: knowledge, graph: graph, adverse: adverse, logger: logger}
}

// Check computes the aggregate interaction verdict for a medication list.
// Fewer than two medications short-circuits without consulting any source.
func (c *Checker) Check(ctx context.Context, meds []Medication) InteractionResult {
	names := joinNames(meds)
	if len(names) < 2 {
		return InteractionResult{
			Status:       StatusNoMajor,
			Message:      "At least two medications are required to check for interactions.",
			Interactions: []DrugInteraction{},
		}
	}

	var all []DrugInteraction
	var sourceErrs error
	sourcesTried := 0

	run := func(src Source) {
		if src == nil {
			return
		}
		sourcesTried++
		found, err := src.Find(ctx, names)
		if err != nil {
			c.logger.Warn().Err(err).Str("source", src.Name()).
				Msg("interaction source failed, continuing without it")
			sourceErrs = multierr.Append(sourceErrs, fmt.Errorf("%s: %w", src.Name(), err))
			return
		}
		all = append(all, found...)
	}

	run(c.knowledge)
	run(c.graph)
	// Last resort, consulted only on emptiness.
	if len(all) == 0 {
		run(c.adverse)
	}

	deduped := dedupe(all)
	result := verdict(deduped)

	// Every source failed and nothing was found: the default negative is a
	// low-confidence guess, not a confirmed all-clear.
	failed := len(multierr.Errors(sourceErrs))
	if len(deduped) == 0 && sourcesTried > 0 && failed == sourcesTried {
		result.Degraded = true
		c.logger.Warn().Int("sources_failed", failed).
			Msg("all interaction sources failed; returning low-confidence default")
	}
	return result
}

// dedupe keeps the first-seen record per unordered normalized pair. Metadata
// is not merged across sources: first result wins.
func dedupe(list []DrugInteraction) []DrugInteraction {
	seen := map[string]bool{}
	out := make([]DrugInteraction, 0, len(list))
	for _, d := range list {
		key := d.PairKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

// verdict computes the overall status by severity precedence and builds the
// summary message with the count at the triggering tier.
func verdict(list []DrugInteraction) InteractionResult {
	if len(list) == 0 {
		return InteractionResult{
			Status:       StatusNoMajor,
			Message:      "No significant drug interactions detected.",
			Interactions: []DrugInteraction{},
		}
	}

	counts := map[Severity]int{}
	for _, d := range list {
		counts[d.Severity]++
	}

	switch {
	case counts[SeverityContraindicated] > 0:
		return InteractionResult{
			Status: StatusCritical,
			Message: fmt.Sprintf("%d contraindicated drug combination(s) found. Immediate review required.",
				counts[SeverityContraindicated]),
			Interactions: list,
		}
	case counts[SeverityMajor] > 0:
		return InteractionResult{
			Status: StatusMajor,
			Message: fmt.Sprintf("%d major drug interaction(s) found. Clinical review recommended.",
				counts[SeverityMajor]),
			Interactions: list,
		}
	default:
		return InteractionResult{
			Status: StatusMinor,
			Message: fmt.Sprintf("%d minor or moderate drug interaction(s) found.",
				counts[SeverityMinor]+counts[SeverityModerate]),
			Interactions: list,
		}
	}
}
