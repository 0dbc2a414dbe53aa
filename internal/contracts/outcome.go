package contracts

// Outcome classifies what happened to one candidate inside an enrichment stage
type Outcome string

const (
	OutcomePassed   Outcome = "passed"
	OutcomeRejected Outcome = "rejected" // filter predicate said no
	OutcomeSkipped  Outcome = "skipped"  // per-item failure (upstream, missing data)
)

// ItemOutcome records the fate of one candidate in one stage
type ItemOutcome struct {
	Stage   Stage   `json:"stage"`
	Symbol  string  `json:"symbol"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// OutcomeReport aggregates item outcomes for diagnostics
type OutcomeReport struct {
	Items []ItemOutcome `json:"items,omitempty"`
}

// Add appends an outcome
func (r *OutcomeReport) Add(o ItemOutcome) {
	r.Items = append(r.Items, o)
}

// Count returns how many items in stage ended with outcome
func (r *OutcomeReport) Count(stage Stage, outcome Outcome) int {
	n := 0
	for _, it := range r.Items {
		if it.Stage == stage && it.Outcome == outcome {
			n++
		}
	}
	return n
}

// ForSymbol returns every recorded outcome for symbol, in stage order
func (r *OutcomeReport) ForSymbol(symbol string) []ItemOutcome {
	var out []ItemOutcome
	for _, it := range r.Items {
		if it.Symbol == symbol {
			out = append(out, it)
		}
	}
	return out
}
