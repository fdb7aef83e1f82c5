package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/gclql/internal/querysql"
	"github.com/roach88/gclql/internal/schema"
)

// Harness plans scenario cases against one schema snapshot.
type Harness struct {
	planner *querysql.Planner
	logger  *slog.Logger
}

// New builds a Harness over the scenario's schema snapshot.
func New(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Harness, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	provider := schema.NewProvider(schema.DefaultOptions())
	if _, err := provider.Refresh(ctx, schema.FileSource{Path: scenario.Schema}); err != nil {
		return nil, fmt.Errorf("load scenario schema: %w", err)
	}

	var opts []querysql.Option
	if scenario.SimilarityThreshold > 0 {
		opts = append(opts, querysql.WithSimilarityThreshold(scenario.SimilarityThreshold))
	}
	return &Harness{
		planner: querysql.NewPlanner(provider, opts...),
		logger:  logger,
	}, nil
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load the schema snapshot and publish it to a fresh Provider
// 2. Plan every case in order
// 3. Evaluate each case's expectations
//
// A case whose planning fails is not a Run error: the failure is recorded
// in its CaseResult and checked against error_type.
func Run(scenario *Scenario) (*Result, error) {
	h, err := New(context.Background(), scenario, nil)
	if err != nil {
		return nil, err
	}
	return h.Run(scenario), nil
}

// Run plans and checks every case of scenario.
func (h *Harness) Run(scenario *Scenario) *Result {
	result := NewResult()
	for i, c := range scenario.Cases {
		cr := h.Plan(c, i)
		result.Cases = append(result.Cases, cr)

		for _, msg := range EvaluateCase(c, cr) {
			result.AddError(fmt.Sprintf("%s: %s", cr.Name, msg))
		}
		h.logger.Info("case planned",
			"scenario", scenario.Name,
			"case", cr.Name,
			"recovered", cr.Recovered,
			"error_type", cr.ErrorType,
		)
	}
	return result
}

// Plan runs one case through the planner.
func (h *Harness) Plan(c Case, index int) CaseResult {
	cr := CaseResult{Name: c.Label(index), Query: c.Query}

	plan, err := h.planner.ParseQuery(c.Query, c.SortBy, c.SortOrder)
	if err != nil {
		cr.Error = err.Error()
		cr.ErrorType = errorType(err)
		if qe, ok := querysql.AsError(err); ok {
			cr.Field = qe.FieldName
		}
		return cr
	}

	cr.CountSQL = plan.CountSQL
	cr.SearchSQL = plan.SearchSQL
	cr.Where = plan.Where
	cr.Params = plan.Params
	cr.Recovered = plan.Recovered
	return cr
}

func errorType(err error) string {
	if qe, ok := querysql.AsError(err); ok {
		return string(qe.Type)
	}
	if errors.Is(err, querysql.ErrInvalidSortOrder) {
		return "invalid_sort_order"
	}
	return "error"
}
