package harness

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Expectation that failed, e.g. "where_contains"
	Expected string
	Actual   string
	Query    string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Query: %s\n", e.Query)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// EvaluateCase checks a case's expectations against what the planner
// produced and returns one message per failed expectation.
func EvaluateCase(c Case, cr CaseResult) []string {
	var errs []string
	fail := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if c.ErrorType != "" {
		fail(assertErrorType(c, cr))
		return errs
	}
	if cr.Error != "" {
		return []string{(&AssertionError{
			Type:     "no_error",
			Expected: "a plan",
			Actual:   cr.Error,
			Query:    cr.Query,
		}).Error()}
	}

	fail(assertWhere(c, cr))
	for _, sub := range c.WhereContains {
		fail(assertWhereContains(sub, cr))
	}
	fail(assertOrderBy(c, cr))
	fail(assertParams(c, cr))
	fail(assertRecovered(c, cr))
	return errs
}

func assertErrorType(c Case, cr CaseResult) error {
	if cr.ErrorType == c.ErrorType {
		return nil
	}
	actual := "no error"
	if cr.Error != "" {
		actual = cr.ErrorType + ": " + cr.Error
	}
	return &AssertionError{Type: "error_type", Expected: c.ErrorType, Actual: actual, Query: cr.Query}
}

func assertWhere(c Case, cr CaseResult) error {
	if c.Where == "" || c.Where == cr.Where {
		return nil
	}
	return &AssertionError{Type: "where", Expected: c.Where, Actual: cr.Where, Query: cr.Query}
}

func assertWhereContains(sub string, cr CaseResult) error {
	if strings.Contains(cr.Where, sub) {
		return nil
	}
	return &AssertionError{
		Type:     "where_contains",
		Expected: fmt.Sprintf("WHERE containing %q", sub),
		Actual:   cr.Where,
		Query:    cr.Query,
	}
}

func assertOrderBy(c Case, cr CaseResult) error {
	if c.OrderBy == "" {
		return nil
	}
	_, order, _ := strings.Cut(cr.SearchSQL, " ORDER BY ")
	if strings.Contains(order, c.OrderBy) {
		return nil
	}
	return &AssertionError{
		Type:     "order_by",
		Expected: fmt.Sprintf("ORDER BY containing %q", c.OrderBy),
		Actual:   order,
		Query:    cr.Query,
	}
}

func assertParams(c Case, cr CaseResult) error {
	if c.Params == nil {
		return nil
	}
	want, err := normalizeParams(c.Params)
	if err != nil {
		return fmt.Errorf("encode expected params: %w", err)
	}
	got, err := normalizeParams(cr.Params)
	if err != nil {
		return fmt.Errorf("encode actual params: %w", err)
	}
	if want == got {
		return nil
	}
	return &AssertionError{Type: "params", Expected: want, Actual: got, Query: cr.Query}
}

func assertRecovered(c Case, cr CaseResult) error {
	if c.Recovered == nil || *c.Recovered == cr.Recovered {
		return nil
	}
	return &AssertionError{
		Type:     "recovered",
		Expected: fmt.Sprint(*c.Recovered),
		Actual:   fmt.Sprint(cr.Recovered),
		Query:    cr.Query,
	}
}

// normalizeParams encodes params as a JSON array so YAML ints, Go int64s
// and time.Time values compare by their rendered form.
func normalizeParams(params []any) (string, error) {
	if params == nil {
		params = []any{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
