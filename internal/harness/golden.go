package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Render writes a result as the text stored in golden files: one block
// per case with the query, then either the error or the WHERE predicate
// and its parameters.
func Render(result *Result) ([]byte, error) {
	blocks := make([]string, 0, len(result.Cases))
	for _, cr := range result.Cases {
		var buf strings.Builder
		fmt.Fprintf(&buf, "== %s\n", cr.Name)
		fmt.Fprintf(&buf, "query:  %s\n", cr.Query)
		if cr.ErrorType != "" {
			if cr.Field != "" {
				fmt.Fprintf(&buf, "error:  %s (field=%s)\n", cr.ErrorType, cr.Field)
			} else {
				fmt.Fprintf(&buf, "error:  %s\n", cr.ErrorType)
			}
			blocks = append(blocks, buf.String())
			continue
		}
		params, err := normalizeParams(cr.Params)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", cr.Name, err)
		}
		fmt.Fprintf(&buf, "where:  %s\n", cr.Where)
		fmt.Fprintf(&buf, "params: %s\n", params)
		if cr.Recovered {
			buf.WriteString("recovered\n")
		}
		blocks = append(blocks, buf.String())
	}
	return []byte(strings.Join(blocks, "\n")), nil
}

// RunWithGolden executes a scenario and compares the rendered plans
// against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	out, err := Render(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, out)

	return nil
}
