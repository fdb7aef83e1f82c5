package harness

// CaseResult is what the planner produced for one case.
type CaseResult struct {
	Name      string `json:"name"`
	Query     string `json:"query"`
	CountSQL  string `json:"count_sql,omitempty"`
	SearchSQL string `json:"search_sql,omitempty"`
	Where     string `json:"where,omitempty"`
	Params    []any  `json:"params,omitempty"`
	Recovered bool   `json:"recovered,omitempty"`

	// ErrorType and Error are set when planning failed.
	ErrorType string `json:"error_type,omitempty"`
	Field     string `json:"field,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every case met its expectations.
	Pass bool `json:"pass"`

	// Cases holds one entry per scenario case, in order.
	Cases []CaseResult `json:"cases"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
