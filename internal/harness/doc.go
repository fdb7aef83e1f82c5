// Package harness runs query conformance scenarios.
//
// A scenario is a YAML file naming a schema snapshot and a list of cases.
// Each case is a query string plus optional sort arguments, and the
// expectations the resulting Plan must meet:
//
//	name: datasets_basic
//	description: Core operators against the datasets fixture
//	schema: ../schema.yaml
//	cases:
//	  - name: status_active
//	    query: status=active
//	    where: d.status ILIKE $1
//	    params: [active]
//	  - query: colour=red
//	    error_type: invalid_field
//
// Run plans every case with a fresh Planner built from the snapshot, so
// scenarios never touch a database. RunWithGolden additionally compares
// the rendered WHERE clauses and parameters against a goldie file, which
// catches drift in cases whose expectations are only partial.
package harness
