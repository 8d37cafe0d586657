// Package harness runs YAML selection scenarios end to end.
//
// Each scenario seeds a fresh in-memory store, mounts a session.Controller
// on it, and drives the list through the scenario's steps: page navigation,
// toggles, page and bulk commands, collection resizes, injected fetch
// failures and retries. Every step appends a TraceEvent, so a run can be
// compared byte for byte against a golden file.
//
// Determinism comes from testutil: a StepClock numbers the steps and a
// SequenceGenerator issues the request ids.
//
// Scenario format:
//
//	name: select_all_then_exclude
//	description: SELECT_ALL followed by one toggle excludes one record
//	total: 1000
//	page_size: 12
//	steps:
//	  - do: select_all
//	  - do: toggle
//	    id: "7"
//	    expect: {count: 999}
//	assertions:
//	  - type: not_selected
//	    ids: ["7"]
//	  - type: descriptor
//	    descriptor: {mode: ALL, excludedIds: ["7"]}
//
// The resolved assertion evaluates the final descriptor against the store
// and checks it matches the engine's selected count.
package harness
