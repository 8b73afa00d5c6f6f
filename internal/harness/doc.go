// Package harness provides conformance testing for the translation engine.
//
// A scenario parses a script, applies a list of structural edits through the
// graph package, regenerates the code and checks the result against
// assertions and an optional golden file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	source: |
//	  wait(1);
//	  click("#ok");
//	steps:
//	  - op: insert
//	    parent: root
//	    slot: body
//	    index: 1
//	    new: { kind: log-call, data: { message: "hi" } }
//	  - op: move
//	    block: body[0]
//	    parent: root
//	    slot: body
//	    index: 99
//	  - op: remove
//	    block: body[5]
//	    expect_error: BLOCK_NOT_FOUND
//	assertions:
//	  - type: code_contains
//	    text: 'log("hi");'
//	  - type: round_trip
//
// source_file may replace source; it is resolved relative to the scenario.
//
// # Block References
//
// A step names blocks either by id or by path. "root" is the program block.
// A path walks child slots from the root: "body[1].consequent[0]" is the first
// block in the consequent of the second statement. Parsed ids are assigned
// from a sequential source ("b-1" is the document, "b-2" the root), so ids are
// stable too, but paths survive edits to the source text.
//
// # Determinism
//
// Ids come from testutil.SequentialIDs and timestamps from
// testutil.DeterministicClock, so two runs of a scenario produce the same
// document, code and version history.
//
// # Golden Files
//
// RunWithGolden compares the generated code with
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
