// Package harness runs YAML conformance scenarios against an in-process
// agent.
//
// A scenario seeds state, then drives a flow of Set, Get, GetNext, Walk and
// monitor Tick steps. Each step may carry an expect clause; assertions run
// over the resulting trace, the recorded alerts and the final state.
//
//	name: threshold-crossing
//	description: rising edges fire once per crossing
//	setup:
//	  - name: cpuThreshold
//	    value: "80"
//	flow:
//	  - tick: [5, 50, 95, 95, 40, 95]
//	    expect:
//	      fired: 2
//	assertions:
//	  - type: alert_count
//	    traps: 2
//	    messages: 2
//
// Every scenario runs in a fresh temporary database with a manual clock,
// scripted samples and sequential alert IDs, so its trace is deterministic
// and can be pinned with a golden file (see RunWithGolden).
package harness
