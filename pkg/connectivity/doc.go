// Package connectivity turns a netlist into a connectivity graph.
//
// [Build] walks a [netlist.Provider] in two passes. The vertex pass adds one
// vertex per instance and then one per boundary pin, indexing them by name.
// The net pass classifies every non-special net into a single driver and its
// loads and emits one driver→load edge per distinct load.
//
// # Driver Rule
//
// Only two kinds of terminal drive a net:
//
//   - an instance terminal with direction OUTPUT (a cell output), and
//   - a boundary terminal with direction INPUT (a signal entering the chip).
//
// Everything else, including INOUT terminals, is a load. A net with no driver
// is an "unconnected net"; a net with more than one is an "ambiguous driver".
// Both are structural violations. A terminal naming an element that has no
// vertex is a referential-integrity violation. See [errors.NetError].
//
// # Policies
//
// With [FailFast] (the default) the first violation aborts the build and no
// graph is returned. With [SkipInvalid] violating nets are recorded in
// [Result.Violations] and contribute no edges. Name collisions and provider
// failures abort under both policies.
//
// # Ordering
//
// Vertices follow provider order (instances, then pins) and edges follow net
// order, then load order within a net. [Options.Canonical] sorts instances,
// pins and nets by name first. Building the same netlist twice yields the same
// graph, and [Options.Workers] does not change the result.
package connectivity
