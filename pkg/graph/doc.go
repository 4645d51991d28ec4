// Package graph holds the editable state of one open organigram.
//
// A [Model] owns the blocks and connections of a single chart, the current
// selection and a side table of rendered block sizes. It is the only writer
// of that state: the interaction controller, the layout pass and the block
// editor all go through its methods.
//
// # Invariants
//
//   - Block ids are unique; new ids are one past the largest id in use.
//   - At most one connection exists per (parent, child) pair and no
//     connection joins a block to itself.
//   - Deleting a block deletes every connection touching it and drops it
//     from the selection and the size table.
//   - The selection is either a set of blocks or a single connection,
//     never both.
//
// Operations that name a missing block, repeat an existing connection or
// describe degenerate input are silent no-ops reported through a false or
// zero return value. Nothing here returns an error.
//
// # Change Notification
//
// Every applied mutation bumps [Model.Version] once and delivers exactly one
// [Change] to subscribers, including batched moves of many blocks. No-ops
// deliver nothing. Measured sizes are derived from rendering and do not count
// as mutations.
//
//	m := graph.FromChart(c)
//	unsubscribe := m.Subscribe(func(ch graph.Change) { redraw() })
//	defer unsubscribe()
//
// The model is not safe for concurrent use. It is driven from a single event
// loop, the same way a canvas UI dispatches pointer events.
package graph
