// Package interact arbitrates pointer and keyboard input on an organigram
// canvas.
//
// A [Controller] is a finite state machine with five modes: idle, panning,
// dragging blocks, dragging a new connection and rubber-band selecting.
// Exactly one mode is active at a time. The active mode is a single tagged
// value, not a set of flags, so a move event always reaches exactly one
// handler and gestures never interleave.
//
// Pointer events carry screen coordinates and the [Target] under the
// pointer, usually found with [HitTest]. The controller converts to world
// coordinates through its [Viewport] and turns gestures into calls on its
// [Graph]: batched moves, new connections and selection changes.
//
// # Transitions
//
//	idle --middle button, or primary with space held--> panning
//	idle --primary on empty canvas--> selecting (selection cleared)
//	idle --primary on block body--> dragging blocks
//	idle --primary on handle--> dragging connection
//	any  --pointer up--> idle
//
// Dragging moves every selected block by (current - start) / zoom from
// positions captured at press time, one batched move per event. A press
// and release with no motion in between selects just the pressed block.
// Grid snapping, when enabled, applies only to the final position.
package interact
