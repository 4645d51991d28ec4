package chart

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/organigram/pkg/errors"
)

// Structural problems reported by Validate.
var (
	ErrUnknownNode   = stderrors.New("connection references unknown block")
	ErrDuplicateNode = stderrors.New("duplicate block id")
	ErrSelfLoop      = stderrors.New("connection from a block to itself")
	ErrDuplicateEdge = stderrors.New("duplicate connection")
)

var validate = validator.New()

// Validate checks field constraints and the structural invariants the
// editing core relies on: unique block ids, connections between existing
// distinct blocks and at most one connection per (from, to) pair.
//
// All problems are joined into one INVALID_CHART error.
func Validate(c *Chart) error {
	var problems []error
	if err := validate.Struct(c); err != nil {
		problems = append(problems, formatValidationError(err))
	}

	seen := make(map[NodeID]bool, len(c.Blocks))
	for _, n := range c.Blocks {
		if seen[n.ID] {
			problems = append(problems, fmt.Errorf("%w: %d", ErrDuplicateNode, n.ID))
		}
		seen[n.ID] = true
	}

	pairs := make(map[[2]NodeID]bool, len(c.Connections))
	for _, e := range c.Connections {
		switch {
		case !seen[e.From] || !seen[e.To]:
			problems = append(problems, fmt.Errorf("%w: %d->%d", ErrUnknownNode, e.From, e.To))
		case e.From == e.To:
			problems = append(problems, fmt.Errorf("%w: %d", ErrSelfLoop, e.From))
		case pairs[[2]NodeID{e.From, e.To}]:
			problems = append(problems, fmt.Errorf("%w: %d->%d", ErrDuplicateEdge, e.From, e.To))
		}
		pairs[[2]NodeID{e.From, e.To}] = true
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.Wrap(errors.ErrCodeInvalidChart, stderrors.Join(problems...), "chart %s", c.ID)
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return stderrors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Report lists what Repair changed.
type Report struct {
	Renumbered   map[NodeID]NodeID // duplicated id -> last id assigned to a copy
	DroppedEdges []Edge
	ClearedColor []NodeID
	FixedSides   int
}

// Changed reports whether Repair modified the chart.
func (r Report) Changed() bool {
	return len(r.Renumbered) > 0 || len(r.DroppedEdges) > 0 || len(r.ClearedColor) > 0 || r.FixedSides > 0
}

// Repair fixes c in place so that it passes the structural checks of
// Validate. Blocks with a repeated id get fresh ids; connections that
// reference unknown blocks, loop or repeat are dropped; invalid sides and
// colors are reset.
func Repair(c *Chart) Report {
	rep := Report{Renumbered: map[NodeID]NodeID{}}
	if c.ID == "" {
		c.ID = NewID()
	}

	var next NodeID
	for _, n := range c.Blocks {
		if n.ID >= next {
			next = n.ID + 1
		}
	}
	seen := make(map[NodeID]bool, len(c.Blocks))
	for i := range c.Blocks {
		n := &c.Blocks[i]
		if seen[n.ID] {
			rep.Renumbered[n.ID] = next
			n.ID = next
			next++
		}
		seen[n.ID] = true
		if n.Color != "" && validate.Var(n.Color, "hexcolor") != nil {
			n.Color = ""
			rep.ClearedColor = append(rep.ClearedColor, n.ID)
		}
	}

	pairs := make(map[[2]NodeID]bool, len(c.Connections))
	kept := c.Connections[:0]
	for _, e := range c.Connections {
		key := [2]NodeID{e.From, e.To}
		if !seen[e.From] || !seen[e.To] || e.From == e.To || pairs[key] {
			rep.DroppedEdges = append(rep.DroppedEdges, e)
			continue
		}
		pairs[key] = true
		if e.FromSide != "" && !e.FromSide.Valid() {
			e.FromSide = SideBottom
			rep.FixedSides++
		}
		if e.ToSide != "" && !e.ToSide.Valid() {
			e.ToSide = SideTop
			rep.FixedSides++
		}
		kept = append(kept, e)
	}
	c.Connections = kept
	if c.Connections == nil {
		c.Connections = []Edge{}
	}
	if c.Blocks == nil {
		c.Blocks = []Node{}
	}
	return rep
}
