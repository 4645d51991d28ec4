package chart

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// NodeID identifies a block within one chart. Ids are stable for the
// lifetime of the chart.
type NodeID int64

// String returns the decimal form of the id.
func (id NodeID) String() string { return strconv.FormatInt(int64(id), 10) }

// Side is the attachment point of a connection on a block.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool { return s == SideTop || s == SideBottom }

// Opposite returns the other side. Unknown sides map to SideTop.
func (s Side) Opposite() Side {
	if s == SideTop {
		return SideBottom
	}
	return SideTop
}

// Role describes where a new block goes relative to an anchor block.
type Role string

const (
	RoleParent Role = "parent" // new block becomes the anchor's parent
	RoleChild  Role = "child"  // new block becomes the anchor's child
)

// Palette is the set of block background colors offered by the editor.
var Palette = []string{
	"#ffffff", "#e3f2fd", "#e8f5e9", "#fff3e0",
	"#fce4ec", "#f3e5f5", "#e0f2f1", "#fff9c4",
}

// DefaultColor is the background of a block with no color set.
const DefaultColor = "#ffffff"

// Payload is the display content of a block as authored in the block editor.
type Payload struct {
	GroupName string `json:"groupName" yaml:"groupName" bson:"groupName" validate:"max=256"`
	Name      string `json:"name" yaml:"name" bson:"name" validate:"max=256"`
	Title     string `json:"title" yaml:"title" bson:"title" validate:"max=256"`
	Comment   string `json:"comment" yaml:"comment" bson:"comment"`
	Image     string `json:"image,omitempty" yaml:"image,omitempty" bson:"image,omitempty"` // data URL, opaque
	Color     string `json:"color,omitempty" yaml:"color,omitempty" bson:"color,omitempty" validate:"omitempty,hexcolor"`
}

// Background returns the block color, falling back to DefaultColor.
func (p Payload) Background() string {
	if p.Color == "" {
		return DefaultColor
	}
	return p.Color
}

// Node is a block: an id, a top-left world position and its payload.
// Rendered size is not part of the record.
type Node struct {
	ID        NodeID  `json:"id" yaml:"id" bson:"id"`
	Payload   `yaml:",inline" bson:",inline"`
	X         float64 `json:"x" yaml:"x" bson:"x"`
	Y         float64 `json:"y" yaml:"y" bson:"y"`
	Collapsed bool    `json:"collapsed,omitempty" yaml:"collapsed,omitempty" bson:"collapsed,omitempty"`
}

// Edge is a directed parent→child connection.
type Edge struct {
	From     NodeID `json:"from" yaml:"from" bson:"from"`
	To       NodeID `json:"to" yaml:"to" bson:"to"`
	FromSide Side   `json:"fromPos,omitempty" yaml:"fromPos,omitempty" bson:"fromPos,omitempty" validate:"omitempty,oneof=top bottom"`
	ToSide   Side   `json:"toPos,omitempty" yaml:"toPos,omitempty" bson:"toPos,omitempty" validate:"omitempty,oneof=top bottom"`
}

// Chart is one organigram.
type Chart struct {
	ID          ID        `json:"id" yaml:"id" bson:"_id" validate:"required"`
	Name        string    `json:"name" yaml:"name" bson:"name" validate:"max=256"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt" bson:"createdAt"`
	Blocks      []Node    `json:"blocks" yaml:"blocks" bson:"blocks" validate:"dive"`
	Connections []Edge    `json:"connections" yaml:"connections" bson:"connections" validate:"dive"`
}

// New returns an empty chart with a fresh id.
func New(name string) Chart {
	return Chart{
		ID:          NewID(),
		Name:        name,
		CreatedAt:   time.Now().UTC(),
		Blocks:      []Node{},
		Connections: []Edge{},
	}
}

// Block returns the block with the given id.
func (c *Chart) Block(id NodeID) (Node, bool) {
	for _, n := range c.Blocks {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Clone returns a deep copy of c.
func (c Chart) Clone() Chart {
	out := c
	out.Blocks = append([]Node(nil), c.Blocks...)
	out.Connections = append([]Edge(nil), c.Connections...)
	if out.Blocks == nil {
		out.Blocks = []Node{}
	}
	if out.Connections == nil {
		out.Connections = []Edge{}
	}
	return out
}

// ID identifies a chart. Charts created by the web app carry numeric
// millisecond timestamps; charts created here carry UUIDs. Both decode into
// the same string form and numeric ids are written back as numbers.
type ID string

// NewID returns a random chart id.
func NewID() ID { return ID(uuid.NewString()) }

// String returns the id text.
func (id ID) String() string { return string(id) }

func (id ID) numeric() (int64, bool) {
	if id == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

// MarshalJSON writes numeric ids as JSON numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, ok := id.numeric(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(strings.TrimSuffix(n.String(), ".0"))
	return nil
}

// MarshalYAML writes numeric ids as YAML integers.
func (id ID) MarshalYAML() (any, error) {
	if n, ok := id.numeric(); ok {
		return n, nil
	}
	return string(id), nil
}

// UnmarshalYAML accepts any scalar.
func (id *ID) UnmarshalYAML(value *yaml.Node) error {
	*id = ID(value.Value)
	return nil
}
