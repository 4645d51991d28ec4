package chart_test

import (
	"fmt"

	"github.com/matzehuels/organigram/pkg/chart"
)

func ExampleParse() {
	data := `{"organigrams": [{
		"id": 1733160000000,
		"name": "Engineering",
		"blocks": [{"id": 1, "name": "Ada", "x": 50, "y": 50}, {"id": 2, "name": "Linus", "x": 50, "y": 250}],
		"connections": [{"from": 1, "to": 2, "fromPos": "bottom", "toPos": "top"}]
	}]}`

	charts, err := chart.Parse([]byte(data))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	c := charts[0]
	fmt.Println(c.ID, c.Name)
	for _, e := range c.Connections {
		from, _ := c.Block(e.From)
		to, _ := c.Block(e.To)
		fmt.Printf("%s -> %s\n", from.Name, to.Name)
	}
	// Output:
	// 1733160000000 Engineering
	// Ada -> Linus
}

func ExampleRepair() {
	c := chart.Chart{
		ID:     "demo",
		Blocks: []chart.Node{{ID: 1}, {ID: 2}},
		Connections: []chart.Edge{
			{From: 1, To: 2},
			{From: 1, To: 2},
			{From: 2, To: 9},
		},
	}
	rep := chart.Repair(&c)
	fmt.Println("dropped:", len(rep.DroppedEdges))
	fmt.Println("valid:", chart.Validate(&c) == nil)
	// Output:
	// dropped: 2
	// valid: true
}
