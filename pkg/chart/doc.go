// Package chart defines the persisted organigram records and their codec.
//
// A [Chart] is the plain data record exchanged with collaborators outside the
// editing core: storage backends, the HTTP API, import and export. The
// interactive packages (graph, layout, interact) load a chart into a
// graph.Model and hand a snapshot back when the user saves.
//
// # Wire Format
//
// Field names follow the format the organigram web app has always written:
//
//	{
//	  "id": 1733160000000,
//	  "name": "Engineering",
//	  "createdAt": "2024-12-02T17:20:00.000Z",
//	  "blocks": [{"id": 1, "groupName": "", "name": "Ada", "title": "CTO", "x": 50, "y": 50}],
//	  "connections": [{"from": 1, "to": 2, "fromPos": "bottom", "toPos": "top"}]
//	}
//
// Chart ids may be numbers or strings on input. [Parse] accepts a bare array
// of charts or an object of the form {"organigrams": [...]}, as JSON or YAML.
//
// # Validation
//
// The editing core assumes the structural invariants hold and never checks
// them on load. Imported data should go through [Validate] (reject) or
// [Repair] (fix in place) first.
package chart
