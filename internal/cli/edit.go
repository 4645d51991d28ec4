package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
	"github.com/matzehuels/organigram/pkg/graph"
	"github.com/matzehuels/organigram/pkg/interact"
	"github.com/matzehuels/organigram/pkg/session"
	"github.com/matzehuels/organigram/pkg/viewport"
)

// Rows below the canvas: status and key help.
const editorChromeRows = 2

// keyPan is how far the arrow keys pan, in screen pixels.
const keyPan = 5 * cellWidth

var (
	editorStatusStyle = lipgloss.NewStyle().Foreground(colorWhite)
	editorModeStyle   = lipgloss.NewStyle().Foreground(colorCyan)
	editorDirtyStyle  = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	editorErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	editorHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
	editorPromptStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
)

const editorHelp = "drag move · drag ◦ connect · space pan · a/A add · e/t/g edit · d delete · l layout · f fit · +/- zoom · m map · s save · q quit"

// editField is the block field being typed into.
type editField int

const (
	fieldNone editField = iota
	fieldName
	fieldTitle
	fieldGroup
)

func (f editField) String() string {
	switch f {
	case fieldName:
		return "name"
	case fieldTitle:
		return "title"
	case fieldGroup:
		return "group"
	}
	return ""
}

// saveFunc persists the edited chart.
type saveFunc func(ctx context.Context, c chart.Chart) error

// editorModel is the bubbletea model of the terminal editor.
type editorModel struct {
	ctx  context.Context
	sess *session.Session
	save saveFunc

	width, height int
	placed        bool // viewport centred on the chart

	pressed     interact.Button
	down        bool
	minimapDrag bool
	showMinimap bool

	field editField
	input string
	node  chart.NodeID

	confirmQuit bool
	status      string
	statusErr   bool
}

func newEditorModel(ctx context.Context, sess *session.Session, save saveFunc) *editorModel {
	m := &editorModel{ctx: ctx, sess: sess, save: save, showMinimap: true}
	m.resize(80, 24)
	return m
}

func (m *editorModel) Init() tea.Cmd { return nil }

func (m *editorModel) canvasRows() int { return max(m.height-editorChromeRows, 1) }

func (m *editorModel) resize(w, h int) {
	m.width, m.height = w, h
	m.sess.Viewport.Resize(geom.Sz(float64(w)*cellWidth, float64(m.canvasRows())*cellHeight))
}

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		if !m.placed && m.sess.Model.Len() > 0 {
			m.sess.Viewport.CenterOn(m.sess.Model.Extent().Center())
		}
		m.placed = true
	case tea.MouseMsg:
		m.mouse(msg)
	case tea.KeyMsg:
		if m.field != fieldNone {
			m.prompt(msg)
			return m, nil
		}
		return m, m.key(msg)
	}
	return m, nil
}

func (m *editorModel) mouse(msg tea.MouseMsg) {
	at := cellCenter(msg.X, msg.Y)

	if msg.Action == tea.MouseActionPress {
		switch msg.Button {
		case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown, tea.MouseButtonWheelLeft, tea.MouseButtonWheelRight:
			m.wheel(msg)
			return
		}
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Y >= m.canvasRows() {
			return
		}
		if p, ok := m.minimapAt(msg.X, msg.Y); ok {
			m.minimapDrag = true
			m.sess.MinimapDown(p)
			return
		}
		m.pressed = mouseButton(msg.Button)
		m.down = m.sess.PointerDown(at, m.pressed)

	case tea.MouseActionMotion:
		if m.minimapDrag {
			if p, ok := m.minimapAt(msg.X, msg.Y); ok {
				m.sess.MinimapMove(p)
			}
			return
		}
		if m.down {
			m.sess.PointerMove(at, m.pressed)
		}

	case tea.MouseActionRelease:
		if m.minimapDrag {
			m.minimapDrag = false
			m.sess.MinimapUp()
			return
		}
		if m.down {
			m.down = false
			m.sess.PointerUp(at, m.pressed)
		}
	}
}

func (m *editorModel) wheel(msg tea.MouseMsg) {
	var d geom.Point
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		d.Y = -3 * cellHeight
	case tea.MouseButtonWheelDown:
		d.Y = 3 * cellHeight
	case tea.MouseButtonWheelLeft:
		d.X = -3 * cellWidth
	case tea.MouseButtonWheelRight:
		d.X = 3 * cellWidth
	}
	ev := viewport.WheelEvent{Delta: d}
	if msg.Ctrl {
		ev.Modifier |= viewport.ModCtrl
	}
	if msg.Alt {
		ev.Modifier |= viewport.ModMeta
	}
	m.sess.Interaction.Wheel(ev)
}

func (m *editorModel) minimapAt(col, row int) (geom.Point, bool) {
	if !m.showMinimap {
		return geom.Point{}, false
	}
	return minimapPoint(newCanvas(m.width, m.canvasRows()), m.sess.Minimap(), col, row)
}

func mouseButton(b tea.MouseButton) interact.Button {
	switch b {
	case tea.MouseButtonMiddle:
		return interact.ButtonMiddle
	case tea.MouseButtonRight:
		return interact.ButtonSecondary
	}
	return interact.ButtonPrimary
}

func (m *editorModel) key(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	if k != "q" && k != "ctrl+c" {
		m.confirmQuit = false
	}
	m.status, m.statusErr = "", false

	s := m.sess
	switch k {
	case "q", "ctrl+c":
		if s.Dirty() && !m.confirmQuit {
			m.confirmQuit = true
			m.setStatus("Unsaved changes, press q again to quit or s to save", true)
			return nil
		}
		return tea.Quit
	case " ", "space":
		if s.Interaction.SpaceHeld() {
			s.Interaction.KeyUp(interact.KeySpace)
		} else {
			s.Interaction.KeyDown(interact.KeySpace)
		}
	case "esc":
		s.Interaction.KeyDown(interact.KeyEscape)
		s.Interaction.KeyUp(interact.KeySpace)
	case "d", "delete", "backspace":
		s.Interaction.KeyDown(interact.KeyDelete)
	case "+", "=":
		s.Viewport.ZoomIn()
	case "-":
		s.Viewport.ZoomOut()
	case "0":
		s.ResetZoom()
	case "f":
		s.FitToContent()
	case "l":
		res := s.ResetLayout()
		if n := len(res.Skipped); n > 0 {
			m.setStatus(fmt.Sprintf("Layout ignored %d connection(s)", n), false)
		}
	case "a":
		m.add(chart.RoleChild)
	case "A":
		m.add(chart.RoleParent)
	case "e", "enter":
		m.edit(fieldName)
	case "t":
		m.edit(fieldTitle)
	case "g":
		m.edit(fieldGroup)
	case "m":
		m.showMinimap = !m.showMinimap
	case "s":
		m.saveChart()
	case "left":
		s.Viewport.Pan(geom.Pt(keyPan, 0))
	case "right":
		s.Viewport.Pan(geom.Pt(-keyPan, 0))
	case "up":
		s.Viewport.Pan(geom.Pt(0, keyPan))
	case "down":
		s.Viewport.Pan(geom.Pt(0, -keyPan))
	}
	return nil
}

// add creates a block anchored to the single selected block, or at the
// centre of the view when nothing is selected.
func (m *editorModel) add(role chart.Role) {
	s := m.sess
	var opt graph.AddOption
	if sel := s.Model.SelectedNodes(); len(sel) == 1 {
		opt = graph.WithAnchor(sel[0], role)
	} else {
		size := s.Model.DefaultSize()
		c := s.Viewport.VisibleWorld().Center()
		opt = graph.WithPosition(c.Sub(geom.Pt(size.W/2, size.H/2)))
	}
	id := s.AddNode(chart.Payload{}, opt)
	s.Model.SelectNodes(id)
	m.edit(fieldName)
}

// edit starts typing into a field of the single selected block.
func (m *editorModel) edit(f editField) {
	sel := m.sess.Model.SelectedNodes()
	if len(sel) != 1 {
		m.setStatus("Select one block to edit", true)
		return
	}
	n, _ := m.sess.Model.Node(sel[0])
	m.field, m.node = f, sel[0]
	switch f {
	case fieldName:
		m.input = n.Name
	case fieldTitle:
		m.input = n.Title
	case fieldGroup:
		m.input = n.GroupName
	}
}

func (m *editorModel) prompt(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		var p graph.Patch
		switch m.field {
		case fieldName:
			p.Name = graph.Ptr(m.input)
		case fieldTitle:
			p.Title = graph.Ptr(m.input)
		case fieldGroup:
			p.GroupName = graph.Ptr(m.input)
		}
		m.sess.UpdateNode(m.node, p)
		m.field = fieldNone
	case tea.KeyEsc, tea.KeyCtrlC:
		m.field = fieldNone
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
}

func (m *editorModel) saveChart() {
	if err := m.save(m.ctx, m.sess.Chart()); err != nil {
		m.setStatus("Save failed: "+err.Error(), true)
		return
	}
	m.sess.MarkSaved()
	m.setStatus("Saved", false)
}

func (m *editorModel) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

func (m *editorModel) View() string {
	cv := newCanvas(m.width, m.canvasRows())
	drawSession(cv, m.sess, m.showMinimap)

	var b strings.Builder
	b.WriteString(cv.String())
	b.WriteByte('\n')
	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	if m.field != fieldNone {
		b.WriteString(editorPromptStyle.Render(m.field.String()+": ") + m.input + "▏")
	} else {
		b.WriteString(editorHelpStyle.Render(editorHelp))
	}
	return b.String()
}

func (m *editorModel) statusLine() string {
	s := m.sess
	c := s.Chart()
	parts := []string{
		editorStatusStyle.Render(displayName(c)),
		fmt.Sprintf("%d blocks", s.Model.Len()),
		fmt.Sprintf("%d%%", s.Viewport.ZoomPercent()),
		editorModeStyle.Render(s.Interaction.Mode().String()),
	}
	if s.Interaction.SpaceHeld() {
		parts = append(parts, editorModeStyle.Render("pan"))
	}
	if s.Dirty() {
		parts = append(parts, editorDirtyStyle.Render("● unsaved"))
	}
	if m.status != "" {
		st := editorStatusStyle
		if m.statusErr {
			st = editorErrorStyle
		}
		parts = append(parts, st.Render(m.status))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

// editCommand creates the "edit" command.
func (c *CLI) editCommand() *cobra.Command {
	var chartID string

	cmd := &cobra.Command{
		Use:   "edit CHART",
		Short: "Edit a chart in the terminal",
		Long: `Open a chart in the interactive terminal editor.

CHART is a stored chart id or a JSON/YAML file. Drag blocks with the mouse,
drag from a block's top or bottom handle to another block to connect them,
and drag on empty canvas to select several blocks. Hold the middle button,
or toggle space, to pan. The minimap in the top right corner moves the view.

Press s to save back to where the chart came from.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd, args[0], chartID)
		},
	}

	cmd.Flags().StringVar(&chartID, "chart", "", "chart id when CHART is a file with several charts")
	return cmd
}

func (c *CLI) runEdit(cmd *cobra.Command, arg, chartID string) error {
	ctx := cmd.Context()
	ch, src, err := c.resolveChart(ctx, arg, chartID)
	if err != nil {
		return err
	}
	defer src.close()

	// The log would corrupt the alternate screen.
	opts := append(c.settings().SessionOptions(),
		session.WithHandleRadius(cellHeight),
		session.WithLogger(log.New(io.Discard)),
	)
	sess := session.Open(ch, opts...)
	defer sess.Close()

	model := newEditorModel(ctx, sess, src.save)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if sess.Dirty() {
		printWarning(out, "Unsaved changes to %s discarded", displayName(sess.Chart()))
		return nil
	}
	loggerFromContext(ctx).Debug("Editor closed", "chart", ch.ID)
	return nil
}
