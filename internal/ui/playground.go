package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pleimann/gesture-pad/internal/pointer"
)

// Playground drives a pointer system from terminal mouse events so that
// gestures can be tried without a touch surface.
type Playground struct {
	// Pointers receives the mouse as pointer events.
	Pointers *pointer.System
	// Step runs once per frame with the frame time in seconds. It should
	// process queued pointer input and update gestures.
	Step func(dt float32)
	// Activity returns the most recent lines of gesture activity to show
	// under the field.
	Activity func() []string
	// CellSize is the size of one terminal cell in surface units.
	CellSize pointer.Vec2
	// Frame is the interval between steps.
	Frame time.Duration
}

const activityLines = 6

type frameMsg time.Time

type trackedMouse struct {
	id      pointer.ID
	live    bool
	pressed pointer.InputType
}

type playgroundModel struct {
	pg Playground

	width, height int
	mirror        bool
	cursor        pointer.Vec2 // surface position of the mouse
	mouse         trackedMouse
	mirrored      trackedMouse
	last          time.Time
}

func newPlaygroundModel(pg Playground) playgroundModel {
	if pg.CellSize == (pointer.Vec2{}) {
		pg.CellSize = pointer.V2(10, 20)
	}
	if pg.Frame <= 0 {
		pg.Frame = 16 * time.Millisecond
	}
	if pg.Step == nil {
		pg.Step = func(float32) { pg.Pointers.ProcessQueuedInput() }
	}
	if pg.Activity == nil {
		pg.Activity = func() []string { return nil }
	}
	return playgroundModel{pg: pg}
}

// Run shows the playground until the user quits.
func (pg Playground) Run() error {
	p := tea.NewProgram(newPlaygroundModel(pg), tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err := p.Run()
	return err
}

func (m playgroundModel) tick() tea.Cmd {
	return tea.Tick(m.pg.Frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m playgroundModel) Init() tea.Cmd {
	return m.tick()
}

func (m playgroundModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.releaseAll()
			m.pg.Step(0)
			return m, tea.Quit
		case "m":
			m.toggleMirror()
		case "r":
			m.releaseAll()
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.MouseMsg:
		m.handleMouse(tea.MouseEvent(msg))

	case frameMsg:
		now := time.Time(msg)
		var dt float32
		if !m.last.IsZero() {
			dt = float32(now.Sub(m.last).Seconds())
		}
		m.last = now
		m.pg.Step(dt)
		return m, m.tick()
	}

	return m, nil
}

// fieldSize is the size of the drawing area in cells, inside the border.
func (m playgroundModel) fieldSize() (cols, rows int) {
	cols = m.width - 2
	rows = m.height - 2 - 1 - activityLines
	return max(cols, 1), max(rows, 1)
}

// centre is the surface position of the middle of the field.
func (m playgroundModel) centre() pointer.Vec2 {
	cols, rows := m.fieldSize()
	return pointer.V2(float32(cols)*m.pg.CellSize.X/2, float32(rows)*m.pg.CellSize.Y/2)
}

func (m playgroundModel) mirrorOf(p pointer.Vec2) pointer.Vec2 {
	return m.centre().MulScalar(2).Sub(p)
}

func inputFor(b tea.MouseButton) pointer.InputType {
	switch b {
	case tea.MouseButtonLeft:
		return pointer.InputLeftMouseButton
	case tea.MouseButtonMiddle:
		return pointer.InputMiddleMouseButton
	case tea.MouseButtonRight:
		return pointer.InputRightMouseButton
	}
	return pointer.InputNone
}

func (m *playgroundModel) handleMouse(ev tea.MouseEvent) {
	// Cells are offset by the field border.
	m.cursor = pointer.V2(
		(float32(ev.X-1)+0.5)*m.pg.CellSize.X,
		(float32(ev.Y-1)+0.5)*m.pg.CellSize.Y,
	)
	ps := m.pg.Pointers

	if !m.mouse.live {
		m.mouse = trackedMouse{id: ps.AddPointerCreateEvent(m.cursor), live: true}
	}

	switch {
	case ev.IsWheel():
		var delta pointer.Vec2
		switch ev.Button {
		case tea.MouseButtonWheelUp:
			delta = pointer.V2(0, -1)
		case tea.MouseButtonWheelDown:
			delta = pointer.V2(0, 1)
		case tea.MouseButtonWheelLeft:
			delta = pointer.V2(-1, 0)
		case tea.MouseButtonWheelRight:
			delta = pointer.V2(1, 0)
		}
		ps.AddPointerScrollEvent(m.mouse.id, delta)

	case ev.Action == tea.MouseActionPress:
		input := inputFor(ev.Button)
		if input == pointer.InputNone || m.mouse.pressed != pointer.InputNone {
			return
		}
		ps.AddPointerMovedEvent(m.mouse.id, m.cursor)
		ps.AddPointerDownEvent(m.mouse.id, input)
		m.mouse.pressed = input
		if m.mirror {
			m.pressMirror(input)
		}

	case ev.Action == tea.MouseActionRelease:
		ps.AddPointerMovedEvent(m.mouse.id, m.cursor)
		if m.mouse.pressed != pointer.InputNone {
			ps.AddPointerUpEvent(m.mouse.id, m.mouse.pressed)
			m.mouse.pressed = pointer.InputNone
		}
		m.releaseMirror()

	case ev.Action == tea.MouseActionMotion:
		ps.AddPointerMovedEvent(m.mouse.id, m.cursor)
		if m.mirrored.live {
			ps.AddPointerMovedEvent(m.mirrored.id, m.mirrorOf(m.cursor))
		}
	}
}

// pressMirror creates the mirrored pointer and presses it with input.
func (m *playgroundModel) pressMirror(input pointer.InputType) {
	ps := m.pg.Pointers
	m.mirrored = trackedMouse{
		id:      ps.AddPointerCreateEvent(m.mirrorOf(m.cursor)),
		live:    true,
		pressed: input,
	}
	ps.AddPointerDownEvent(m.mirrored.id, input)
}

// releaseMirror lifts and removes the mirrored pointer, if there is one.
func (m *playgroundModel) releaseMirror() {
	if !m.mirrored.live {
		return
	}
	ps := m.pg.Pointers
	if m.mirrored.pressed != pointer.InputNone {
		ps.AddPointerUpEvent(m.mirrored.id, m.mirrored.pressed)
	}
	ps.AddPointerRemoveEvent(m.mirrored.id)
	m.mirrored = trackedMouse{}
}

func (m *playgroundModel) toggleMirror() {
	m.mirror = !m.mirror
	if !m.mirror {
		m.releaseMirror()
	} else if m.mouse.pressed != pointer.InputNone {
		m.pressMirror(m.mouse.pressed)
	}
}

// releaseAll lifts every pressed pointer and forgets the mouse.
func (m *playgroundModel) releaseAll() {
	ps := m.pg.Pointers
	m.releaseMirror()
	if m.mouse.live {
		if m.mouse.pressed != pointer.InputNone {
			ps.AddPointerUpEvent(m.mouse.id, m.mouse.pressed)
		}
		ps.AddPointerRemoveEvent(m.mouse.id)
	}
	m.mouse = trackedMouse{}
}

func (m playgroundModel) cellOf(p pointer.Vec2) (col, row int) {
	return int(p.X / m.pg.CellSize.X), int(p.Y / m.pg.CellSize.Y)
}

func (m playgroundModel) View() string {
	if m.width == 0 {
		return "starting…"
	}
	cols, rows := m.fieldSize()

	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}
	put := func(p pointer.Vec2, s string) {
		c, r := m.cellOf(p)
		if r >= 0 && r < rows && c >= 0 && c < cols {
			grid[r][c] = s
		}
	}

	centre := m.centre()
	put(centre, FieldDotStyle.Render("+"))
	if m.mirrored.live {
		put(m.mirrorOf(m.cursor), MirrorPointerStyle.Render("◎"))
	} else if m.mirror && m.mouse.live {
		put(m.mirrorOf(m.cursor), FieldDotStyle.Render("◌"))
	}
	if m.mouse.live {
		if m.mouse.pressed != pointer.InputNone {
			put(m.cursor, PressedPointerStyle.Render("●"))
		} else {
			put(m.cursor, PointerStyle.Render("○"))
		}
	}

	lines := make([]string, rows)
	for r := range grid {
		lines[r] = strings.Join(grid[r], "")
	}

	var b strings.Builder
	b.WriteString(FieldStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")

	mirror := "off"
	if m.mirror {
		mirror = "on"
	}
	status := fmt.Sprintf("mirror %s · %d pointer(s) · m mirror · r release · q quit",
		mirror, len(m.pg.Pointers.ActivePointers()))
	b.WriteString(StatusStyle.Render(status))
	b.WriteString("\n")

	activity := m.pg.Activity()
	if len(activity) > activityLines {
		activity = activity[len(activity)-activityLines:]
	}
	for _, line := range activity {
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}
