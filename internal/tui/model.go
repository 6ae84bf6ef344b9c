// Package tui is the interactive terminal host: it draws the box and the
// bodies with braille sub-pixels, turns the terminal's mouse into drag
// input and feeds wall-clock frame times to the scheduler.
package tui

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/ballpit/internal/drag"
	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/metrics"
	"github.com/san-kum/ballpit/internal/sim"
	"github.com/san-kum/ballpit/internal/viewport"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	headerRows    = 1
	footerRows    = 2
	frameRate     = 60
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dragStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	wallColor = lipgloss.Color("#888899")
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model owns the world for the lifetime of the program; bubbletea
// delivers ticks and mouse events through Update one at a time.
type Model struct {
	title      string
	world      *sim.World
	sched      *sim.Scheduler
	bridge     *drag.Bridge
	dragTarget dynamo.Handle
	canvas     *Canvas
	view       viewport.Viewport
	last       time.Time
	running    bool
	pointer    dynamo.Vec
	logger     *slog.Logger
}

func NewModel(title string, w *sim.World, s *sim.Scheduler, dragTarget dynamo.Handle) Model {
	m := Model{
		title:      title,
		world:      w,
		sched:      s,
		bridge:     drag.New(w),
		dragTarget: dragTarget,
		running:    true,
		logger:     slog.Default(),
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

func (m *Model) SetLogger(l *slog.Logger) { m.logger = l }

// resize fits the unit square to the last drawable sub-pixel so that the
// closed edges x=1 and y=0 land on the canvas.
func (m *Model) resize(w, h int) {
	m.canvas = NewCanvas(w, h-headerRows-footerRows)
	m.view = viewport.New(float64(m.canvas.SubWidth()-1), float64(m.canvas.SubHeight()-1))
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.sched.Advance(m.world.Dt())
			}
		}
	case tea.MouseMsg:
		m.mouse(msg)
	case TickMsg:
		now := time.Time(msg)
		if m.running && !m.last.IsZero() {
			m.sched.AdvanceDuration(now.Sub(m.last))
		}
		m.last = now
		return m, tick()
	}
	return m, nil
}

// ToWorld maps a terminal cell to the simulation point under the centre
// of that cell.
func (m Model) ToWorld(col, row int) dynamo.Vec {
	row -= headerRows
	return m.view.ToWorld(float64(col*2+1), float64(row*4+2))
}

func (m *Model) mouse(msg tea.MouseMsg) {
	p := m.ToWorld(msg.X, msg.Y)
	m.pointer = p
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		h := m.dragTarget
		if hit, ok := m.world.BodyAt(p); ok {
			h = hit
		}
		if err := m.bridge.Start(h, p); err != nil {
			m.logger.Warn("drag rejected", "handle", h, "x", p.X, "y", p.Y, "error", err)
		}
	case tea.MouseActionMotion:
		m.bridge.Move(p)
	case tea.MouseActionRelease:
		m.bridge.End()
	}
}

func (m Model) draw() {
	c := m.canvas
	c.Clear()

	for _, seg := range m.world.Solver().Segments() {
		x0, y0 := m.view.ToScreen(seg.A)
		x1, y1 := m.view.ToScreen(seg.B)
		c.DrawLine(int(x0), int(y0), int(x1), int(y1), wallColor)
	}
	alpha := math.Min(math.Max(m.sched.Alpha(), 0), 1)
	for _, b := range m.world.Bodies() {
		x, y := m.view.ToScreen(Interpolate(b, alpha))
		rx, ry := m.view.Radius(b.Radius)
		c.FillEllipse(x, y, rx, ry, lipgloss.Color(b.Appearance))
	}
}

// Interpolate places b between its last two steps; alpha is the
// scheduler's leftover fraction of a step.
func Interpolate(b *dynamo.Body, alpha float64) dynamo.Vec {
	return r2.Add(b.Prev, r2.Scale(alpha, r2.Sub(b.Pos, b.Prev)))
}

func (m Model) View() string {
	m.draw()

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.canvas.String())

	stat := func(label, value string) string {
		return labelStyle.Render(label+" ") + valueStyle.Render(value) + "  "
	}
	s.WriteString(stat("t", fmt.Sprintf("%.2fs", float64(m.world.Steps())*m.world.Dt())))
	s.WriteString(stat("steps", fmt.Sprintf("%d", m.sched.Steps())))
	s.WriteString(stat("energy", fmt.Sprintf("%.4f", metrics.MechanicalEnergy(m.world))))
	if d := m.sched.Dropped(); d > 0 {
		s.WriteString(stat("dropped", fmt.Sprintf("%.2fs", d)))
	}
	if h, ok := m.bridge.Active(); ok {
		s.WriteString(dragStyle.Render(fmt.Sprintf("DRAG #%d (%.2f, %.2f)", h, m.pointer.X, m.pointer.Y)))
	} else if !m.running {
		s.WriteString(pausedStyle.Render("PAUSED"))
	}
	s.WriteString("\n" + helpStyle.Render("drag: mouse  space: pause  .: step  q: quit"))
	return s.String()
}

// Run blocks until the user quits.
func Run(title string, w *sim.World, s *sim.Scheduler, dragTarget dynamo.Handle) error {
	p := tea.NewProgram(NewModel(title, w, s, dragTarget), tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err := p.Run()
	return err
}
