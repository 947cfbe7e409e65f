package viz

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/robosim/internal/body"
	"github.com/san-kum/robosim/internal/dynamo"
	"github.com/san-kum/robosim/internal/match"
)

const (
	canvasWidth     = 60
	canvasHeight    = 20
	trailCapacity   = 200
	historyCapacity = 300
	frameRate       = 60
	fallbackTableW  = 3.0
	fallbackTableH  = 2.0
)

var speeds = []float64{0.25, 0.5, 1, 2, 4, 8}

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Factory builds a fresh match. It is called once at start and on every reset.
type Factory func() (*match.Match, error)

// Model is the bubbletea model of a live match.
type Model struct {
	name    string
	factory Factory
	match   *match.Match
	canvas  *Canvas
	theme   Theme

	trails   map[string][]dynamo.Vec2
	speedLog map[string][]float64

	running  bool
	finished bool
	showHelp bool
	err      error

	speed    int
	acc      float64
	last     time.Time
	selected int
	param    int
}

// NewModel builds the first match through f.
func NewModel(name string, f Factory) (Model, error) {
	m := Model{
		name:    name,
		factory: f,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		theme:   Themes[0],
		speed:   2,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Match returns the match currently shown.
func (m Model) Match() *match.Match { return m.match }

func (m Model) Running() bool  { return m.running }
func (m Model) Finished() bool { return m.finished }
func (m Model) Err() error     { return m.err }

func (m Model) Init() tea.Cmd { return tick() }

func (m *Model) reset() error {
	mt, err := m.factory()
	if err != nil {
		return err
	}
	m.match = mt
	m.trails = make(map[string][]dynamo.Vec2)
	m.speedLog = make(map[string][]float64)
	m.running, m.finished, m.err = true, false, nil
	m.acc, m.last = 0, time.Time{}
	if m.selected >= len(mt.Robots()) {
		m.selected = 0
	}
	return nil
}

// Update handles input events and steps the match.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if !m.finished {
				m.running = !m.running
				m.last = time.Time{}
			}
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
				m.running = false
			}
		case "tab":
			if n := len(m.match.Robots()); n > 0 {
				m.selected = (m.selected + 1) % n
				m.param = 0
			}
		case "p":
			if keys := m.paramKeys(); len(keys) > 0 {
				m.param = (m.param + 1) % len(keys)
			}
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "+", "=":
			if m.speed < len(speeds)-1 {
				m.speed++
			}
		case "-", "_":
			if m.speed > 0 {
				m.speed--
			}
		case "t":
			m.theme = m.theme.next()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.advance(time.Time(msg))
		return m, tick()
	}
	return m, nil
}

// advance runs as many match steps as the elapsed wall time allows.
func (m *Model) advance(now time.Time) {
	if !m.running || m.finished {
		m.last = now
		return
	}
	elapsed := 1.0 / frameRate
	if !m.last.IsZero() {
		elapsed = now.Sub(m.last).Seconds()
	}
	m.last = now
	// cap catch-up after the terminal was suspended
	m.acc += math.Min(elapsed, 0.25) * speeds[m.speed]

	cfg := m.match.Config()
	for m.acc >= cfg.Dt {
		m.acc -= cfg.Dt
		if err := m.stepOnce(); err != nil {
			m.err = err
			m.running = false
			return
		}
		if m.match.Time() >= cfg.Duration-cfg.Dt/2 || (cfg.StopWhenIdle && m.match.Idle()) {
			m.finished = true
			m.running = false
			return
		}
	}
}

func (m *Model) stepOnce() error {
	if err := m.match.Step(context.Background()); err != nil {
		return err
	}
	for _, r := range m.match.Robots() {
		s, ok := r.Last()
		if !ok {
			continue
		}
		log := append(m.speedLog[r.Name], s.Command.Speed())
		if len(log) > historyCapacity {
			log = log[1:]
		}
		m.speedLog[r.Name] = log

		trail := append(m.trails[r.Name], s.Snapshot.Pose.Position())
		if len(trail) > trailCapacity {
			trail = trail[1:]
		}
		m.trails[r.Name] = trail
	}
	return nil
}

func (m *Model) selectedRobot() *match.Robot {
	rs := m.match.Robots()
	if len(rs) == 0 {
		return nil
	}
	return rs[m.selected%len(rs)]
}

func (m *Model) paramKeys() []string {
	r := m.selectedRobot()
	if r == nil {
		return nil
	}
	params := r.Ctrl.GetParams()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Model) adjustParam(factor float64) {
	keys := m.paramKeys()
	if len(keys) == 0 {
		return
	}
	var tuner dynamo.Configurable = m.selectedRobot().Ctrl
	key := keys[m.param%len(keys)]
	val := tuner.GetParams()[key]
	if val == 0 && factor > 1 {
		val = 1e-3
	}
	if err := tuner.SetParam(key, val*factor); err != nil {
		m.err = err
	}
}

// project maps table coordinates to canvas dots, y pointing up.
func (m *Model) project(table body.Table, p dynamo.Vec2) (int, int) {
	scale := m.scale(table)
	cx, cy := float64(m.canvas.DotsWide())/2, float64(m.canvas.DotsHigh())/2
	return int(math.Round(cx + p.X*scale)), int(math.Round(cy - p.Y*scale))
}

func (m *Model) scale(table body.Table) float64 {
	tw, th := extent(table)
	return math.Min(float64(m.canvas.DotsWide()-2)/tw, float64(m.canvas.DotsHigh()-2)/th)
}

func extent(t body.Table) (float64, float64) {
	w, h := t.Width, t.Height
	if w <= 0 {
		w = fallbackTableW
	}
	if h <= 0 {
		h = fallbackTableH
	}
	return w, h
}

func (m *Model) draw() {
	m.canvas.Clear()
	rs := m.match.Robots()
	if len(rs) == 0 {
		return
	}
	table := rs[0].Body.Table
	tw, th := extent(table)
	x0, y0 := m.project(table, dynamo.Vec2{X: -tw / 2, Y: th / 2})
	x1, y1 := m.project(table, dynamo.Vec2{X: tw / 2, Y: -th / 2})
	m.canvas.DrawRect(x0, y0, x1, y1)

	scale := m.scale(table)
	for _, r := range rs {
		pose := r.Body.Pose()
		for _, p := range m.trails[r.Name] {
			m.canvas.Set(m.project(table, p))
		}

		px, py := m.project(table, pose.Position())

		radius := math.Max(r.Body.Radius*scale, 1)
		m.canvas.DrawCircle(px, py, radius)
		tip := pose.Position().Add(dynamo.Heading(pose.Heading).Scale(r.Body.Radius * 1.5))
		hx, hy := m.project(table, tip)
		m.canvas.DrawLine(px, py, hx, hy)
	}
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return "ERROR"
	case m.finished:
		return "FINISHED"
	case !m.running:
		return "PAUSED"
	}
	return fmt.Sprintf("RUNNING x%g", speeds[m.speed])
}

// View renders the table and the stats of the selected robot.
func (m Model) View() string {
	st := m.theme.styles()
	m.draw()
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs / %.0fs", m.match.Time(), m.match.Config().Duration))

	s.WriteString("\nROBOTS\n")
	for i, r := range m.match.Robots() {
		marker := "  "
		if i == m.selected%len(m.match.Robots()) {
			marker = "> "
		}
		team := lipgloss.NewStyle().Foreground(m.theme.team(r.Team())).Render("●")
		s.WriteString(fmt.Sprintf("%s%s %s\n", marker, team, r.Name))
	}

	if r := m.selectedRobot(); r != nil {
		pose := r.Body.Pose()
		s.WriteString("\n")
		row("Pose", fmt.Sprintf("%.3f, %.3f, %.2f", pose.X, pose.Y, pose.Heading))
		row("Orders", r.Ctrl.Orders().String())
		row("Arrived", fmt.Sprintf("%v", r.Ctrl.IsArrived()))
		if r.Script != nil {
			step := "done"
			if cur, ok := r.Script.Current(); ok {
				step = cur.String()
			}
			row("Step", fmt.Sprintf("%d/%d %s", r.Script.Completed(), r.Script.Len(), step))
		}
		if log := m.speedLog[r.Name]; len(log) > 1 {
			chart := asciigraph.Plot(log, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Speed"))
			s.WriteString(st.graph.Render(chart) + "\n")
		}

		s.WriteString("\nPARAMETERS\n")
		params := r.Ctrl.GetParams()
		for i, k := range m.paramKeys() {
			line := fmt.Sprintf("%-14s %.3f", k, params[k])
			if i == m.param {
				s.WriteString(st.active.Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + st.label.UnsetWidth().Render(line) + "\n")
			}
		}
	}
	if m.err != nil {
		s.WriteString("\n" + StatusWarn.Render(m.err.Error()) + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit ?:Help\nTab:Robot P:Param ↑↓:Tune +-:Speed"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
  Space    pause / resume
  R        restart the match
  Q        quit
  Tab      select next robot
  P        select next parameter
  Up/K     increase parameter (+5%)
  Down/J   decrease parameter (-5%)
  + / -    simulation speed
  T        cycle themes
  ?        toggle this help
`
