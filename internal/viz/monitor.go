package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gronchi/reflectometry-analysis/internal/evolution"
)

const (
	monitorWidth  = 64
	monitorHeight = 10
)

// PointMsg carries one recorded evolution point.
type PointMsg evolution.Point

// DoneMsg reports the end of a run.
type DoneMsg struct {
	Summary evolution.Summary
	Err     error
}

type TickMsg time.Time

// Monitor is a Bubble Tea model following an evolution run between
// Start and End (ms).
type Monitor struct {
	model      string
	start, end float64
	cancel     context.CancelFunc

	points   []evolution.Point
	started  time.Time
	elapsed  time.Duration
	done     bool
	summary  evolution.Summary
	err      error
	showPlot bool
}

// NewMonitor builds a monitor. cancel is called when the user quits before
// the run is done; it may be nil.
func NewMonitor(model string, start, end float64, cancel context.CancelFunc) Monitor {
	return Monitor{
		model:    model,
		start:    start,
		end:      end,
		cancel:   cancel,
		started:  time.Now(),
		showPlot: true,
	}
}

func (m Monitor) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "t":
			nextTheme()
		case "p":
			m.showPlot = !m.showPlot
		}
	case PointMsg:
		m.points = append(m.points, evolution.Point(msg))
	case DoneMsg:
		m.done = true
		m.summary = msg.Summary
		m.err = msg.Err
		m.elapsed = time.Since(m.started)
	case TickMsg:
		if !m.done {
			m.elapsed = time.Since(m.started)
			return m, tick()
		}
	}
	return m, nil
}

// Progress is the fraction of the time window covered so far.
func (m Monitor) Progress() float64 {
	if m.done {
		return 1
	}
	if len(m.points) == 0 || m.end <= m.start {
		return 0
	}
	f := (m.points[len(m.points)-1].Time - m.start) / (m.end - m.start)
	return min(max(f, 0), 1)
}

// Points returns the points received so far.
func (m Monitor) Points() []evolution.Point {
	return m.points
}

func (m Monitor) View() string {
	var b strings.Builder

	b.WriteString(Title.Render(fmt.Sprintf("Density evolution: %s", m.model)) + "\n")
	b.WriteString(Subtle.Render(fmt.Sprintf("%.2f-%.2f ms", m.start, m.end)) + "\n\n")
	b.WriteString(ProgressBar(m.Progress(), monitorWidth) + fmt.Sprintf(" %3.0f%%\n\n", 100*m.Progress()))

	peaks := make([]float64, len(m.points))
	for i, p := range m.points {
		peaks[i] = p.PeakDensity
	}
	b.WriteString(Metric("recorded", fmt.Sprintf("%d", len(m.points))) + "\n")
	if n := len(m.points); n > 0 {
		last := m.points[n-1]
		b.WriteString(Metric("t", fmt.Sprintf("%.3f ms", last.Time)) + "\n")
		b.WriteString(Metric("n_max", fmt.Sprintf("%.4g ± %.2g m^-3", last.PeakDensity, last.Uncertainty)) + "\n")
		b.WriteString(Metric("iterations", fmt.Sprintf("%d", last.Iterations)) + "\n")
	}
	b.WriteString(Metric("elapsed", m.elapsed.Round(100*time.Millisecond).String()) + "\n")
	b.WriteString(Sparkline(peaks, monitorWidth) + "\n")

	if m.showPlot && len(m.points) > 1 {
		b.WriteString("\n" + PlotEvolution(m.points, monitorWidth, monitorHeight) + "\n")
	}

	if m.done {
		b.WriteString("\n" + RenderSummary(m.summary) + "\n")
		if m.err != nil {
			b.WriteString(StatusError.Render("error: "+m.err.Error()) + "\n")
		} else {
			b.WriteString(StatusOK.Render("done") + "\n")
		}
	}

	b.WriteString("\n" + KeyHint.Render("q quit  t theme  p plot"))
	return Panel.Render(b.String())
}

// MonitorSink forwards recorded points to a running program.
type MonitorSink struct {
	program *tea.Program
}

func NewMonitorSink(p *tea.Program) *MonitorSink {
	return &MonitorSink{program: p}
}

func (s *MonitorSink) Record(p evolution.Point) error {
	s.program.Send(PointMsg(p))
	return nil
}

func (s *MonitorSink) Close() error { return nil }

var _ evolution.Sink = (*MonitorSink)(nil)
