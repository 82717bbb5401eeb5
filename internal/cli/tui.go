package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/scribbleink/scribble/pkg/pipeline"
	"github.com/scribbleink/scribble/pkg/scribble"
)

// tuiTableRows caps how many recent layers the progress table shows.
const tuiTableRows = 8

// tuiBarWidth is the width of the layer progress bar in cells.
const tuiBarWidth = 24

// =============================================================================
// Messages
// =============================================================================

// layerMsg carries one finished layer's statistics into the model.
type layerMsg scribble.LayerStat

// doneMsg signals that the pipeline run finished.
type doneMsg struct{}

// tickMsg drives the elapsed-time display.
type tickMsg time.Time

// =============================================================================
// generateModel - Live generation progress
// =============================================================================

// generateModel is the bubbletea model for the live generation view.
// It accumulates per-layer statistics as the sampler reports them.
type generateModel struct {
	title    string
	total    int // layer count for the run
	recent   []scribble.LayerStat
	layers   int // completed layers
	points   int
	segments int
	skipped  int
	start    time.Time
	done     bool
	quitting bool
}

// newGenerateModel creates the progress model for a run over totalLayers.
func newGenerateModel(title string, totalLayers int) generateModel {
	return generateModel{
		title: title,
		total: totalLayers,
		start: time.Now(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m generateModel) Init() tea.Cmd {
	return tick()
}

func (m generateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case layerMsg:
		stat := scribble.LayerStat(msg)
		m.layers++
		m.points += stat.Points
		m.segments += stat.Segments
		if stat.Skipped {
			m.skipped++
		}
		m.recent = append(m.recent, stat)
		if len(m.recent) > tuiTableRows {
			m.recent = m.recent[1:]
		}
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tickMsg:
		if m.done || m.quitting {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m generateModel) View() string {
	// Leave the screen to the summary lines once the run ends.
	if m.done || m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(StyleTitle.Render("Scribbling " + m.title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q abort"))
	b.WriteString("\n\n")

	b.WriteString("  " + progressBar(m.layers, m.total, tuiBarWidth))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d/%d layers", m.layers, m.total)))
	b.WriteString("\n\n")

	if len(m.recent) > 0 {
		b.WriteString(m.layerTable())
		b.WriteString("\n")
	}

	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d points · %d segments · %d skipped · %s",
		m.points, m.segments, m.skipped, time.Since(m.start).Round(100*time.Millisecond))))
	b.WriteString("\n")

	return b.String()
}

// layerTable renders the most recent layers as a bordered table.
func (m generateModel) layerTable() string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(colorWhite)
	dimStyle := lipgloss.NewStyle().Foreground(colorDim)

	rows := make([][]string, 0, len(m.recent))
	for _, stat := range m.recent {
		if stat.Skipped {
			rows = append(rows, []string{
				fmt.Sprintf("%d", stat.Index),
				fmt.Sprintf("%d", stat.Points),
				"-",
				"skipped",
			})
			continue
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", stat.Index),
			fmt.Sprintf("%d", stat.Points),
			fmt.Sprintf("%d", stat.Segments),
			fmt.Sprintf("%.1f", stat.CellWidth),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Layer", "Points", "Segments", "Cell").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := row
			if idx < len(m.recent) && m.recent[idx].Skipped {
				return dimStyle
			}
			return cellStyle
		})

	return t.Render()
}

// progressBar renders a fixed-width bar filled in proportion to done/total.
func progressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	return StyleHighlight.Render(strings.Repeat("█", filled)) +
		StyleDim.Render(strings.Repeat("░", width-filled))
}

// =============================================================================
// Program driver
// =============================================================================

// execResult carries the pipeline outcome from the worker goroutine.
type execResult struct {
	res *pipeline.Result
	err error
}

// runGenerateTUI executes the pipeline behind a live progress view fed
// by the OnLayer callback. The view owns stderr for the duration, so
// the runner must carry a quiet logger.
func (c *CLI) runGenerateTUI(parent context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	model := newGenerateModel(filepath.Base(opts.Input), opts.Layers)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr))

	prev := opts.OnLayer
	opts.OnLayer = func(stat scribble.LayerStat) {
		p.Send(layerMsg(stat))
		if prev != nil {
			prev(stat)
		}
	}

	resc := make(chan execResult, 1)
	go func() {
		res, err := runner.Execute(ctx, opts)
		resc <- execResult{res: res, err: err}
		p.Send(doneMsg{})
	}()

	final, runErr := p.Run()
	userQuit := false
	if m, ok := final.(generateModel); ok && m.quitting {
		userQuit = true
	}
	if runErr != nil || userQuit {
		cancel()
	}

	select {
	case r := <-resc:
		switch {
		case r.err != nil:
			return nil, r.err
		case userQuit || parent.Err() != nil:
			return nil, context.Canceled
		case runErr != nil:
			return nil, runErr
		default:
			return r.res, nil
		}
	case <-time.After(5 * time.Second):
		// The worker did not wind down after cancellation; abandon it.
		return nil, context.Canceled
	}
}
