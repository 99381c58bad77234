package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verseforge/mixview/internal/config"
	"github.com/verseforge/mixview/internal/engine"
)

// Block characters for amplitude columns, silence to full scale.
const blockChars = " ▁▂▃▄▅▆▇█"

const seekStep = 5.0 // seconds per arrow-key seek

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(8)
	degraded    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	healthy     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	trackStyles = map[string]lipgloss.Style{
		"beat":   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		"vocal":  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"master": lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
	defaultTrackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

type tickMsg struct{}

type model struct {
	engine *engine.Engine
	jobID  string
	width  int
}

func (m model) Init() tea.Cmd {
	return tick()
}

// tick schedules the next redraw, matching the engine's flush cadence.
func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		ctx := context.Background()
		ts := m.engine.Transport()
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if ts.IsPlaying {
				m.engine.Pause(ctx)
			} else {
				m.engine.Play(ctx)
			}
		case "s":
			m.engine.Stop(ctx)
		case "left":
			pos := ts.Position - seekStep
			if pos < 0 {
				pos = 0
			}
			m.engine.Seek(ctx, pos)
		case "right":
			m.engine.Seek(ctx, ts.Position+seekStep)
		case "+", "=":
			m.engine.ZoomIn()
		case "-":
			m.engine.ZoomOut()
		case "h":
			m.engine.PanLeft()
		case "l":
			m.engine.PanRight()
		}
	}
	return m, nil
}

func (m model) View() string {
	width := m.width
	if width < 20 {
		width = 80
	}
	cols := width - 10 // room for the track label gutter

	var b strings.Builder
	b.WriteString(headerStyle.Render("mixview"))
	b.WriteString("  job " + m.jobID + "  " + healthBadge(m.engine.Health()))
	b.WriteString("\n\n")

	tracks, _ := m.engine.Tracks()
	view := m.engine.View()
	for _, name := range tracks.Order() {
		style, ok := trackStyles[name]
		if !ok {
			style = defaultTrackStyle
		}
		start, end := view.Window(cols, len(tracks[name]))
		b.WriteString(labelStyle.Render(name))
		b.WriteString(style.Render(waveformRow(tracks[name], start, end, cols)))
		b.WriteString("\n")
	}

	b.WriteString("\n" + transportLine(m))
	b.WriteString("\n\n" + helpStyle.Render("space play/pause · s stop · ←/→ seek · +/- zoom · h/l pan · q quit"))
	return b.String()
}

// waveformRow draws one track's visible window as a row of block characters.
func waveformRow(buf []float32, start, end, cols int) string {
	if cols <= 0 {
		return ""
	}
	if end <= start {
		return strings.Repeat("▁", cols)
	}

	runes := []rune(blockChars)
	samplesPerCol := (end - start) / cols
	if samplesPerCol < 1 {
		samplesPerCol = 1
	}

	var row strings.Builder
	for c := 0; c < cols; c++ {
		lo := start + c*samplesPerCol
		if lo >= end {
			row.WriteRune(' ')
			continue
		}
		hi := lo + samplesPerCol
		if hi > end {
			hi = end
		}
		peak := float32(0)
		for _, s := range buf[lo:hi] {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
		idx := int(peak * float32(len(runes)-1))
		if idx > len(runes)-1 {
			idx = len(runes) - 1
		}
		row.WriteRune(runes[idx])
	}
	return row.String()
}

func transportLine(m model) string {
	ts := m.engine.Transport()
	view := m.engine.View()

	state := "paused"
	if ts.Duration == 0 {
		state = "idle"
	} else if ts.IsPlaying {
		state = "playing"
	}

	return fmt.Sprintf("%s  %6.1fs / %6.1fs  ratio %.2f  zoom %dx  offset %d",
		state, ts.Position, ts.Duration, ts.PlayheadRatio(), view.Zoom, view.Offset)
}

func healthBadge(h engine.Health) string {
	if h.SampleStreamOpen && h.TransportStreamOpen && h.DroppedMessages == 0 {
		return healthy.Render("live")
	}
	return degraded.Render(fmt.Sprintf("degraded (streams %v/%v, %d dropped)",
		h.SampleStreamOpen, h.TransportStreamOpen, h.DroppedMessages))
}

func main() {
	jobID := flag.String("job", "", "mix job id to attach to")
	flag.Parse()
	if *jobID == "" {
		fmt.Fprintln(os.Stderr, "usage: mixview -job <job-id>")
		os.Exit(2)
	}

	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng := engine.New(cfg, *jobID)
	if err := eng.Start(ctx); err != nil {
		log.Fatalf("Engine start failed: %v", err)
	}
	defer eng.Close()

	p := tea.NewProgram(model{engine: eng, jobID: *jobID}, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		log.Fatalf("UI error: %v", err)
	}
}
