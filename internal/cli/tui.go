package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/technify/pkg/artifact"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// ReviewModel - Interactive clip selection
// =============================================================================

// ReviewModel is the bubbletea model for choosing which rendered clips are
// kept for composition. Every clip starts out selected.
type ReviewModel struct {
	Diagrams  []*artifact.Diagram
	Keep      []bool
	Cursor    int
	Height    int
	Offset    int
	Confirmed bool
}

// NewReviewModel creates a review model over the rendered diagrams.
func NewReviewModel(diagrams []*artifact.Diagram) ReviewModel {
	keep := make([]bool, len(diagrams))
	for i := range keep {
		keep[i] = true
	}
	return ReviewModel{Diagrams: diagrams, Keep: keep, Height: 15}
}

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Diagrams)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.Keep) > 0 {
				m.Keep = append([]bool(nil), m.Keep...)
				m.Keep[m.Cursor] = !m.Keep[m.Cursor]
			}
		case "a":
			all := !m.allKept()
			m.Keep = make([]bool, len(m.Diagrams))
			for i := range m.Keep {
				m.Keep[i] = all
			}
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ReviewModel) allKept() bool {
	for _, k := range m.Keep {
		if !k {
			return false
		}
	}
	return true
}

// Kept returns how many clips are selected.
func (m ReviewModel) Kept() int {
	n := 0
	for _, k := range m.Keep {
		if k {
			n++
		}
	}
	return n
}

// Apply clears the clip path of every deselected diagram. It does nothing
// unless the selection was confirmed.
func (m ReviewModel) Apply() int {
	if !m.Confirmed {
		return 0
	}
	dropped := 0
	for i, d := range m.Diagrams {
		if !m.Keep[i] {
			d.ClipPath = ""
			dropped++
		}
	}
	return dropped
}

func (m ReviewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Review Clips"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Diagrams))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Diagrams[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := "[ ]"
		if m.Keep[i] {
			mark = "[" + iconSuccess + "]"
		}
		rows = append(rows, []string{cursor + mark, d.Window().String(), contentLabel(d.Content), filepath.Base(d.ClipPath)})
	}

	t := newTable("", "Window", "Content", "Clip").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Diagrams) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if idx == m.Cursor {
				base = base.Bold(true)
			}
			if !m.Keep[idx] {
				return base.Foreground(colorDim)
			}
			if col == 0 {
				return base.Foreground(colorGreen)
			}
			return base.Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d of %d clips kept", m.Kept(), len(m.Diagrams))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func contentLabel(c artifact.Content) string {
	switch c := c.(type) {
	case artifact.TextSource:
		return string(c.Dialect)
	case artifact.Structured:
		return string(c.Type)
	}
	return "-"
}
