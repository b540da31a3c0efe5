package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/technify/pkg/artifact"
	"github.com/matzehuels/technify/pkg/deps"
	"github.com/matzehuels/technify/pkg/errors"
	"github.com/matzehuels/technify/pkg/pipeline"
)

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

// renderReportTable renders one row per diagram of a render batch.
func renderReportTable(diagrams []*artifact.Diagram, report *pipeline.Report) string {
	rows := make([][]string, 0, len(report.Outcomes))
	for i, o := range report.Outcomes {
		window := ""
		if i < len(diagrams) && diagrams[i] != nil {
			window = diagrams[i].Window().String()
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", o.Index),
			window,
			o.Tier.String(),
			outcomeStatus(o),
			o.Elapsed.Round(time.Millisecond).String(),
		})
	}

	t := newTable("#", "Window", "Tier", "Status", "Time").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if row >= len(report.Outcomes) {
				return lipgloss.NewStyle()
			}
			o := report.Outcomes[row]
			switch {
			case col != 3:
				return lipgloss.NewStyle().Foreground(colorWhite)
			case !o.OK():
				return styleFailed
			case o.Cached:
				return styleCached
			case o.Degraded:
				return StyleWarning
			}
			return StyleSuccess
		})
	return t.Render()
}

func outcomeStatus(o pipeline.Outcome) string {
	switch {
	case o.Err != nil:
		return iconError + " " + errors.UserMessage(o.Err)
	case o.Cached:
		return iconSuccess + " " + iconCached
	case o.Degraded:
		return iconWarning + " static fallback"
	case o.Drift != 0:
		return fmt.Sprintf("%s drift %+.2fs", iconWarning, o.Drift)
	}
	return iconSuccess + " rendered"
}

// renderDoctorTable renders tool availability.
func renderDoctorTable(statuses []deps.Status) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		kind := "required"
		if s.Optional {
			kind = "optional"
		}
		state := iconSuccess + " " + s.Path
		if !s.Available {
			state = iconError + " " + s.Detail
		} else if s.Detail != "" {
			state += " (" + s.Detail + ")"
		}
		rows = append(rows, []string{s.Name, kind, s.Description, state})
	}

	t := newTable("Tool", "", "Used for", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if row >= len(statuses) || col != 3 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			s := statuses[row]
			switch {
			case s.Available:
				return StyleSuccess
			case s.Optional:
				return StyleWarning
			}
			return styleFailed
		})
	return t.Render()
}
