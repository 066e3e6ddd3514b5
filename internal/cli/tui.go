package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/gestalt/pkg/layout"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// InspectModel - page-by-page layout browser
// =============================================================================

// inspectView selects what the inspector shows.
type inspectView int

const (
	viewPages inspectView = iota
	viewDiagnostics
)

// InspectModel is the bubbletea model for browsing a layout.
type InspectModel struct {
	Spec   *layout.Specification
	Page   int
	Cursor int // selected block on the current page
	Height int
	Offset int
	view   inspectView
}

// NewInspectModel creates an inspector positioned on the first page.
func NewInspectModel(spec *layout.Specification) InspectModel {
	return InspectModel{Spec: spec, Height: 15}
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "d":
			if m.view == viewPages {
				m.view = viewDiagnostics
			} else {
				m.view = viewPages
			}
		case "right", "l", "n", "pgdown":
			if m.Page < len(m.Spec.Pages)-1 {
				m.Page++
				m.Cursor, m.Offset = 0, 0
			}
		case "left", "h", "p", "pgup":
			if m.Page > 0 {
				m.Page--
				m.Cursor, m.Offset = 0, 0
			}
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.rows())-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-10, 5)
	}
	return m, nil
}

// blockRow is one placement with the region it sits in.
type blockRow struct {
	region string
	layout.Placement
}

func (m InspectModel) rows() []blockRow {
	if len(m.Spec.Pages) == 0 {
		return nil
	}
	var rows []blockRow
	for _, r := range m.Spec.Pages[m.Page].Regions {
		for _, b := range r.Blocks {
			rows = append(rows, blockRow{region: r.ID, Placement: b})
		}
	}
	return rows
}

func (m InspectModel) View() string {
	var b strings.Builder

	fp := m.Spec.SourceFingerprint
	if len(fp) > 12 {
		fp = fp[:12]
	}
	b.WriteString(StyleTitle.Render(fmt.Sprintf("Layout %s", fp)))
	b.WriteString("  ")
	b.WriteString(scoreStyle(m.Spec.Quality.Score).Render(fmt.Sprintf("%.2f %s", m.Spec.Quality.Score, m.Spec.Quality.Grade)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ page  ↑/↓ block  tab diagnostics  q quit"))
	b.WriteString("\n\n")

	if m.view == viewDiagnostics {
		b.WriteString(diagnosticsTable(m.Spec))
		b.WriteString("\n")
		for _, a := range m.Spec.Advisories {
			b.WriteString(listDimStyle.Render(fmt.Sprintf("  advisory %s %s %s", a.Op, strings.Join(a.Targets, ","), a.Reason)))
			b.WriteString("\n")
		}
		return b.String()
	}

	if len(m.Spec.Pages) == 0 {
		b.WriteString(listDimStyle.Render("  (no pages)"))
		return b.String()
	}
	page := m.Spec.Pages[m.Page]
	header := fmt.Sprintf("%s %d/%d  %s", page.Kind, m.Page+1, len(m.Spec.Pages), page.Template)
	if page.Title != "" {
		header += "  " + page.Title
	}
	b.WriteString(listNormalStyle.Render(header))
	b.WriteString("\n")

	rows := m.rows()
	end := min(m.Offset+m.Height, len(rows))
	var cells [][]string
	for i := m.Offset; i < end; i++ {
		r := rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		kind := r.Kind
		if r.Level > 0 {
			kind = fmt.Sprintf("%s h%d", r.Kind, r.Level)
		}
		cells = append(cells, []string{
			cursor,
			fmt.Sprint(r.Sequence),
			r.BlockID,
			kind,
			r.region,
			fmt.Sprintf("%.0f,%.0f", r.Rect.Origin.X, r.Rect.Origin.Y),
			fmt.Sprintf("%.1f", r.EstimatedHeight),
			fmt.Sprintf("%.2f", r.Emphasis),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Seq", "Block", "Kind", "Region", "Origin", "Height", "Emph").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col >= 5 {
				return listDimStyle
			}
			return listNormalStyle
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	var regions []string
	for _, r := range page.Regions {
		regions = append(regions, fmt.Sprintf("%s %.0f/%.0fpt", r.ID, r.ContentHeight(), r.Capacity))
	}
	b.WriteString(listDimStyle.Render("  " + strings.Join(regions, " · ")))
	if len(rows) > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(rows))))
	}
	return b.String()
}
