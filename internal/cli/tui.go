package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/netgraph/pkg/connectivity"
	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/netlist"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Net rows
// =============================================================================

// NetRow is one net as shown by the explorer.
type NetRow struct {
	Name      string
	Special   bool
	Driver    string
	Loads     []string
	Violation *errors.NetError
}

// Status returns a short label for the row.
func (r NetRow) Status() string {
	switch {
	case r.Violation != nil:
		return string(r.Violation.Kind)
	case r.Special:
		return "special"
	}
	return "ok"
}

// netRows classifies every net of d the way graph construction would.
func netRows(d *netlist.Design) ([]NetRow, error) {
	instances, err := d.Instances()
	if err != nil {
		return nil, err
	}
	pins, err := d.Pins()
	if err != nil {
		return nil, err
	}
	nets, err := d.Nets()
	if err != nil {
		return nil, err
	}

	known := make(map[string]graph.Kind, len(instances)+len(pins))
	for _, inst := range instances {
		known[inst.Name] = graph.KindInstance
	}
	for _, p := range pins {
		known[p.Name] = graph.KindPin
	}
	resolve := func(ep connectivity.Endpoint) bool {
		k, ok := known[ep.Name]
		return ok && k == ep.Kind
	}

	rows := make([]NetRow, 0, len(nets))
	for _, n := range nets {
		row := NetRow{Name: n.Name}
		c, err := connectivity.Classify(n)
		if ne, ok := errors.AsNetError(err); ok {
			row.Violation = ne
			rows = append(rows, row)
			continue
		}
		row.Special = c.Special
		if c.Special {
			rows = append(rows, row)
			continue
		}

		row.Driver = c.Driver.Name
		if !resolve(c.Driver) {
			row.Violation = &errors.NetError{Net: n.Name, Kind: errors.ViolationDanglingTerminal, Terminal: c.Driver.Name}
		}
		for _, l := range c.Loads {
			row.Loads = append(row.Loads, l.Name)
			if row.Violation == nil && !resolve(l) {
				row.Violation = &errors.NetError{Net: n.Name, Kind: errors.ViolationDanglingTerminal, Terminal: l.Name}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// =============================================================================
// NetListModel - Interactive net browser
// =============================================================================

// NetListModel is the bubbletea model for browsing the nets of a design.
type NetListModel struct {
	Design   string
	Rows     []NetRow
	Cursor   int
	Height   int
	Offset   int
	Expanded bool // Show the loads of the selected net
	OnlyBad  bool // Show only nets with violations

	visible []int // Indices into Rows
}

// NewNetListModel creates a new net list model.
func NewNetListModel(design string, rows []NetRow) NetListModel {
	m := NetListModel{
		Design: design,
		Rows:   rows,
		Height: 15,
	}
	m.filter()
	return m
}

func (m *NetListModel) filter() {
	visible := make([]int, 0, len(m.Rows))
	for i, r := range m.Rows {
		if !m.OnlyBad || r.Violation != nil {
			visible = append(visible, i)
		}
	}
	m.visible = visible
	m.Cursor, m.Offset = 0, 0
}

// Selected returns the row under the cursor.
func (m NetListModel) Selected() (NetRow, bool) {
	if m.Cursor >= len(m.visible) {
		return NetRow{}, false
	}
	return m.Rows[m.visible[m.Cursor]], true
}

func (m NetListModel) Init() tea.Cmd {
	return nil
}

func (m NetListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			m.Expanded = !m.Expanded
		case "v":
			m.OnlyBad = !m.OnlyBad
			m.filter()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m NetListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Design))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ loads  v violations only  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.visible))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		driver := r.Driver
		if driver == "" {
			driver = "—"
		}
		rows = append(rows, []string{cursor, r.Name, driver, fmt.Sprint(len(r.Loads)), r.Status()})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Net", "Driver", "Loads", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.visible) {
				return lipgloss.NewStyle()
			}
			r := m.Rows[m.visible[idx]]
			base := lipgloss.NewStyle()
			switch {
			case r.Violation != nil:
				base = base.Foreground(colorRed)
			case r.Special:
				base = base.Foreground(colorDim)
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.visible)), len(m.visible))))

	if sel, ok := m.Selected(); ok && m.Expanded {
		b.WriteString("\n\n")
		b.WriteString(listSelectedStyle.Render(sel.Name))
		b.WriteString("\n")
		if sel.Violation != nil {
			b.WriteString(StyleError.Render("  " + sel.Violation.Error()))
			b.WriteString("\n")
		}
		for _, l := range sel.Loads {
			b.WriteString(listNormalStyle.Render("  " + iconArrow + " " + l))
			b.WriteString("\n")
		}
	}

	return b.String()
}
