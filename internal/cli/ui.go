package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for violations.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Stats Display
// =============================================================================

// statsLine formats graph statistics on a single line.
func statsLine(s pipeline.Stats, cached bool) string {
	parts := []string{
		fmt.Sprintf("%d vertices", s.Vertices),
		fmt.Sprintf("%d edges", s.Edges),
	}
	if s.SpecialNets > 0 {
		parts = append(parts, fmt.Sprintf("%d special nets", s.SpecialNets))
	}
	if s.InvalidNets > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d skipped", s.InvalidNets)))
	}

	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}
	parts = append(parts, statusStyle.Render(status))

	var b strings.Builder
	b.WriteString("  ")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(StyleDim.Render(" · "))
		}
		b.WriteString(StyleDim.Render(part))
	}
	return b.String()
}

// printStats prints graph statistics on a single line.
func printStats(s pipeline.Stats, cached bool) {
	fmt.Println(statsLine(s, cached))
}

// =============================================================================
// Reports
// =============================================================================

// violationTable renders violations as a bordered table.
func violationTable(violations []*errors.NetError) string {
	rows := make([][]string, 0, len(violations))
	for _, v := range violations {
		detail := v.Terminal
		if len(v.Drivers) > 0 {
			detail = strings.Join(v.Drivers, ", ")
		}
		rows = append(rows, []string{v.Net, string(v.Kind), string(v.Code()), detail})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Net", "Violation", "Code", "Detail").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case col == 1:
				return StyleError
			case col == 2:
				return StyleDim
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// writeCheckReport writes the summary and violation table of a check run.
func writeCheckReport(w io.Writer, design string, s pipeline.Stats, violations []*errors.NetError) {
	fmt.Fprintln(w, StyleTitle.Render(design))
	for _, kv := range [][2]string{
		{"instances", strconv.Itoa(s.Instances)},
		{"pins", strconv.Itoa(s.Pins)},
		{"nets", strconv.Itoa(s.Nets)},
		{"special", strconv.Itoa(s.SpecialNets)},
		{"vertices", strconv.Itoa(s.Vertices)},
		{"edges", strconv.Itoa(s.Edges)},
	} {
		keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
		fmt.Fprintln(w, "  "+keyStyle.Render(kv[0])+" "+StyleNumber.Render(kv[1]))
	}
	fmt.Fprintln(w)

	if len(violations) == 0 {
		fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" no violations")
		return
	}
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+
		StyleError.Render(fmt.Sprintf("%d invalid nets", len(violations))))
	fmt.Fprintln(w, violationTable(violations))
}

// ErrorMessage formats err for the terminal as "[CODE] message". Net
// violations always carry the net, the violation kind and the offending
// drivers or terminal.
func ErrorMessage(err error) string {
	msg := errors.UserMessage(err)
	if ne, ok := errors.AsNetError(err); ok {
		msg = ne.Error()
	}
	if code := errors.GetCode(err); code != "" {
		return fmt.Sprintf("[%s] %s", code, msg)
	}
	return msg
}
