// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#2E7DBA") // separator blue
	accentColor  = lipgloss.Color("#E3A21A")
	errorColor   = lipgloss.Color("#C0392B")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// PrintVersion prints version information
func PrintVersion(w io.Writer, version string) {
	fmt.Fprintln(w, TitleStyle.Render("ipsdta 🎧"))
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Fprintln(w)
}

// PrintError prints an error message to stderr
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// KV is one row of a summary block.
type KV struct {
	Key, Value string
}

// PrintSummary prints a title followed by aligned key/value rows.
func PrintSummary(w io.Writer, title string, rows []KV) {
	fmt.Fprintln(w, TitleStyle.Render(title))
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r.Key))
	}
	keyStyle := KeyStyle.Width(width + 1)
	for _, r := range rows {
		fmt.Fprintf(w, "  %s %s\n", keyStyle.Render(r.Key+":"), ValueStyle.Render(r.Value))
	}
}

// LossTable renders the loss trace as a bordered table. Long traces keep the
// first and last `edge` entries with an ellipsis row in between.
func LossTable(loss []float64, edge int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedColor)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("iteration", "loss", "delta")

	for _, i := range lossRows(len(loss), edge) {
		if i < 0 {
			t.Row("…", "", "")
			continue
		}
		delta := ""
		if i > 0 {
			delta = strconv.FormatFloat(loss[i]-loss[i-1], 'g', 6, 64)
		}
		t.Row(strconv.Itoa(i), strconv.FormatFloat(loss[i], 'f', 4, 64), delta)
	}

	return t.Render()
}

// lossRows picks the indices shown by LossTable; -1 marks the elision.
func lossRows(n, edge int) []int {
	if edge < 1 || n <= 2*edge+1 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, 0, 2*edge+1)
	for i := 0; i < edge; i++ {
		out = append(out, i)
	}
	out = append(out, -1)
	for i := n - edge; i < n; i++ {
		out = append(out, i)
	}

	return out
}
