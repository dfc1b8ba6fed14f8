// Package render draws sensor tables and notices for the terminal.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/chrissnell/tankwatch/internal/constants"
	"github.com/chrissnell/tankwatch/internal/summary"
	"github.com/chrissnell/tankwatch/internal/types"
)

var (
	colorBorder = lipgloss.Color("238")
	colorLabel  = lipgloss.Color("243")
	colorTitle  = lipgloss.Color("39")
	colorDim    = lipgloss.Color("240")
	colorWarn   = lipgloss.Color("214")
	colorCrit   = lipgloss.Color("196")

	titleStyle  = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(colorLabel).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	emptyStyle  = lipgloss.NewStyle().Foreground(colorDim).Padding(1, 0)
)

// columns shown for each reading, in order
var readingHeaders = []string{"Date", "Time", "Water level", "Gas level", "Solar energy"}

// Table renders the rows of a selection followed by their summary.  An empty
// selection prints the no-data message instead.
func Table(w io.Writer, filtered types.FilteredTable, s summary.Summary) error {
	title := titleStyle.Render(fmt.Sprintf("Readings for %s %s", filtered.Selection.Date, filtered.Selection.Time))

	if filtered.Empty() {
		_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, title, emptyStyle.Render(constants.NoDataMessage)))
		return err
	}

	rows := make([][]string, 0, len(filtered.Readings))
	for _, r := range filtered.Readings {
		rows = append(rows, []string{
			r.Date.String(),
			r.TimeOfDay.String(),
			formatValue(r.FloatSensor),
			formatValue(r.GaseSensor),
			formatValue(r.SolarSensor),
		})
	}

	readings := newTable(readingHeaders, rows, 2)
	stats := summaryTable(s)

	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, title, readings.String(), stats.String()))
	return err
}

// Options lists the selectable dates and times of day.
func Options(w io.Writer, dates []types.Date, times []types.TimeOfDay) error {
	n := max(len(dates), len(times))
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{"", ""}
		if i < len(dates) {
			rows[i][0] = dates[i].String()
		}
		if i < len(times) {
			rows[i][1] = times[i].String()
		}
	}

	if n == 0 {
		_, err := fmt.Fprintln(w, emptyStyle.Render("No dates or times available."))
		return err
	}

	_, err := fmt.Fprintln(w, newTable([]string{"Date", "Time"}, rows, -1).String())
	return err
}

// Notices prints user-facing messages, errors in red and warnings in amber.
func Notices(w io.Writer, notices []types.Notice) error {
	for _, n := range notices {
		style := lipgloss.NewStyle().Foreground(colorCrit).Bold(true)
		label := "ERROR"
		if n.Level == types.NoticeWarning {
			style = lipgloss.NewStyle().Foreground(colorWarn)
			label = "WARNING"
		}
		if _, err := fmt.Fprintln(w, style.Render(fmt.Sprintf("%s: %s", label, n.Message))); err != nil {
			return err
		}
	}
	return nil
}

func summaryTable(s summary.Summary) *table.Table {
	rows := make([][]string, 0, len(s.Sensors))
	for _, st := range s.Sensors {
		rows = append(rows, []string{
			sensorLabel(st.Sensor),
			strconv.Itoa(st.Count),
			formatValue(st.Min),
			formatValue(st.Max),
			formatValue(st.Mean),
			formatValue(st.StdDev),
		})
	}
	return newTable([]string{"Sensor", "Count", "Min", "Max", "Mean", "Std dev"}, rows, 1)
}

// newTable builds a bordered table.  Columns at index firstNumeric and later
// are right-aligned; pass -1 to left-align everything.
func newTable(headers []string, rows [][]string, firstNumeric int) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case firstNumeric >= 0 && col >= firstNumeric:
				return numberStyle
			default:
				return cellStyle
			}
		})
}

func sensorLabel(field string) string {
	switch field {
	case types.FieldFloatSensor:
		return "Water level"
	case types.FieldGaseSensor:
		return "Gas level"
	case types.FieldSolarSensor:
		return "Solar energy"
	}
	return field
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
