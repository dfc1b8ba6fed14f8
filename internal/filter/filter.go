// Package filter selects readings by exact date and time of day.
package filter

import "github.com/chrissnell/tankwatch/internal/types"

// Apply returns every row whose date and time of day both equal the
// selection, in table order.  No match is a valid, empty result.
func Apply(table *types.SensorTable, date types.Date, tod types.TimeOfDay) types.FilteredTable {
	sel := types.FilterSelection{Date: date, Time: tod}
	matched, _ := Partition(table, sel)
	return types.FilteredTable{Selection: sel, Readings: matched}
}

// Partition splits the table into matching and non-matching rows.  Together
// they always hold every row of the table.
func Partition(table *types.SensorTable, sel types.FilterSelection) (matched, rest []types.SensorReading) {
	matched = []types.SensorReading{}
	if table == nil {
		return matched, nil
	}
	for _, r := range table.Readings {
		if r.Date == sel.Date && r.TimeOfDay == sel.Time {
			matched = append(matched, r)
		} else {
			rest = append(rest, r)
		}
	}
	return matched, rest
}

// Options returns the distinct dates and times of day, each in the order
// they first appear.  The lists are independent: a date/time pair taken
// from them is not guaranteed to exist in the table.
func Options(table *types.SensorTable) ([]types.Date, []types.TimeOfDay) {
	return table.Dates(), table.Times()
}

// DefaultSelection is the first date and first time of day, the same as
// picking index 0 from each option list.  ok is false for an empty table.
func DefaultSelection(table *types.SensorTable) (sel types.FilterSelection, ok bool) {
	if table.Empty() {
		return sel, false
	}
	first := table.Readings[0]
	return types.FilterSelection{Date: first.Date, Time: first.TimeOfDay}, true
}
