// Package listview holds the state behind every tabular view in the
// dashboard: filtering, column sorting, cursor movement and row drill-down
// over an in-memory slice. Rendering is left to the caller.
package listview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rileyhilliard/portalctl/internal/fetch"
)

// Undefined is shown in place of absent values.
const Undefined = "Undefined"

// ShimmerRows is the number of placeholder rows drawn while loading.
const ShimmerRows = 5

// OrUndefined returns s, or Undefined when s is blank.
func OrUndefined(s string) string {
	if strings.TrimSpace(s) == "" {
		return Undefined
	}
	return s
}

// SortDir is the sort state of a single column.
type SortDir int

const (
	Unsorted SortDir = iota
	Ascending
	Descending
)

// Indicator returns the header suffix for the direction.
func (d SortDir) Indicator() string {
	switch d {
	case Ascending:
		return " ▲"
	case Descending:
		return " ▼"
	default:
		return ""
	}
}

// Column describes one table column.
type Column[T any] struct {
	Title string
	Width int
	Value func(T) string

	// Less overrides the default comparator, which compares Value
	// case-insensitively.
	Less func(a, b T) bool
}

func (c Column[T]) less(a, b T) bool {
	if c.Less != nil {
		return c.Less(a, b)
	}
	return strings.ToLower(c.Value(a)) < strings.ToLower(c.Value(b))
}

// List is the state of one list view.
type List[T any] struct {
	columns []Column[T]
	filterOn func(T) string
	nameOf   func(T) string

	source []T
	view   []T
	filter string

	sortCol int
	sortDir SortDir

	cursor int

	detailName string
	detailOpen bool
}

// New creates an empty list. filterOn selects the field the free-text filter
// matches against; nameOf identifies a row for drill-down.
func New[T any](columns []Column[T], filterOn, nameOf func(T) string) *List[T] {
	return &List[T]{
		columns:  columns,
		filterOn: filterOn,
		nameOf:   nameOf,
		sortCol:  -1,
	}
}

// Columns returns the column definitions.
func (l *List[T]) Columns() []Column[T] { return l.columns }

// SetItems replaces the backing data and re-derives the visible rows,
// keeping the current filter and sort.
func (l *List[T]) SetItems(items []T) {
	l.source = items
	l.rebuild()
	if l.sortCol >= 0 {
		l.applySort()
	}
	l.clampCursor()
}

// Source returns the unfiltered backing slice.
func (l *List[T]) Source() []T { return l.source }

// Visible returns the filtered, sorted rows.
func (l *List[T]) Visible() []T { return l.view }

// Count is the number of visible rows.
func (l *List[T]) Count() int { return len(l.view) }

// CountLabel renders the "Showing N items" caption.
func (l *List[T]) CountLabel() string {
	return fmt.Sprintf("Showing %d items", len(l.view))
}

// Filter returns the current filter text.
func (l *List[T]) Filter() string { return l.filter }

// SetFilter filters the full source by case-insensitive substring match on
// the filter field. Column sort state is cleared. An empty filter makes the
// visible rows the source slice itself.
func (l *List[T]) SetFilter(text string) {
	l.filter = text
	l.sortCol = -1
	l.sortDir = Unsorted
	l.rebuild()
	l.clampCursor()
}

func (l *List[T]) rebuild() {
	needle := strings.ToLower(strings.TrimSpace(l.filter))
	if needle == "" || l.filterOn == nil {
		l.view = l.source
		return
	}

	filtered := make([]T, 0, len(l.source))
	for _, item := range l.source {
		if strings.Contains(strings.ToLower(l.filterOn(item)), needle) {
			filtered = append(filtered, item)
		}
	}
	l.view = filtered
}

// ToggleSort sorts by column col: ascending on the first press, flipping
// direction on each repeated press. Every other column becomes unsorted.
// Out-of-range columns are ignored.
func (l *List[T]) ToggleSort(col int) {
	if col < 0 || col >= len(l.columns) {
		return
	}

	if l.sortCol == col && l.sortDir == Ascending {
		l.sortDir = Descending
	} else {
		l.sortCol = col
		l.sortDir = Ascending
	}
	l.applySort()
}

// SortState returns the direction for column col.
func (l *List[T]) SortState(col int) SortDir {
	if col == l.sortCol {
		return l.sortDir
	}
	return Unsorted
}

// applySort stably sorts a copy of the visible rows so the source is never
// reordered.
func (l *List[T]) applySort() {
	sorted := make([]T, len(l.view))
	copy(sorted, l.view)

	col := l.columns[l.sortCol]
	desc := l.sortDir == Descending
	sort.SliceStable(sorted, func(i, j int) bool {
		if desc {
			return col.less(sorted[j], sorted[i])
		}
		return col.less(sorted[i], sorted[j])
	})
	l.view = sorted
}

// NameOf returns the drill-down identity of item.
func (l *List[T]) NameOf(item T) string { return l.nameOf(item) }

// Cursor returns the highlighted row index.
func (l *List[T]) Cursor() int { return l.cursor }

// Current returns the highlighted row.
func (l *List[T]) Current() (T, bool) {
	var zero T
	if l.cursor < 0 || l.cursor >= len(l.view) {
		return zero, false
	}
	return l.view[l.cursor], true
}

func (l *List[T]) Up() {
	if l.cursor > 0 {
		l.cursor--
	}
}

func (l *List[T]) Down() {
	if l.cursor < len(l.view)-1 {
		l.cursor++
	}
}

func (l *List[T]) First() { l.cursor = 0 }

func (l *List[T]) Last() {
	if len(l.view) > 0 {
		l.cursor = len(l.view) - 1
	}
}

// SelectName moves the cursor to the visible row named name.
func (l *List[T]) SelectName(name string) bool {
	for i, item := range l.view {
		if l.nameOf(item) == name {
			l.cursor = i
			return true
		}
	}
	return false
}

func (l *List[T]) clampCursor() {
	if l.cursor >= len(l.view) {
		l.cursor = len(l.view) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

// ToggleDetail opens the drill-down view on the entity called name, or
// closes it when it is already open on that entity.
func (l *List[T]) ToggleDetail(name string) {
	if l.detailOpen && l.detailName == name {
		l.CloseDetail()
		return
	}
	l.detailName = name
	l.detailOpen = true
}

// CloseDetail closes the drill-down view.
func (l *List[T]) CloseDetail() {
	l.detailOpen = false
	l.detailName = ""
}

// DetailOpen reports whether the drill-down view is showing.
func (l *List[T]) DetailOpen() bool { return l.detailOpen }

// DetailName returns the entity the drill-down view is showing.
func (l *List[T]) DetailName() string { return l.detailName }

// Detail returns the drilled-into entity from the source data.
func (l *List[T]) Detail() (T, bool) {
	var zero T
	if !l.detailOpen {
		return zero, false
	}
	for _, item := range l.source {
		if l.nameOf(item) == l.detailName {
			return item, true
		}
	}
	return zero, false
}

// Rows projects the visible rows into cell strings.
func (l *List[T]) Rows() [][]string {
	rows := make([][]string, len(l.view))
	for i, item := range l.view {
		row := make([]string, len(l.columns))
		for j, c := range l.columns {
			row[j] = OrUndefined(c.Value(item))
		}
		rows[i] = row
	}
	return rows
}

// ShowShimmer reports whether the loading placeholder should be drawn: the
// source is empty and the fetch has not failed.
func (l *List[T]) ShowShimmer(state fetch.State) bool {
	return len(l.source) == 0 && state != fetch.Error
}

// Shimmer returns ShimmerRows placeholder rows, each cell a bar sized to a
// varying fraction of its column width.
func (l *List[T]) Shimmer() [][]string {
	fractions := []float64{0.9, 0.6, 0.75, 0.5, 0.8}
	rows := make([][]string, ShimmerRows)
	for i := range rows {
		row := make([]string, len(l.columns))
		for j, c := range l.columns {
			f := fractions[(i+j)%len(fractions)]
			n := int(float64(c.Width) * f)
			if n < 1 {
				n = 1
			}
			row[j] = strings.Repeat("░", n)
		}
		rows[i] = row
	}
	return rows
}

// Reset clears data, filter, sort, cursor and drill-down.
func (l *List[T]) Reset() {
	l.source = nil
	l.view = nil
	l.filter = ""
	l.sortCol = -1
	l.sortDir = Unsorted
	l.cursor = 0
	l.CloseDetail()
}
