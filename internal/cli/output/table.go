package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by views that print as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// Grouper is implemented by views whose leading columns repeat across
// consecutive rows, such as the path and owner of one ACL. Repeated
// cells print blank after the first row of a group.
type Grouper interface {
	GroupColumns() int
}

// EmptyNoter is implemented by views that print a note instead of an
// empty table.
type EmptyNoter interface {
	EmptyNote() string
}

func newTable(w io.Writer, sep string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(sep)
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// PrintTable writes data as an aligned, borderless table.
func PrintTable(w io.Writer, data TableRenderer) error {
	rows := data.Rows()
	if len(rows) == 0 {
		if n, ok := data.(EmptyNoter); ok {
			_, err := fmt.Fprintln(w, n.EmptyNote())
			return err
		}
	}
	if g, ok := data.(Grouper); ok {
		rows = collapseGroups(rows, g.GroupColumns())
	}

	table := newTable(w, "")
	table.SetHeader(data.Headers())
	table.SetAutoFormatHeaders(true)
	table.AppendBulk(rows)
	table.Render()
	return nil
}

// collapseGroups blanks the first n cells of a row when they equal the
// row above. Rows are copied; the view is left untouched.
func collapseGroups(rows [][]string, n int) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
		if i == 0 || n <= 0 || len(row) < n || len(rows[i-1]) < n {
			continue
		}
		same := true
		for c := 0; c < n; c++ {
			if row[c] != rows[i-1][c] {
				same = false
				break
			}
		}
		if same {
			for c := 0; c < n; c++ {
				out[i][c] = ""
			}
		}
	}
	return out
}

// TableData is an ad-hoc TableRenderer built row by row.
type TableData struct {
	headers []string
	rows    [][]string
	note    string
}

// NewTableData returns an empty table with the given headers.
func NewTableData(headers ...string) *TableData {
	return &TableData{headers: headers}
}

// AddRow appends a row.
func (t *TableData) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// WithEmptyNote sets the note printed when the table has no rows.
func (t *TableData) WithEmptyNote(note string) *TableData {
	t.note = note
	return t
}

// Headers implements TableRenderer.
func (t *TableData) Headers() []string { return t.headers }

// Rows implements TableRenderer.
func (t *TableData) Rows() [][]string { return t.rows }

// EmptyNote implements EmptyNoter.
func (t *TableData) EmptyNote() string {
	if t.note == "" {
		return "(none)"
	}
	return t.note
}

// SimpleTable prints key/value pairs as "key: value" lines, with the
// values aligned. Pairs with an empty value are skipped.
func SimpleTable(w io.Writer, pairs [][2]string) error {
	table := newTable(w, ":")
	table.SetAutoFormatHeaders(false)
	for _, pair := range pairs {
		if pair[1] == "" {
			continue
		}
		table.Append([]string{pair[0], pair[1]})
	}
	table.Render()
	return nil
}
