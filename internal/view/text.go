package view

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Arrow glyphs for the annotated header cell.
const (
	ArrowAsc  = "↑"
	ArrowDesc = "↓"
)

// HeaderTitles returns the header text of every column, with an arrow on the
// annotated one.
func (v *View) HeaderTitles() []string {
	titles := make([]string, 0, len(v.columns))
	for _, col := range v.columns {
		title := col.Title
		if cell := v.cells[col.ID]; cell != nil {
			if order, ok := cell.Attr(AttrOrder); ok {
				title += " " + arrowFor(order)
			}
		}
		titles = append(titles, title)
	}
	return titles
}

// BodyText returns the text content of every cell, one slice per row.
func (v *View) BodyText() [][]string {
	rows := v.BodyRows()
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := make([]string, 0, len(r.Children))
		for _, c := range r.Children {
			cells = append(cells, c.TextContent())
		}
		out = append(out, cells)
	}
	return out
}

// cellStyle pads every column but the last by two spaces.
var cellStyle = lipgloss.NewStyle().PaddingRight(2)

// WriteText prints the view as an aligned plain-text table.
func (v *View) WriteText(w io.Writer) error {
	if v.removed {
		return nil
	}
	return WriteTable(w, v.HeaderTitles(), v.BodyText())
}

// WriteTable prints headers and rows as a borderless table. Columns are
// sized by display width, so wide runes stay aligned.
func WriteTable(w io.Writer, headers []string, rows [][]string) error {
	last := len(headers) - 1
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == last {
				return lipgloss.NewStyle()
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	_, err := io.WriteString(w, t.Render()+"\n")
	return err
}

func arrowFor(order string) string {
	if order == "desc" {
		return ArrowDesc
	}
	return ArrowAsc
}
