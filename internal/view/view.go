// Package view projects a column schema and a row buffer into a render tree
// with named regions. The header region carries the sort annotation and an
// activation feed; the body region is either replaced wholesale or extended
// at its tail.
package view

import (
	"fmt"

	"github.com/mesh-intelligence/tablekit/internal/event"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Region names, exposed through the data-element attribute.
const (
	RegionContainer = "container"
	RegionHeader    = "header"
	RegionBody      = "body"
	RegionArrow     = "arrow"
)

// Attribute names used in the tree.
const (
	AttrElement  = "data-element"
	AttrID       = "data-id"
	AttrSortable = "data-sortable"
	AttrOrder    = "data-order"
	AttrHref     = "href"
)

// Node tags.
const (
	TagContainer = "container"
	TagTable     = "table"
	TagHeader    = "header"
	TagBody      = "body"
	TagRow       = "row"
	TagCell      = "cell"
	TagSpan      = "span"
)

// Activation is a discrete "select" gesture on a node of the header region.
type Activation struct {
	Target *types.Node
}

// View is the rendered tree of one table. It is not safe for concurrent use;
// the owning table serialises access.
type View struct {
	columns    []types.Column
	linkPrefix string

	root    *types.Node
	header  *types.Node
	body    *types.Node
	cells   map[string]*types.Node
	sorted  string
	feed    event.Feed[Activation]
	removed bool
}

// New builds the container, header and empty body for columns. Rows whose
// "id" is set link to linkPrefix+id.
func New(columns []types.Column, linkPrefix string) *View {
	v := &View{
		columns:    columns,
		linkPrefix: linkPrefix,
		cells:      make(map[string]*types.Node, len(columns)),
	}

	v.header = types.NewNode(TagHeader, "").SetAttr(AttrElement, RegionHeader)
	for _, col := range columns {
		cell := types.NewNode(TagCell, "").
			SetAttr(AttrID, col.ID).
			SetAttr(AttrSortable, fmt.Sprint(col.Sortable))
		arrow := types.NewNode(TagSpan, "").SetAttr(AttrElement, RegionArrow)
		cell.Append(types.NewNode(TagSpan, col.Title), arrow)
		v.header.Append(cell)
		v.cells[col.ID] = cell
	}
	v.body = types.NewNode(TagBody, "").SetAttr(AttrElement, RegionBody)

	table := types.NewNode(TagTable, "").Append(v.header, v.body)
	v.root = types.NewNode(TagContainer, "").SetAttr(AttrElement, RegionContainer).Append(table)
	return v
}

// Root returns the container node, or nil once detached.
func (v *View) Root() *types.Node {
	if v.removed {
		return nil
	}
	return v.root
}

// Region returns the named region (container, header or body), or nil when
// the name is unknown or the view is detached.
func (v *View) Region(name string) *types.Node {
	if v.removed {
		return nil
	}
	switch name {
	case RegionContainer:
		return v.root
	case RegionHeader:
		return v.header
	case RegionBody:
		return v.body
	}
	return nil
}

// SubElements returns every node carrying a data-element attribute, keyed by
// its value. Repeated names keep the last node in document order.
func (v *View) SubElements() map[string]*types.Node {
	out := map[string]*types.Node{}
	if v.removed {
		return out
	}
	v.root.Walk(func(n *types.Node) bool {
		if name, ok := n.Attr(AttrElement); ok {
			out[name] = n
		}
		return true
	})
	return out
}

// HeaderCell returns the header cell of a column, or nil.
func (v *View) HeaderCell(columnID string) *types.Node {
	return v.cells[columnID]
}

// SetSortIndicator moves the data-order annotation to the active sort column.
// An unsorted state clears it; at most one cell carries it.
func (v *View) SetSortIndicator(state types.SortState) {
	if v.sorted != "" {
		if cell := v.cells[v.sorted]; cell != nil {
			cell.RemoveAttr(AttrOrder)
		}
		v.sorted = ""
	}
	if !state.IsSorted() {
		return
	}
	cell := v.cells[state.ColumnID]
	if cell == nil {
		return
	}
	cell.SetAttr(AttrOrder, state.Direction.String())
	v.sorted = state.ColumnID
}

// SortIndicator returns the annotated column and its direction.
func (v *View) SortIndicator() (columnID, order string, ok bool) {
	if v.sorted == "" {
		return "", "", false
	}
	order, _ = v.cells[v.sorted].Attr(AttrOrder)
	return v.sorted, order, true
}

// ReplaceBody renders rows as the whole body.
func (v *View) ReplaceBody(rows []types.Row) {
	if v.removed {
		return
	}
	v.body.Clear()
	v.AppendBody(rows)
}

// AppendBody renders rows after the existing body rows, which are left as
// they are. It returns the new row nodes.
func (v *View) AppendBody(rows []types.Row) []*types.Node {
	if v.removed {
		return nil
	}
	added := make([]*types.Node, 0, len(rows))
	for _, row := range rows {
		n := v.renderRow(row)
		v.body.Append(n)
		added = append(added, n)
	}
	return added
}

// BodyRows returns the rendered row nodes in display order.
func (v *View) BodyRows() []*types.Node {
	if v.removed {
		return nil
	}
	return v.body.Children
}

// Activations is the header region's activation feed. Publishers check
// InHeader first; the table does so under its lock.
func (v *View) Activations() *event.Feed[Activation] {
	return &v.feed
}

// Detach drops the tree and closes the activation feed. Idempotent.
func (v *View) Detach() {
	if v.removed {
		return
	}
	v.removed = true
	v.feed.Close()
	v.body.Clear()
	v.root = nil
	v.header = nil
	v.body = nil
	v.cells = map[string]*types.Node{}
	v.sorted = ""
}

// Detached reports whether Detach has been called.
func (v *View) Detached() bool {
	return v.removed
}

// InHeader reports whether n lies inside the header region.
func (v *View) InHeader(n *types.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur == v.header {
			return true
		}
	}
	return false
}

func (v *View) renderRow(row types.Row) *types.Node {
	n := types.NewNode(TagRow, "")
	if id, ok := row[types.RowIDKey]; ok && id != nil {
		n.SetAttr(AttrHref, v.linkPrefix+fmt.Sprint(id))
	}
	for _, col := range v.columns {
		render := col.Render
		if render == nil {
			render = DefaultRender
		}
		n.Append(render(row[col.ID]))
	}
	return n
}

// DefaultRender boxes the raw value in a cell.
func DefaultRender(value any) *types.Node {
	return types.NewNode(TagCell, FormatValue(value))
}

// FormatValue formats a cell value for display. Nil renders empty.
func FormatValue(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
