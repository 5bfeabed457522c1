package view

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// ErrUnknownRenderer is returned by Renderer for unregistered names.
var ErrUnknownRenderer = errors.New("unknown renderer")

var renderers = map[string]types.RenderFunc{
	"text": DefaultRender,
	"money": func(value any) *types.Node {
		if value == nil {
			return types.NewNode(TagCell, "")
		}
		return types.NewNode(TagCell, "$"+FormatValue(value))
	},
	"upper": func(value any) *types.Node {
		return types.NewNode(TagCell, strings.ToUpper(FormatValue(value)))
	},
}

// Renderer resolves a renderer named in a stored schema. The empty name and
// "text" both mean the default renderer.
func Renderer(name string) (types.RenderFunc, error) {
	if name == "" {
		return DefaultRender, nil
	}
	r, ok := renderers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, name)
	}
	return r, nil
}

// RendererNames lists the registered renderer names in sorted order.
func RendererNames() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Columns resolves column specs into columns, parsing sort kinds and looking
// up named renderers.
func Columns(specs []types.ColumnSpec) ([]types.Column, error) {
	cols := make([]types.Column, 0, len(specs))
	for _, s := range specs {
		kind, err := types.ParseSortKind(s.SortKind)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", s.ID, err)
		}
		render, err := Renderer(s.Render)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", s.ID, err)
		}
		title := s.Title
		if title == "" {
			title = s.ID
		}
		cols = append(cols, types.Column{
			ID:       s.ID,
			Title:    title,
			Sortable: s.Sortable,
			SortKind: kind,
			Render:   render,
		})
	}
	return cols, nil
}
