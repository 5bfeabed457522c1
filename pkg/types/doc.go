// Package types defines the column schema, sort and page state, fetch query,
// render node and configuration types shared by the tablekit packages, and the
// standard error values.
// See docs/ARCHITECTURE.md § Table Component.
package types
