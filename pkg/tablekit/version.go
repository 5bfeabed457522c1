// Package tablekit holds release metadata for the tablekit module.
package tablekit

// Version is the current release.
const Version = "0.1.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/tablekit"
