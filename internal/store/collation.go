package store

import (
	sqlite "modernc.org/sqlite"

	"github.com/mesh-intelligence/tablekit/internal/collate"
)

// CollationName is the SQLite collation that orders text the way the table
// sorts strings locally, so remote and local sorting agree.
const CollationName = "TABLEKIT"

func init() {
	sqlite.MustRegisterCollationUtf8(CollationName, collate.Compare)
}
