// Package collate provides the string ordering used by table sorting and by
// the row store: Russian/English locale collation where case differences
// only break ties, and on a tie uppercase sorts before lowercase.
package collate

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collation compares strings with upper-first tie breaking. The zero value is
// not usable; call New. A Collation is safe for concurrent use.
type Collation struct {
	mu      sync.Mutex
	primary *collate.Collator // case-insensitive
	full    *collate.Collator // case-sensitive, lowercase first
}

// DefaultLocales are the locales the default collation is built for, in
// preference order.
var DefaultLocales = []language.Tag{language.Russian, language.English}

// New builds a Collation for the first supported tag.
func New(tags ...language.Tag) *Collation {
	tag := language.Und
	if len(tags) > 0 {
		tag = tags[0]
	}
	return &Collation{
		primary: collate.New(tag, collate.IgnoreCase),
		full:    collate.New(tag),
	}
}

// Compare returns -1, 0 or 1. Strings that differ only in case order with the
// uppercase form first: "Apple" < "apple" < "banana".
func (c *Collation) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r := c.primary.CompareString(a, b); r != 0 {
		return r
	}
	// x/text orders lowercase first at the tertiary level and does not
	// implement the caseFirst key, so the case-sensitive result is inverted.
	return -c.full.CompareString(a, b)
}

var (
	defaultOnce sync.Once
	defaultColl *Collation
)

// Default returns the shared Russian/English collation.
func Default() *Collation {
	defaultOnce.Do(func() {
		defaultColl = New(DefaultLocales...)
	})
	return defaultColl
}

// Compare compares a and b with the default collation.
func Compare(a, b string) int {
	return Default().Compare(a, b)
}
