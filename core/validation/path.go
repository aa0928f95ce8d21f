package validation

import (
	"strings"

	"github.com/artpar/syncgate/core/schema"
)

// BuildItemPath renders the fully qualified path of the item at the top of
// the given frame stack, e.g. `orders[2].lineItems[sku-1].price`. Unnamed
// frames (the document root) are skipped; bracketed names attach without a
// dot separator.
func BuildItemPath(stack []schema.ItemEntry) string {
	var b strings.Builder
	for _, entry := range stack {
		if entry.Name == "" {
			continue
		}
		if b.Len() > 0 && !strings.HasPrefix(entry.Name, "[") {
			b.WriteString(".")
		}
		b.WriteString(entry.Name)
	}
	return b.String()
}

func push(stack []schema.ItemEntry, entry schema.ItemEntry) []schema.ItemEntry {
	// A fresh backing array per frame: ancestor slices handed to custom
	// validation callbacks must never observe later pushes.
	next := make([]schema.ItemEntry, len(stack)+1)
	copy(next, stack)
	next[len(stack)] = entry
	return next
}
