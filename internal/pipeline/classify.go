package pipeline

import (
	"strings"

	"github.com/dvloznov/statement-ingest/internal/domain"
	"github.com/dvloznov/statement-ingest/internal/rules"
)

// ApplyRules rewrites each transaction's receiver with the matching rule
// category. It folds over the entries in order: when any of an entry's
// patterns is a substring (case-sensitive) of the receiver's current value,
// the receiver is overwritten with the entry's category. A later entry can
// match the already-rewritten value of an earlier one, so the last matching
// entry in mapping order wins. Reordering the rule mapping can change the
// result; tests pin this behavior.
func ApplyRules(txs []*domain.Transaction, entries []rules.Entry) {
	for _, entry := range entries {
		for _, tx := range txs {
			for _, pattern := range entry.Patterns {
				if strings.Contains(tx.Receiver, pattern) {
					tx.Receiver = entry.Category
					break
				}
			}
		}
	}
}
