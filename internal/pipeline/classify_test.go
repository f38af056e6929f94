package pipeline

import (
	"testing"

	"github.com/dvloznov/statement-ingest/internal/domain"
	"github.com/dvloznov/statement-ingest/internal/rules"
)

func TestApplyRules(t *testing.T) {
	tests := []struct {
		name     string
		receiver string
		entries  []rules.Entry
		want     string
	}{
		{
			name:     "no match leaves receiver untouched",
			receiver: "ZABKA Z123",
			entries: []rules.Entry{
				{Category: "Groceries", Patterns: []string{"BIEDRONKA"}},
			},
			want: "ZABKA Z123",
		},
		{
			name:     "simple substring match",
			receiver: "BIEDRONKA 4455 WARSZAWA",
			entries: []rules.Entry{
				{Category: "Groceries", Patterns: []string{"BIEDRONKA"}},
			},
			want: "Groceries",
		},
		{
			name:     "match is case-sensitive",
			receiver: "biedronka 4455",
			entries: []rules.Entry{
				{Category: "Groceries", Patterns: []string{"BIEDRONKA"}},
			},
			want: "biedronka 4455",
		},
		{
			name:     "later entry rematches rewritten value",
			receiver: "foobar shop",
			entries: []rules.Entry{
				{Category: "A", Patterns: []string{"foo"}},
				{Category: "B", Patterns: []string{"A"}},
			},
			want: "B",
		},
		{
			name:     "reversed order gives a different result",
			receiver: "foobar shop",
			entries: []rules.Entry{
				{Category: "B", Patterns: []string{"A"}},
				{Category: "A", Patterns: []string{"foo"}},
			},
			want: "A",
		},
		{
			name:     "first matching pattern within an entry is enough",
			receiver: "LIDL GDANSK",
			entries: []rules.Entry{
				{Category: "Groceries", Patterns: []string{"BIEDRONKA", "LIDL", "GDANSK"}},
			},
			want: "Groceries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := []*domain.Transaction{{Receiver: tt.receiver}}
			ApplyRules(txs, tt.entries)
			if txs[0].Receiver != tt.want {
				t.Errorf("receiver = %q, want %q", txs[0].Receiver, tt.want)
			}
		})
	}
}

func TestApplyRulesEmpty(t *testing.T) {
	txs := []*domain.Transaction{{Receiver: "SHOP"}}

	ApplyRules(txs, nil)
	if txs[0].Receiver != "SHOP" {
		t.Errorf("receiver = %q, want SHOP", txs[0].Receiver)
	}

	ApplyRules(nil, []rules.Entry{{Category: "A", Patterns: []string{"SHOP"}}})
}
