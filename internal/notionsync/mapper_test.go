package notionsync

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-ingest/internal/domain"
)

func TestTransactionToNotionProperties(t *testing.T) {
	tx := &domain.Transaction{
		Date:            civil.Date{Year: 2024, Month: 2, Day: 1},
		ExecMonth:       "2024-02",
		Receiver:        "Groceries",
		Title:           "Zakupy",
		Amount:          decimal.RequireFromString("-123.45"),
		TransactionType: "Płatność kartą",
		Category:        "Zakupy",
		RefNumber:       "REF001",
	}

	props := TransactionToNotionProperties(tx)

	title, ok := props["Ref Number"].(notionapi.TitleProperty)
	if !ok {
		t.Fatalf("Ref Number property has type %T", props["Ref Number"])
	}
	if len(title.Title) != 1 || title.Title[0].Text.Content != "REF001" {
		t.Errorf("title = %+v, want REF001", title.Title)
	}

	if _, ok := props["Date"].(notionapi.DateProperty); !ok {
		t.Errorf("Date property has type %T", props["Date"])
	}

	month, ok := props["Month"].(notionapi.SelectProperty)
	if !ok || month.Select.Name != "2024-02" {
		t.Errorf("Month = %+v, want select 2024-02", props["Month"])
	}

	amount, ok := props["Amount"].(notionapi.NumberProperty)
	if !ok || amount.Number != -123.45 {
		t.Errorf("Amount = %+v, want -123.45", props["Amount"])
	}

	category, ok := props["Category"].(notionapi.SelectProperty)
	if !ok || category.Select.Name != "Zakupy" {
		t.Errorf("Category = %+v, want Zakupy", props["Category"])
	}
}

func TestTransactionToNotionPropertiesUnknownDate(t *testing.T) {
	tx := &domain.Transaction{
		ExecMonth: domain.ExecMonthUnknown,
		Amount:    decimal.RequireFromString("10"),
		RefNumber: "REF002",
	}

	props := TransactionToNotionProperties(tx)

	if _, ok := props["Date"]; ok {
		t.Error("unparsable-date transaction must not carry a Date property")
	}

	month, ok := props["Month"].(notionapi.SelectProperty)
	if !ok || month.Select.Name != domain.ExecMonthUnknown {
		t.Errorf("Month = %+v, want select %q", props["Month"], domain.ExecMonthUnknown)
	}
}

func TestRefNumberOfPage(t *testing.T) {
	page := notionapi.Page{
		Properties: notionapi.Properties{
			"Ref Number": &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: "REF001"}},
			},
		},
	}

	if got := refNumberOfPage(page); got != "REF001" {
		t.Errorf("refNumberOfPage = %q, want REF001", got)
	}
}

func TestRefNumberOfPageMissingTitle(t *testing.T) {
	tests := []struct {
		name string
		page notionapi.Page
	}{
		{name: "no properties", page: notionapi.Page{Properties: notionapi.Properties{}}},
		{
			name: "empty title",
			page: notionapi.Page{
				Properties: notionapi.Properties{
					"Ref Number": &notionapi.TitleProperty{},
				},
			},
		},
		{
			name: "wrong property type",
			page: notionapi.Page{
				Properties: notionapi.Properties{
					"Ref Number": &notionapi.RichTextProperty{},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := refNumberOfPage(tt.page); got != "" {
				t.Errorf("refNumberOfPage = %q, want empty", got)
			}
		})
	}
}
