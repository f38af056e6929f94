package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/statement-ingest/internal/domain"
)

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: content,
			},
		},
	}
}

// TransactionToNotionProperties converts a canonical transaction to Notion
// page properties. "Ref Number" is the title property and the idempotency
// key: the sync matches existing pages by it.
func TransactionToNotionProperties(tx *domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		"Ref Number": notionapi.TitleProperty{
			Title: richText(tx.RefNumber),
		},
	}

	if tx.HasDate() {
		props["Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(time.Date(
						tx.Date.Year,
						tx.Date.Month,
						tx.Date.Day,
						0, 0, 0, 0, time.UTC,
					))
					return &d
				}(),
			},
		}
	}

	if tx.ExecMonth != "" {
		props["Month"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.ExecMonth,
			},
		}
	}

	if tx.Receiver != "" {
		props["Receiver"] = notionapi.RichTextProperty{
			RichText: richText(tx.Receiver),
		}
	}

	if tx.Title != "" {
		props["Description"] = notionapi.RichTextProperty{
			RichText: richText(tx.Title),
		}
	}

	amount, _ := tx.Amount.Float64()
	props["Amount"] = notionapi.NumberProperty{
		Number: amount,
	}

	if tx.TransactionType != "" {
		props["Type"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.TransactionType,
			},
		}
	}

	if tx.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.Category,
			},
		}
	}

	return props
}

// refNumberOfPage extracts the "Ref Number" title text from an existing
// Notion page, or "" when the page has no usable title.
func refNumberOfPage(page notionapi.Page) string {
	prop, ok := page.Properties["Ref Number"]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}
	out := ""
	for _, rt := range title.Title {
		out += rt.PlainText
	}
	return out
}
