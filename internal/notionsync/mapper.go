package notionsync

import (
	"github.com/dvloznov/bill-sync/internal/domain"
	"github.com/jomei/notionapi"
)

// References are the page ids a bill page relates to. Empty ids are omitted.
type References struct {
	Category  string
	Payee     string
	Method    string
	Direction string
	Calendar  CalendarBuckets
}

// TransactionToNotionProperties converts a Transaction to bill database properties.
func TransactionToNotionProperties(tx *domain.Transaction, refs References) notionapi.Properties {
	occurred := notionapi.Date(tx.OccurredAt)

	props := notionapi.Properties{
		PropProduct: titleProperty(tx.Description),
		PropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &occurred},
		},
		PropAmount: notionapi.NumberProperty{
			Number: tx.Amount.InexactFloat64(),
		},
		PropTransactionID: richTextProperty(tx.TransactionID),
	}

	if tx.Note != "" {
		props[PropNote] = richTextProperty(tx.Note)
	}

	setRelation(props, PropCategory, refs.Category)
	setRelation(props, PropPayee, refs.Payee)
	setRelation(props, PropMethod, refs.Method)
	setRelation(props, PropDirection, refs.Direction)
	setRelation(props, PropYear, refs.Calendar.Year)
	setRelation(props, PropMonth, refs.Calendar.Month)
	setRelation(props, PropWeek, refs.Calendar.Week)
	setRelation(props, PropDay, refs.Calendar.Day)

	return props
}

func setRelation(props notionapi.Properties, name, pageID string) {
	if pageID == "" {
		return
	}
	props[name] = notionapi.RelationProperty{
		Relation: []notionapi.Relation{
			{ID: notionapi.PageID(pageID)},
		},
	}
}

func titleProperty(content string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Title: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{
					Content: content,
				},
			},
		},
	}
}

func richTextProperty(content string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{
					Content: content,
				},
			},
		},
	}
}
