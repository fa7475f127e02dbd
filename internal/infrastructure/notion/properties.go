package notion

import (
	"time"

	"github.com/jomei/notionapi"

	"CanvasNotionSync/internal/domain"
)

// Property names of the fixed target schema.
const (
	propName        = "Name"
	propUpdated     = "Assignment Updated Date"
	propClass       = "Class"
	propDescription = "Description"
	propDueDate     = "Due Date"
	propID          = "ID"
	propLink        = "Link"
	propPoints      = "Points"
	propScore       = "Score"
	propStatus      = "Status"
	propSubmitted   = "Submitted Date"
)

// Notion caps a rich_text content block at 2000 characters; longer
// descriptions would fail the whole page write.
const maxRichTextLen = 2000

func databaseProperties() notionapi.PropertyConfigs {
	return notionapi.PropertyConfigs{
		propName:        notionapi.TitlePropertyConfig{Type: notionapi.PropertyConfigTypeTitle},
		propUpdated:     notionapi.DatePropertyConfig{Type: notionapi.PropertyConfigTypeDate},
		propClass:       notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
		propDescription: notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
		propDueDate:     notionapi.DatePropertyConfig{Type: notionapi.PropertyConfigTypeDate},
		propID:          notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
		propLink:        notionapi.URLPropertyConfig{Type: notionapi.PropertyConfigTypeURL},
		propPoints:      notionapi.NumberPropertyConfig{Type: notionapi.PropertyConfigTypeNumber, Number: notionapi.NumberFormat{Format: notionapi.FormatNumber}},
		propScore:       notionapi.NumberPropertyConfig{Type: notionapi.PropertyConfigTypeNumber, Number: notionapi.NumberFormat{Format: notionapi.FormatNumber}},
		propStatus: notionapi.SelectPropertyConfig{
			Type:   notionapi.PropertyConfigTypeSelect,
			Select: notionapi.Select{Options: statusOptions()},
		},
		propSubmitted: notionapi.DatePropertyConfig{Type: notionapi.PropertyConfigTypeDate},
	}
}

func statusOptions() []notionapi.Option {
	colors := map[domain.Status]notionapi.Color{
		domain.StatusOverdue:    notionapi.ColorRed,
		domain.StatusInProgress: notionapi.ColorYellow,
		domain.StatusCompleted:  notionapi.ColorGreen,
		domain.StatusNotStarted: notionapi.ColorGray,
	}

	options := make([]notionapi.Option, 0, len(colors))
	for _, status := range domain.Statuses() {
		options = append(options, notionapi.Option{
			Name:  string(status),
			Color: colors[status],
		})
	}
	return options
}

func pageProperties(a domain.Assignment) notionapi.Properties {
	props := notionapi.Properties{
		propName:        notionapi.TitleProperty{Title: richText(a.Name)},
		propClass:       notionapi.RichTextProperty{RichText: richText(a.CourseName)},
		propDescription: notionapi.RichTextProperty{RichText: richText(truncate(a.Description, maxRichTextLen))},
		propID:          notionapi.RichTextProperty{RichText: richText(a.ID)},
		propLink:        notionapi.URLProperty{URL: a.Link},
		propStatus:      notionapi.SelectProperty{Select: notionapi.Option{Name: string(a.Status)}},
		propUpdated:     notionapi.DateProperty{Date: dateObject(a.UpdatedDate)},
	}

	if a.DueDate != nil {
		props[propDueDate] = notionapi.DateProperty{Date: dateObject(*a.DueDate)}
	}
	if a.SubmittedDate != nil {
		props[propSubmitted] = notionapi.DateProperty{Date: dateObject(*a.SubmittedDate)}
	}
	if a.PointsPossible != nil {
		props[propPoints] = notionapi.NumberProperty{Number: *a.PointsPossible}
	}
	if a.Score != nil {
		props[propScore] = notionapi.NumberProperty{Number: *a.Score}
	}

	return props
}

func richText(content string) []notionapi.RichText {
	if content == "" {
		return []notionapi.RichText{}
	}
	return []notionapi.RichText{{Text: &notionapi.Text{Content: content}}}
}

func dateObject(t time.Time) *notionapi.DateObject {
	d := notionapi.Date(t)
	return &notionapi.DateObject{Start: &d}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
