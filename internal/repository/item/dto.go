package item

import (
	"fmt"
	"time"

	"github.com/foundry-app/foundry/internal/domain"
)

// Hash field names for stored items.
const (
	fieldReportType   = "report_type"
	fieldItemType     = "item_type"
	fieldDescription  = "description"
	fieldLocation     = "location"
	fieldEventDate    = "event_date"
	fieldContactName  = "contact_name"
	fieldContactPhone = "contact_phone"
	fieldContactEmail = "contact_email"
	fieldImageURL     = "image_url"
	fieldStatus       = "status"
	fieldExternalID   = "external_match_id"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"
)

// itemToFields converts a domain Item into a flat map for HSET.
func itemToFields(item domain.Item) map[string]string {
	return map[string]string{
		fieldReportType:   string(item.ReportType),
		fieldItemType:     item.ItemType,
		fieldDescription:  item.Description,
		fieldLocation:     item.Location,
		fieldEventDate:    item.EventDate.UTC().Format(time.RFC3339),
		fieldContactName:  item.Contact.Name,
		fieldContactPhone: item.Contact.Phone,
		fieldContactEmail: item.Contact.Email,
		fieldImageURL:     item.ImageURL,
		fieldStatus:       string(item.Status),
		fieldExternalID:   item.ExternalMatchID,
		fieldCreatedAt:    item.CreatedAt.UTC().Format(time.RFC3339Nano),
		fieldUpdatedAt:    item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// itemFromFields converts a flat hash map back into a domain Item.
func itemFromFields(id string, fields map[string]string) (domain.Item, error) {
	item := domain.Item{
		ID:          id,
		ReportType:  domain.ReportType(fields[fieldReportType]),
		ItemType:    fields[fieldItemType],
		Description: fields[fieldDescription],
		Location:    fields[fieldLocation],
		Contact: domain.Contact{
			Name:  fields[fieldContactName],
			Phone: fields[fieldContactPhone],
			Email: fields[fieldContactEmail],
		},
		ImageURL:        fields[fieldImageURL],
		Status:          domain.Status(fields[fieldStatus]),
		ExternalMatchID: fields[fieldExternalID],
	}

	var err error
	if item.EventDate, err = parseTime(fields[fieldEventDate]); err != nil {
		return domain.Item{}, fmt.Errorf("event_date: %w", err)
	}
	if item.CreatedAt, err = parseTime(fields[fieldCreatedAt]); err != nil {
		return domain.Item{}, fmt.Errorf("created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTime(fields[fieldUpdatedAt]); err != nil {
		return domain.Item{}, fmt.Errorf("updated_at: %w", err)
	}
	return item, nil
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}
