package domain

import (
	"strings"
	"time"
)

// ReportType distinguishes lost reports from found reports.
// Immutable after creation.
type ReportType string

const (
	// ReportLost is a report about an item its owner lost.
	ReportLost ReportType = "lost"
	// ReportFound is a report about an item someone found.
	ReportFound ReportType = "found"
)

// Valid reports whether rt is a known report type.
func (rt ReportType) Valid() bool {
	return rt == ReportLost || rt == ReportFound
}

// Opposite returns the counterpart report type.
func (rt ReportType) Opposite() ReportType {
	if rt == ReportLost {
		return ReportFound
	}
	return ReportLost
}

// Status is the lifecycle state of an item. Transitions only move forward:
// active -> matched -> closed.
type Status string

const (
	// StatusActive is the default state of a new report.
	StatusActive Status = "active"
	// StatusMatched marks an item joined to a counterpart by the resolver.
	StatusMatched Status = "matched"
	// StatusClosed marks a resolved report.
	StatusClosed Status = "closed"
)

var statusRank = map[Status]int{
	StatusActive:  0,
	StatusMatched: 1,
	StatusClosed:  2,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether moving from s to next is allowed.
// Same-state writes are allowed, regressions are not.
func (s Status) CanTransition(next Status) bool {
	cur, ok := statusRank[s]
	if !ok {
		return false
	}
	nxt, ok := statusRank[next]
	if !ok {
		return false
	}
	return nxt >= cur
}

// Contact is the reporter's contact information. Phone is the required
// field when a contact is provided on a found report.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// IsEmpty reports whether no contact information is present.
func (c Contact) IsEmpty() bool {
	return strings.TrimSpace(c.Name) == "" &&
		strings.TrimSpace(c.Phone) == "" &&
		strings.TrimSpace(c.Email) == ""
}

// Item is a reported lost or found item, the central entity of the system.
type Item struct {
	ID          string     `json:"id"`
	ReportType  ReportType `json:"reportType"`
	ItemType    string     `json:"itemType"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	EventDate   time.Time  `json:"eventDate"`
	Contact     Contact    `json:"contact,omitzero"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Status      Status     `json:"status"`

	// ExternalMatchID is assigned by the similarity service on registration.
	// Empty until registration succeeds; set at most once.
	ExternalMatchID string `json:"externalMatchId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Registered reports whether the item has been registered with the
// similarity service.
func (i Item) Registered() bool {
	return i.ExternalMatchID != ""
}

// Patch is a partial item update. Nil fields are left untouched.
// ReportType, ID and CreatedAt are immutable and cannot be patched.
type Patch struct {
	ItemType        *string
	Description     *string
	Location        *string
	ImageURL        *string
	Contact         *Contact
	Status          *Status
	ExternalMatchID *string
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.ItemType == nil && p.Description == nil && p.Location == nil &&
		p.ImageURL == nil && p.Contact == nil && p.Status == nil &&
		p.ExternalMatchID == nil
}

// Apply merges the patch into item. Invariants (status forward-only,
// external match id write-once) are checked by the caller via Validate.
func (p Patch) Apply(item Item) Item {
	if p.ItemType != nil {
		item.ItemType = *p.ItemType
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Location != nil {
		item.Location = *p.Location
	}
	if p.ImageURL != nil {
		item.ImageURL = *p.ImageURL
	}
	if p.Contact != nil {
		item.Contact = *p.Contact
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	if p.ExternalMatchID != nil {
		item.ExternalMatchID = *p.ExternalMatchID
	}
	return item
}

// Validate checks the patch against the current item state.
func (p Patch) Validate(current Item) error {
	if p.Status != nil && !current.Status.CanTransition(*p.Status) {
		return ErrStatusRegression
	}
	if p.ExternalMatchID != nil && current.ExternalMatchID != "" &&
		*p.ExternalMatchID != current.ExternalMatchID {
		return ErrAlreadyRegistered
	}
	return nil
}
