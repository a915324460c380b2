package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Base is shared by every resource. ID is opaque and never changes.
type Base struct {
	ID        string    `json:"_id" validate:"required"`
	IsDeleted bool      `json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b Base) RecordID() string { return b.ID }

func (b Base) Deleted() bool { return b.IsDeleted }

func (b Base) baseFields() []Field {
	return []Field{
		{Label: "Visibility", Value: deletedLabel(b.IsDeleted)},
		{Label: "Created", Value: formatTime(b.CreatedAt)},
		{Label: "Updated", Value: formatTime(b.UpdatedAt)},
	}
}

// Ref is a foreign key the backend may send either as a bare id or as an
// embedded summary object.
type Ref struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Title string `json:"title,omitempty"`
	Email string `json:"email,omitempty"`
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Ref(p)
	return nil
}

func (r Ref) Display() string {
	switch {
	case r.Title != "":
		return r.Title
	case r.Name != "":
		return r.Name
	case r.Email != "":
		return r.Email
	}
	return r.ID
}

func refID(r *Ref) string {
	if r == nil {
		return ""
	}
	return r.ID
}

func refDisplay(r *Ref) string {
	if r == nil || r.ID == "" {
		return "—"
	}
	return r.Display()
}

// Field is one labelled line of a detail view.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Touched reports whether the patch being applied sets a field.
type Touched func(field string) bool

type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

const displayTime = "02 Jan 2006, 15:04"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format(displayTime)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return formatTime(*t)
}

func formatBool(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatMoney(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatText(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

func deletedLabel(deleted bool) string {
	if deleted {
		return "Deleted"
	}
	return "Active"
}
