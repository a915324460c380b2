package domain

import (
	"time"

	"lmsadmin/internal/calc"
)

type Assignment struct {
	Base
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Course      Ref       `json:"course"`
	Section     *Ref      `json:"section,omitempty"`
	Lesson      *Ref      `json:"lesson,omitempty"`
	DueDate     time.Time `json:"dueDate"`
	TotalMarks  float64   `json:"totalMarks"`
	PassMarks   float64   `json:"passMarks"`
	IsPublished bool      `json:"isPublished"`
}

type AssignmentFilter struct {
	CourseID    string `query:"course"`
	SectionID   string `query:"section"`
	IsPublished *bool  `query:"isPublished"`
	IsDeleted   *bool  `query:"isDeleted"`
}

type AssignmentRow struct {
	Assignment
	Due            calc.DueStatus `json:"due"`
	PassPercentage int            `json:"passPercentage"`
}

func (a Assignment) Row(now time.Time) any {
	return AssignmentRow{
		Assignment:     a,
		Due:            calc.DueIn(a.DueDate, now),
		PassPercentage: calc.PassPercentage(a.PassMarks, a.TotalMarks),
	}
}

func (a Assignment) Detail() []Field {
	fields := []Field{
		{Label: "Title", Value: a.Title},
		{Label: "Description", Value: formatText(a.Description)},
		{Label: "Course", Value: a.Course.Display()},
		{Label: "Section", Value: refDisplay(a.Section)},
		{Label: "Lesson", Value: refDisplay(a.Lesson)},
		{Label: "Due date", Value: formatTime(a.DueDate)},
		{Label: "Total marks", Value: formatNumber(a.TotalMarks)},
		{Label: "Pass marks", Value: formatNumber(a.PassMarks)},
		{Label: "Published", Value: formatBool(a.IsPublished)},
	}
	return append(fields, a.baseFields()...)
}

func (a Assignment) EditForm() AssignmentEdit {
	return AssignmentEdit{
		Title:       a.Title,
		Description: a.Description,
		Course:      a.Course.ID,
		Section:     refID(a.Section),
		Lesson:      refID(a.Lesson),
		DueDate:     a.DueDate,
		TotalMarks:  a.TotalMarks,
		PassMarks:   a.PassMarks,
		IsPublished: a.IsPublished,
	}
}

type AssignmentEdit struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	Course      string    `json:"course" validate:"required"`
	Section     string    `json:"section"`
	Lesson      string    `json:"lesson"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
	TotalMarks  float64   `json:"totalMarks" validate:"gt=0"`
	PassMarks   float64   `json:"passMarks" validate:"gte=0,ltefield=TotalMarks"`
	IsPublished bool      `json:"isPublished"`
}

func (AssignmentEdit) Dependents() map[string][]string {
	return map[string][]string{
		"course":  {"section", "lesson"},
		"section": {"lesson"},
	}
}
