package domain

import (
	"time"

	"lmsadmin/internal/calc"
	"lmsadmin/internal/errdefs"
)

type LiveClass struct {
	Base
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Course      Ref             `json:"course"`
	Instructor  Ref             `json:"instructor"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     time.Time       `json:"endTime"`
	MeetingLink string          `json:"meetingLink,omitempty"`
	Status      LiveClassStatus `json:"status"`
	IsCancelled bool            `json:"isCancelled"`
}

type LiveClassFilter struct {
	CourseID     string          `query:"course"`
	InstructorID string          `query:"instructor"`
	Status       LiveClassStatus `query:"status"`
	IsCancelled  *bool           `query:"isCancelled"`
	IsDeleted    *bool           `query:"isDeleted"`
}

type LiveClassRow struct {
	LiveClass
	StartsIn        calc.DueStatus `json:"startsIn"`
	DurationMinutes int            `json:"durationMinutes"`
}

func (l LiveClass) Row(now time.Time) any {
	return LiveClassRow{
		LiveClass:       l,
		StartsIn:        calc.DueIn(l.StartTime, now),
		DurationMinutes: int(l.EndTime.Sub(l.StartTime).Minutes()),
	}
}

func (l LiveClass) Detail() []Field {
	fields := []Field{
		{Label: "Title", Value: l.Title},
		{Label: "Description", Value: formatText(l.Description)},
		{Label: "Course", Value: l.Course.Display()},
		{Label: "Instructor", Value: l.Instructor.Display()},
		{Label: "Starts", Value: formatTime(l.StartTime)},
		{Label: "Ends", Value: formatTime(l.EndTime)},
		{Label: "Meeting link", Value: formatText(l.MeetingLink)},
		{Label: "Class status", Value: string(l.Status)},
		{Label: "Cancelled", Value: formatBool(l.IsCancelled)},
	}
	return append(fields, l.baseFields()...)
}

func (l LiveClass) EditForm() LiveClassEdit {
	return LiveClassEdit{
		Title:       l.Title,
		Description: l.Description,
		Course:      l.Course.ID,
		Instructor:  l.Instructor.ID,
		StartTime:   l.StartTime,
		EndTime:     l.EndTime,
		MeetingLink: l.MeetingLink,
		Status:      l.Status,
		IsCancelled: l.IsCancelled,
	}
}

type LiveClassEdit struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description"`
	Course      string          `json:"course" validate:"required"`
	Instructor  string          `json:"instructor" validate:"required"`
	StartTime   time.Time       `json:"startTime" validate:"required"`
	EndTime     time.Time       `json:"endTime" validate:"required,gtfield=StartTime"`
	MeetingLink string          `json:"meetingLink" validate:"omitempty,url"`
	Status      LiveClassStatus `json:"status" validate:"required,oneof=scheduled live completed cancelled"`
	IsCancelled bool            `json:"isCancelled"`
}

// Derive keeps the cancelled flag and the status in step. The field the
// patch set wins; when it sets both, Check reports a mismatch.
func (e *LiveClassEdit) Derive(touched Touched) {
	status, cancelled := touched("status"), touched("isCancelled")
	switch {
	case status && cancelled:
	case status:
		e.IsCancelled = e.Status == LiveClassCancelled
	case cancelled:
		if e.IsCancelled {
			e.Status = LiveClassCancelled
		} else if e.Status == LiveClassCancelled {
			e.Status = LiveClassScheduled
		}
	case e.IsCancelled:
		e.Status = LiveClassCancelled
	case e.Status == LiveClassCancelled:
		e.IsCancelled = true
	}
}

func (e LiveClassEdit) Check() error {
	if e.IsCancelled != (e.Status == LiveClassCancelled) {
		return errdefs.NewValidationError("isCancelled", "isCancelled must be true exactly when status is cancelled")
	}
	return nil
}

func (LiveClassEdit) Dependents() map[string][]string {
	return map[string][]string{
		"course": {"instructor"},
	}
}
