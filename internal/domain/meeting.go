package domain

import (
	"time"

	"lmsadmin/internal/calc"
)

type Meeting struct {
	Base
	Title       string    `json:"title"`
	Agenda      string    `json:"agenda,omitempty"`
	Host        Ref       `json:"host"`
	Course      *Ref      `json:"course,omitempty"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Link        string    `json:"link,omitempty"`
	IsCancelled bool      `json:"isCancelled"`
}

type MeetingFilter struct {
	HostID      string `query:"host"`
	CourseID    string `query:"course"`
	IsCancelled *bool  `query:"isCancelled"`
	IsDeleted   *bool  `query:"isDeleted"`
}

type MeetingRow struct {
	Meeting
	StartsIn calc.DueStatus `json:"startsIn"`
}

func (m Meeting) Row(now time.Time) any {
	return MeetingRow{Meeting: m, StartsIn: calc.DueIn(m.StartTime, now)}
}

func (m Meeting) Detail() []Field {
	fields := []Field{
		{Label: "Title", Value: m.Title},
		{Label: "Agenda", Value: formatText(m.Agenda)},
		{Label: "Host", Value: m.Host.Display()},
		{Label: "Course", Value: refDisplay(m.Course)},
		{Label: "Starts", Value: formatTime(m.StartTime)},
		{Label: "Ends", Value: formatTime(m.EndTime)},
		{Label: "Link", Value: formatText(m.Link)},
		{Label: "Cancelled", Value: formatBool(m.IsCancelled)},
	}
	return append(fields, m.baseFields()...)
}

func (m Meeting) EditForm() MeetingEdit {
	return MeetingEdit{
		Title:       m.Title,
		Agenda:      m.Agenda,
		Host:        m.Host.ID,
		Course:      refID(m.Course),
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		Link:        m.Link,
		IsCancelled: m.IsCancelled,
	}
}

type MeetingEdit struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Agenda      string    `json:"agenda"`
	Host        string    `json:"host" validate:"required"`
	Course      string    `json:"course"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	Link        string    `json:"link" validate:"omitempty,url"`
	IsCancelled bool      `json:"isCancelled"`
}

func (MeetingEdit) Dependents() map[string][]string {
	return nil
}
