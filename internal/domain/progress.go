package domain

import (
	"slices"
	"strconv"
	"time"

	"lmsadmin/internal/calc"
	"lmsadmin/internal/errdefs"
)

type CourseProgress struct {
	Base
	Student            Ref        `json:"student"`
	Course             Ref        `json:"course"`
	CompletedLessons   []string   `json:"completedLessons"`
	TotalLessons       int        `json:"totalLessons"`
	ProgressPercentage int        `json:"progressPercentage"`
	IsCompleted        bool       `json:"isCompleted"`
	LastAccessedAt     *time.Time `json:"lastAccessedAt,omitempty"`
}

type CourseProgressFilter struct {
	CourseID    string `query:"course"`
	StudentID   string `query:"student"`
	IsCompleted *bool  `query:"isCompleted"`
	IsDeleted   *bool  `query:"isDeleted"`
}

type CourseProgressRow struct {
	CourseProgress
	CompletedCount int `json:"completedCount"`
	Calculated     int `json:"calculatedPercentage"`
}

func (p CourseProgress) Row(time.Time) any {
	return CourseProgressRow{
		CourseProgress: p,
		CompletedCount: len(p.CompletedLessons),
		Calculated:     calc.ProgressPercentage(len(p.CompletedLessons), p.TotalLessons),
	}
}

func (p CourseProgress) Detail() []Field {
	fields := []Field{
		{Label: "Student", Value: p.Student.Display()},
		{Label: "Course", Value: p.Course.Display()},
		{Label: "Completed lessons", Value: strconv.Itoa(len(p.CompletedLessons)) + " of " + strconv.Itoa(p.TotalLessons)},
		{Label: "Progress", Value: strconv.Itoa(p.ProgressPercentage) + "%"},
		{Label: "Completed", Value: formatBool(p.IsCompleted)},
		{Label: "Last accessed", Value: formatTimePtr(p.LastAccessedAt)},
	}
	return append(fields, p.baseFields()...)
}

func (p CourseProgress) EditForm() CourseProgressEdit {
	return CourseProgressEdit{
		CompletedLessons:   slices.Clone(p.CompletedLessons),
		TotalLessons:       p.TotalLessons,
		ProgressPercentage: p.ProgressPercentage,
		IsCompleted:        p.IsCompleted,
	}
}

type CourseProgressEdit struct {
	CompletedLessons   []string `json:"completedLessons" validate:"dive,required"`
	TotalLessons       int      `json:"totalLessons" validate:"gte=0"`
	ProgressPercentage int      `json:"progressPercentage"`
	IsCompleted        bool     `json:"isCompleted"`
}

func (e *CourseProgressEdit) Derive(Touched) {
	e.ProgressPercentage = calc.ProgressPercentage(len(e.CompletedLessons), e.TotalLessons)
	e.IsCompleted = e.TotalLessons > 0 && len(e.CompletedLessons) >= e.TotalLessons
}

func (e CourseProgressEdit) Check() error {
	if len(e.CompletedLessons) > e.TotalLessons {
		return errdefs.NewValidationError("completedLessons", "completedLessons must not exceed totalLessons")
	}
	return nil
}

func (CourseProgressEdit) Dependents() map[string][]string {
	return nil
}
