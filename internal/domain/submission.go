package domain

import (
	"strconv"
	"time"

	"lmsadmin/internal/calc"
)

type QuizSubmission struct {
	Base
	Quiz          Ref              `json:"quiz"`
	Student       Ref              `json:"student"`
	ObtainedMarks float64          `json:"obtainedMarks"`
	TotalMarks    float64          `json:"totalMarks"`
	PassMarks     float64          `json:"passMarks"`
	Status        SubmissionStatus `json:"status"`
	Feedback      string           `json:"feedback,omitempty"`
	SubmittedAt   *time.Time       `json:"submittedAt,omitempty"`
}

type QuizSubmissionFilter struct {
	QuizID    string           `query:"quiz"`
	StudentID string           `query:"student"`
	Status    SubmissionStatus `query:"status"`
	IsDeleted *bool            `query:"isDeleted"`
}

type QuizSubmissionRow struct {
	QuizSubmission
	Percentage int  `json:"percentage"`
	Passed     bool `json:"passed"`
}

func (s QuizSubmission) Passed() bool {
	return s.TotalMarks > 0 && s.ObtainedMarks >= s.PassMarks
}

func (s QuizSubmission) Row(time.Time) any {
	return QuizSubmissionRow{
		QuizSubmission: s,
		Percentage:     calc.SubmissionPercentage(s.ObtainedMarks, s.TotalMarks),
		Passed:         s.Passed(),
	}
}

func (s QuizSubmission) Detail() []Field {
	fields := []Field{
		{Label: "Quiz", Value: s.Quiz.Display()},
		{Label: "Student", Value: s.Student.Display()},
		{Label: "Obtained marks", Value: formatNumber(s.ObtainedMarks)},
		{Label: "Total marks", Value: formatNumber(s.TotalMarks)},
		{Label: "Percentage", Value: strconv.Itoa(calc.SubmissionPercentage(s.ObtainedMarks, s.TotalMarks)) + "%"},
		{Label: "Result", Value: passLabel(s.Passed())},
		{Label: "Grading status", Value: string(s.Status)},
		{Label: "Feedback", Value: formatText(s.Feedback)},
		{Label: "Submitted", Value: formatTimePtr(s.SubmittedAt)},
	}
	return append(fields, s.baseFields()...)
}

func (s QuizSubmission) EditForm() QuizSubmissionEdit {
	return QuizSubmissionEdit{
		ObtainedMarks: s.ObtainedMarks,
		TotalMarks:    s.TotalMarks,
		Status:        s.Status,
		Feedback:      s.Feedback,
	}
}

// QuizSubmissionEdit is the grading form. TotalMarks comes from the quiz and
// is only carried for the bound check.
type QuizSubmissionEdit struct {
	ObtainedMarks float64          `json:"obtainedMarks" validate:"gte=0,ltefield=TotalMarks"`
	TotalMarks    float64          `json:"totalMarks"`
	Status        SubmissionStatus `json:"status" validate:"required,oneof=pending graded"`
	Feedback      string           `json:"feedback" validate:"max=2000"`
}

func (QuizSubmissionEdit) Dependents() map[string][]string {
	return nil
}

func passLabel(passed bool) string {
	if passed {
		return "Passed"
	}
	return "Failed"
}

func (QuizSubmissionEdit) ReadOnly() []string {
	return []string{"totalMarks"}
}
