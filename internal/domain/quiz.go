package domain

import (
	"strconv"
	"time"

	"lmsadmin/internal/calc"
)

type QuizQuestion struct {
	ID       string  `json:"_id,omitempty"`
	Question string  `json:"question" validate:"required"`
	Marks    float64 `json:"marks" validate:"gte=0"`
}

type Quiz struct {
	Base
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Course      Ref            `json:"course"`
	Section     *Ref           `json:"section,omitempty"`
	Lesson      *Ref           `json:"lesson,omitempty"`
	Questions   []QuizQuestion `json:"questions"`
	TotalMarks  float64        `json:"totalMarks"`
	PassMarks   float64        `json:"passMarks"`
	Duration    int            `json:"duration"`
	IsPublished bool           `json:"isPublished"`
}

type QuizFilter struct {
	CourseID    string `query:"course"`
	IsPublished *bool  `query:"isPublished"`
	IsDeleted   *bool  `query:"isDeleted"`
}

type QuizRow struct {
	Quiz
	QuestionCount  int `json:"questionCount"`
	PassPercentage int `json:"passPercentage"`
}

func (q Quiz) Row(time.Time) any {
	return QuizRow{
		Quiz:           q,
		QuestionCount:  len(q.Questions),
		PassPercentage: calc.PassPercentage(q.PassMarks, q.TotalMarks),
	}
}

func (q Quiz) Detail() []Field {
	fields := []Field{
		{Label: "Title", Value: q.Title},
		{Label: "Description", Value: formatText(q.Description)},
		{Label: "Course", Value: q.Course.Display()},
		{Label: "Section", Value: refDisplay(q.Section)},
		{Label: "Lesson", Value: refDisplay(q.Lesson)},
		{Label: "Duration (minutes)", Value: strconv.Itoa(q.Duration)},
		{Label: "Questions", Value: strconv.Itoa(len(q.Questions))},
		{Label: "Total marks", Value: formatNumber(q.TotalMarks)},
		{Label: "Pass marks", Value: formatNumber(q.PassMarks)},
		{Label: "Pass percentage", Value: strconv.Itoa(calc.PassPercentage(q.PassMarks, q.TotalMarks)) + "%"},
		{Label: "Published", Value: formatBool(q.IsPublished)},
	}
	for i, qq := range q.Questions {
		fields = append(fields, Field{
			Label: "Question " + strconv.Itoa(i+1),
			Value: qq.Question + " (" + formatNumber(qq.Marks) + " marks)",
		})
	}
	return append(fields, q.baseFields()...)
}

func (q Quiz) EditForm() QuizEdit {
	questions := make([]QuizQuestion, len(q.Questions))
	copy(questions, q.Questions)
	return QuizEdit{
		Title:       q.Title,
		Description: q.Description,
		Course:      q.Course.ID,
		Section:     refID(q.Section),
		Lesson:      refID(q.Lesson),
		Questions:   questions,
		TotalMarks:  q.TotalMarks,
		PassMarks:   q.PassMarks,
		Duration:    q.Duration,
		IsPublished: q.IsPublished,
	}
}

type QuizEdit struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description"`
	Course      string         `json:"course" validate:"required"`
	Section     string         `json:"section"`
	Lesson      string         `json:"lesson"`
	Questions   []QuizQuestion `json:"questions" validate:"dive"`
	TotalMarks  float64        `json:"totalMarks" validate:"gte=0"`
	PassMarks   float64        `json:"passMarks" validate:"gte=0,ltefield=TotalMarks"`
	Duration    int            `json:"duration" validate:"gt=0"`
	IsPublished bool           `json:"isPublished"`
}

// Derive keeps totalMarks equal to the sum of the question marks.
func (e *QuizEdit) Derive(Touched) {
	marks := make([]float64, len(e.Questions))
	for i, q := range e.Questions {
		marks[i] = q.Marks
	}
	e.TotalMarks = calc.TotalMarks(marks...)
}

func (QuizEdit) Dependents() map[string][]string {
	return map[string][]string{
		"course":  {"section", "lesson"},
		"section": {"lesson"},
	}
}
