package domain

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"lmsadmin/internal/calc"
	"lmsadmin/internal/errdefs"
)

type SubQuestion struct {
	ID    string  `json:"_id,omitempty"`
	Text  string  `json:"text" validate:"required"`
	Marks float64 `json:"marks" validate:"gte=0"`
}

// Question is an entry of the question bank.
type Question struct {
	Base
	Course        Ref           `json:"course"`
	Quiz          *Ref          `json:"quiz,omitempty"`
	QuestionText  string        `json:"questionText"`
	Type          QuestionType  `json:"type"`
	Options       []string      `json:"options,omitempty"`
	CorrectAnswer string        `json:"correctAnswer,omitempty"`
	Explanation   string        `json:"explanation,omitempty"`
	SubQuestions  []SubQuestion `json:"subQuestions,omitempty"`
	Marks         float64       `json:"marks"`
	Image         string        `json:"image,omitempty"`
}

type QuestionFilter struct {
	CourseID  string       `query:"course"`
	QuizID    string       `query:"quiz"`
	Type      QuestionType `query:"type"`
	IsDeleted *bool        `query:"isDeleted"`
}

type QuestionRow struct {
	Question
	SubQuestionCount int  `json:"subQuestionCount"`
	HasImage         bool `json:"hasImage"`
}

func (q Question) Row(time.Time) any {
	return QuestionRow{
		Question:         q,
		SubQuestionCount: len(q.SubQuestions),
		HasImage:         q.Image != "",
	}
}

func (q Question) Detail() []Field {
	fields := []Field{
		{Label: "Question", Value: q.QuestionText},
		{Label: "Type", Value: string(q.Type)},
		{Label: "Course", Value: q.Course.Display()},
		{Label: "Quiz", Value: refDisplay(q.Quiz)},
		{Label: "Options", Value: formatText(strings.Join(q.Options, ", "))},
		{Label: "Correct answer", Value: formatText(q.CorrectAnswer)},
		{Label: "Explanation", Value: formatText(q.Explanation)},
		{Label: "Marks", Value: formatNumber(q.Marks)},
		{Label: "Image", Value: formatText(q.Image)},
	}
	for i, sq := range q.SubQuestions {
		fields = append(fields, Field{
			Label: "Sub-question " + strconv.Itoa(i+1),
			Value: sq.Text + " (" + formatNumber(sq.Marks) + " marks)",
		})
	}
	return append(fields, q.baseFields()...)
}

func (q Question) EditForm() QuestionEdit {
	return QuestionEdit{
		Course:        q.Course.ID,
		Quiz:          refID(q.Quiz),
		QuestionText:  q.QuestionText,
		Type:          q.Type,
		Options:       slices.Clone(q.Options),
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		SubQuestions:  slices.Clone(q.SubQuestions),
		Marks:         q.Marks,
	}
}

type QuestionEdit struct {
	Course        string        `json:"course" validate:"required"`
	Quiz          string        `json:"quiz"`
	QuestionText  string        `json:"questionText" validate:"required"`
	Type          QuestionType  `json:"type" validate:"required,oneof=mcq true_false short_answer"`
	Options       []string      `json:"options"`
	CorrectAnswer string        `json:"correctAnswer" validate:"required"`
	Explanation   string        `json:"explanation"`
	SubQuestions  []SubQuestion `json:"subQuestions" validate:"dive"`
	Marks         float64       `json:"marks" validate:"gte=0"`
}

// Derive sums sub-question marks; a question without sub-questions keeps its own marks.
func (e *QuestionEdit) Derive(Touched) {
	if len(e.SubQuestions) == 0 {
		return
	}
	marks := make([]float64, len(e.SubQuestions))
	for i, sq := range e.SubQuestions {
		marks[i] = sq.Marks
	}
	e.Marks = calc.TotalMarks(marks...)
}

func (e QuestionEdit) Check() error {
	switch e.Type {
	case QuestionMCQ:
		if len(e.Options) < 2 {
			return errdefs.NewValidationError("options", "a multiple choice question needs at least two options")
		}
		if !slices.Contains(e.Options, e.CorrectAnswer) {
			return errdefs.NewValidationError("correctAnswer", "correctAnswer must be one of the options")
		}
	case QuestionTrueFalse:
		if e.CorrectAnswer != "true" && e.CorrectAnswer != "false" {
			return errdefs.NewValidationError("correctAnswer", "correctAnswer must be true or false")
		}
	}
	return nil
}

func (QuestionEdit) Dependents() map[string][]string {
	return map[string][]string{
		"course": {"quiz"},
	}
}
