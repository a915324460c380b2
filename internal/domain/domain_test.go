package domain

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lmsadmin/internal/calc"
	"lmsadmin/internal/errdefs"
)

func TestRefUnmarshal(t *testing.T) {
	var payload struct {
		Course  Ref  `json:"course"`
		Section *Ref `json:"section"`
		Lesson  *Ref `json:"lesson"`
	}
	raw := `{"course":{"_id":"c1","title":"Algebra"},"section":"s1","lesson":null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.Equal(t, Ref{ID: "c1", Title: "Algebra"}, payload.Course)
	assert.Equal(t, "Algebra", payload.Course.Display())
	require.NotNil(t, payload.Section)
	assert.Equal(t, "s1", payload.Section.ID)
	assert.Equal(t, "s1", payload.Section.Display())
	assert.Nil(t, payload.Lesson)
	assert.Equal(t, "—", refDisplay(payload.Lesson))
}

func TestAssignmentRow(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	a := Assignment{
		Base:       Base{ID: "a1"},
		DueDate:    now.Add(48 * time.Hour),
		TotalMarks: 80,
		PassMarks:  32,
	}

	row := a.Row(now).(AssignmentRow)
	assert.Equal(t, 40, row.PassPercentage)
	assert.Equal(t, calc.BucketUrgent, row.Due.Bucket)
	assert.Equal(t, "2 days left", row.Due.Label)

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"_id":"a1"`)
	assert.Contains(t, string(data), `"passPercentage":40`)
}

func TestAssignmentDetailListsEveryField(t *testing.T) {
	a := Assignment{
		Base:    Base{ID: "a1", IsDeleted: true},
		Title:   "Essay",
		Course:  Ref{ID: "c1", Title: "Writing"},
		Section: &Ref{ID: "s1", Title: "Week 1"},
	}

	labels := map[string]string{}
	for _, f := range a.Detail() {
		labels[f.Label] = f.Value
	}
	assert.Equal(t, "Essay", labels["Title"])
	assert.Equal(t, "Writing", labels["Course"])
	assert.Equal(t, "Week 1", labels["Section"])
	assert.Equal(t, "—", labels["Lesson"])
	assert.Equal(t, "Deleted", labels["Visibility"])
	assert.Contains(t, labels, "Due date")
	assert.Contains(t, labels, "Updated")
}

func untouched(string) bool { return false }

func touching(fields ...string) Touched {
	return func(field string) bool { return slices.Contains(fields, field) }
}

func TestQuizEditDeriveTotalMarks(t *testing.T) {
	q := Quiz{
		Questions:  []QuizQuestion{{Question: "1+1", Marks: 5}, {Question: "2+2", Marks: 5}},
		TotalMarks: 999,
	}
	e := q.EditForm()
	e.Derive(untouched)
	assert.Equal(t, 10.0, e.TotalMarks)

	e.Questions = append(e.Questions, QuizQuestion{Question: "3+3", Marks: 10})
	e.Derive(untouched)
	assert.Equal(t, 20.0, e.TotalMarks)

	e.Questions = e.Questions[1:]
	e.Derive(untouched)
	assert.Equal(t, 15.0, e.TotalMarks)

	assert.Len(t, q.Questions, 2, "edit form must not alias the record")
}

func TestQuestionEdit(t *testing.T) {
	t.Run("SubQuestionMarks", func(t *testing.T) {
		e := QuestionEdit{Marks: 3}
		e.Derive(untouched)
		assert.Equal(t, 3.0, e.Marks)

		e.SubQuestions = []SubQuestion{{Text: "a", Marks: 2}, {Text: "b", Marks: 4}}
		e.Derive(untouched)
		assert.Equal(t, 6.0, e.Marks)
	})

	t.Run("MCQNeedsOptions", func(t *testing.T) {
		err := QuestionEdit{Type: QuestionMCQ, Options: []string{"A"}, CorrectAnswer: "A"}.Check()
		assert.ErrorIs(t, err, errdefs.ErrValidation)

		err = QuestionEdit{Type: QuestionMCQ, Options: []string{"A", "B"}, CorrectAnswer: "C"}.Check()
		assert.ErrorIs(t, err, errdefs.ErrValidation)

		assert.NoError(t, QuestionEdit{Type: QuestionMCQ, Options: []string{"A", "B"}, CorrectAnswer: "B"}.Check())
	})

	t.Run("TrueFalse", func(t *testing.T) {
		assert.Error(t, QuestionEdit{Type: QuestionTrueFalse, CorrectAnswer: "yes"}.Check())
		assert.NoError(t, QuestionEdit{Type: QuestionTrueFalse, CorrectAnswer: "false"}.Check())
	})
}

func TestEnrollmentEditDerive(t *testing.T) {
	e := EnrollmentEdit{TotalAmount: 5000, PaidAmount: 1500}
	e.Derive(untouched)
	assert.Equal(t, 3500.0, e.DueAmount)
	assert.Equal(t, PaymentPartial, e.PaymentStatus)

	e.PaidAmount = 6000
	e.Derive(untouched)
	assert.Equal(t, 0.0, e.DueAmount)
	assert.Equal(t, PaymentPaid, e.PaymentStatus)

	e.PaidAmount = 0
	e.Derive(untouched)
	assert.Equal(t, PaymentUnpaid, e.PaymentStatus)

	e.PaymentStatus = PaymentRefunded
	e.Derive(untouched)
	assert.Equal(t, PaymentRefunded, e.PaymentStatus)
	assert.Equal(t, 5000.0, e.DueAmount)
	assert.NoError(t, e.Check())

	t.Run("HandSetStatusIsChecked", func(t *testing.T) {
		e := EnrollmentEdit{TotalAmount: 5000, PaidAmount: 1500, PaymentStatus: PaymentPaid}
		e.Derive(touching("paymentStatus"))
		assert.Equal(t, PaymentPaid, e.PaymentStatus)
		assert.ErrorIs(t, e.Check(), errdefs.ErrValidation)
	})
}

func TestEnrollmentRowPaidPercentage(t *testing.T) {
	row := Enrollment{TotalAmount: 5000, PaidAmount: 1500}.Row(time.Now()).(EnrollmentRow)
	assert.Equal(t, 30, row.PaidPercent)

	row = Enrollment{TotalAmount: 5000, PaidAmount: 6000}.Row(time.Now()).(EnrollmentRow)
	assert.Equal(t, 100, row.PaidPercent)
}

func TestLiveClassEditDerive(t *testing.T) {
	e := LiveClassEdit{Status: LiveClassScheduled, IsCancelled: true}
	e.Derive(untouched)
	assert.Equal(t, LiveClassCancelled, e.Status)

	e = LiveClassEdit{Status: LiveClassCancelled}
	e.Derive(untouched)
	assert.True(t, e.IsCancelled)

	t.Run("StatusWins", func(t *testing.T) {
		e := LiveClassEdit{Status: LiveClassScheduled, IsCancelled: true}
		e.Derive(touching("status"))
		assert.False(t, e.IsCancelled)
		assert.NoError(t, e.Check())
	})

	t.Run("UncancelReschedules", func(t *testing.T) {
		e := LiveClassEdit{Status: LiveClassCancelled, IsCancelled: false}
		e.Derive(touching("isCancelled"))
		assert.Equal(t, LiveClassScheduled, e.Status)
		assert.NoError(t, e.Check())
	})

	t.Run("ConflictingPatch", func(t *testing.T) {
		e := LiveClassEdit{Status: LiveClassLive, IsCancelled: true}
		e.Derive(touching("status", "isCancelled"))
		assert.ErrorIs(t, e.Check(), errdefs.ErrValidation)
	})
}

func TestCourseProgress(t *testing.T) {
	p := CourseProgress{CompletedLessons: []string{"l1", "l2", "l3"}, TotalLessons: 12}
	row := p.Row(time.Now()).(CourseProgressRow)
	assert.Equal(t, 25, row.Calculated)
	assert.Equal(t, 3, row.CompletedCount)

	e := p.EditForm()
	e.CompletedLessons = append(e.CompletedLessons, "l4")
	e.Derive(untouched)
	assert.Equal(t, 33, e.ProgressPercentage)
	assert.False(t, e.IsCompleted)
	assert.Len(t, p.CompletedLessons, 3)

	e.TotalLessons = 2
	assert.ErrorIs(t, e.Check(), errdefs.ErrValidation)
}

func TestQuizSubmissionRow(t *testing.T) {
	s := QuizSubmission{ObtainedMarks: 27, TotalMarks: 40, PassMarks: 16}
	row := s.Row(time.Now()).(QuizSubmissionRow)
	assert.Equal(t, 68, row.Percentage)
	assert.True(t, row.Passed)

	s.ObtainedMarks = 10
	assert.False(t, s.Passed())
	assert.False(t, QuizSubmission{}.Passed())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", formatDuration(0))
	assert.Equal(t, "1:05", formatDuration(65))
	assert.Equal(t, "1:01:01", formatDuration(3661))
}
