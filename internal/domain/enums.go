package domain

type QuestionType string

const (
	QuestionMCQ         QuestionType = "mcq"
	QuestionTrueFalse   QuestionType = "true_false"
	QuestionShortAnswer QuestionType = "short_answer"
)

type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "paid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentStatusFor is the status the amounts imply. Refunds are set by hand.
func PaymentStatusFor(totalAmount, paidAmount float64) PaymentStatus {
	switch {
	case paidAmount <= 0 && totalAmount > 0:
		return PaymentUnpaid
	case paidAmount < totalAmount:
		return PaymentPartial
	default:
		return PaymentPaid
	}
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
	EnrollmentSuspended EnrollmentStatus = "suspended"
)

type LiveClassStatus string

const (
	LiveClassScheduled LiveClassStatus = "scheduled"
	LiveClassLive      LiveClassStatus = "live"
	LiveClassCompleted LiveClassStatus = "completed"
	LiveClassCancelled LiveClassStatus = "cancelled"
)

type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionGraded  SubmissionStatus = "graded"
)
