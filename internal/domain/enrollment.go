package domain

import (
	"fmt"
	"time"

	"lmsadmin/internal/calc"
	"lmsadmin/internal/errdefs"
)

type Enrollment struct {
	Base
	Student       Ref              `json:"student"`
	Course        Ref              `json:"course"`
	TotalAmount   float64          `json:"totalAmount"`
	PaidAmount    float64          `json:"paidAmount"`
	DueAmount     float64          `json:"dueAmount"`
	PaymentStatus PaymentStatus    `json:"paymentStatus"`
	Status        EnrollmentStatus `json:"status"`
	EnrolledAt    *time.Time       `json:"enrolledAt,omitempty"`
}

type EnrollmentFilter struct {
	CourseID      string           `query:"course"`
	StudentID     string           `query:"student"`
	PaymentStatus PaymentStatus    `query:"paymentStatus"`
	Status        EnrollmentStatus `query:"status"`
	IsDeleted     *bool            `query:"isDeleted"`
}

type EnrollmentRow struct {
	Enrollment
	CalculatedDue float64 `json:"calculatedDue"`
	PaidPercent   int     `json:"paidPercentage"`
}

func (e Enrollment) Row(time.Time) any {
	return EnrollmentRow{
		Enrollment:    e,
		CalculatedDue: calc.DueAmount(e.TotalAmount, e.PaidAmount),
		PaidPercent:   min(calc.Percent(e.PaidAmount, e.TotalAmount), 100),
	}
}

func (e Enrollment) Detail() []Field {
	fields := []Field{
		{Label: "Student", Value: e.Student.Display()},
		{Label: "Course", Value: e.Course.Display()},
		{Label: "Total amount", Value: formatMoney(e.TotalAmount)},
		{Label: "Paid amount", Value: formatMoney(e.PaidAmount)},
		{Label: "Due amount", Value: formatMoney(e.DueAmount)},
		{Label: "Payment status", Value: string(e.PaymentStatus)},
		{Label: "Enrollment status", Value: string(e.Status)},
		{Label: "Enrolled", Value: formatTimePtr(e.EnrolledAt)},
	}
	return append(fields, e.baseFields()...)
}

func (e Enrollment) EditForm() EnrollmentEdit {
	return EnrollmentEdit{
		TotalAmount:   e.TotalAmount,
		PaidAmount:    e.PaidAmount,
		DueAmount:     e.DueAmount,
		PaymentStatus: e.PaymentStatus,
		Status:        e.Status,
	}
}

// EnrollmentEdit leaves student and course read-only; moving a student is a new enrollment.
type EnrollmentEdit struct {
	TotalAmount   float64          `json:"totalAmount" validate:"gte=0"`
	PaidAmount    float64          `json:"paidAmount" validate:"gte=0"`
	DueAmount     float64          `json:"dueAmount"`
	PaymentStatus PaymentStatus    `json:"paymentStatus" validate:"required,oneof=paid partial unpaid refunded"`
	Status        EnrollmentStatus `json:"status" validate:"required,oneof=active completed cancelled suspended"`
}

// Derive recomputes the due amount, and the payment status unless the patch
// set it or the enrollment was refunded.
func (e *EnrollmentEdit) Derive(touched Touched) {
	e.DueAmount = calc.DueAmount(e.TotalAmount, e.PaidAmount)
	if touched("paymentStatus") || e.PaymentStatus == PaymentRefunded {
		return
	}
	e.PaymentStatus = PaymentStatusFor(e.TotalAmount, e.PaidAmount)
}

// Check rejects a hand-set payment status the amounts contradict.
func (e EnrollmentEdit) Check() error {
	if e.PaymentStatus == PaymentRefunded {
		return nil
	}
	if want := PaymentStatusFor(e.TotalAmount, e.PaidAmount); e.PaymentStatus != want {
		return errdefs.NewValidationError("paymentStatus", fmt.Sprintf("paymentStatus must be %s for the entered amounts", want))
	}
	return nil
}

func (EnrollmentEdit) Dependents() map[string][]string {
	return nil
}
