// Package calc holds the derived display fields. Everything here is pure.
package calc

import (
	"fmt"
	"math"
	"time"
)

const day = 24 * time.Hour

type DueBucket string

const (
	BucketOverdue  DueBucket = "overdue"
	BucketToday    DueBucket = "today"
	BucketUrgent   DueBucket = "urgent"
	BucketUpcoming DueBucket = "upcoming"
)

type Tone string

const (
	ToneDanger  Tone = "danger"
	ToneWarning Tone = "warning"
	ToneUrgent  Tone = "urgent"
	ToneNeutral Tone = "neutral"
)

type DueStatus struct {
	Bucket DueBucket `json:"bucket"`
	Days   int       `json:"days"`
	Label  string    `json:"label"`
	Tone   Tone      `json:"tone"`
}

// DueIn buckets a deadline by whole days, rounding the distance up in both
// directions: anything in the past, even by a millisecond, is overdue by at
// least one day, and only a deadline of exactly now is "Today".
func DueIn(due, now time.Time) DueStatus {
	diff := due.Sub(now).Milliseconds()
	diffDays := ceilDays(diff)

	switch {
	case diff < 0:
		days := ceilDays(-diff)
		return DueStatus{Bucket: BucketOverdue, Days: days, Label: fmt.Sprintf("Overdue by %s", plural(days, "day")), Tone: ToneDanger}
	case diffDays == 0:
		return DueStatus{Bucket: BucketToday, Label: "Today", Tone: ToneWarning}
	case diffDays <= 3:
		return DueStatus{Bucket: BucketUrgent, Days: diffDays, Label: fmt.Sprintf("%d days left", diffDays), Tone: ToneUrgent}
	default:
		return DueStatus{Bucket: BucketUpcoming, Days: diffDays, Label: fmt.Sprintf("%d days left", diffDays), Tone: ToneNeutral}
	}
}

func PassPercentage(passMarks, totalMarks float64) int {
	return Percent(passMarks, totalMarks)
}

func SubmissionPercentage(obtainedMarks, totalMarks float64) int {
	return Percent(obtainedMarks, totalMarks)
}

func ProgressPercentage(completed, total int) int {
	return min(Percent(float64(completed), float64(total)), 100)
}

func DueAmount(totalAmount, paidAmount float64) float64 {
	return math.Max(0, totalAmount-paidAmount)
}

func TotalMarks(marks ...float64) float64 {
	var sum float64
	for _, m := range marks {
		sum += m
	}
	return sum
}

// Percent is part/whole as a rounded percentage, 0 when whole is 0.
func Percent(part, whole float64) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(part / whole * 100))
}

func ceilDays(ms int64) int {
	return int(math.Ceil(float64(ms) / float64(day.Milliseconds())))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
