package domain

import (
	"strconv"
	"time"
)

type Recording struct {
	Base
	Title       string `json:"title"`
	Course      Ref    `json:"course"`
	LiveClass   *Ref   `json:"liveClass,omitempty"`
	VideoURL    string `json:"videoUrl"`
	Duration    int    `json:"duration"`
	IsPublished bool   `json:"isPublished"`
}

type RecordingFilter struct {
	CourseID    string `query:"course"`
	LiveClassID string `query:"liveClass"`
	IsPublished *bool  `query:"isPublished"`
	IsDeleted   *bool  `query:"isDeleted"`
}

type RecordingRow struct {
	Recording
	Length string `json:"length"`
}

func (r Recording) Row(time.Time) any {
	return RecordingRow{Recording: r, Length: formatDuration(r.Duration)}
}

func (r Recording) Detail() []Field {
	fields := []Field{
		{Label: "Title", Value: r.Title},
		{Label: "Course", Value: r.Course.Display()},
		{Label: "Live class", Value: refDisplay(r.LiveClass)},
		{Label: "Video URL", Value: r.VideoURL},
		{Label: "Length", Value: formatDuration(r.Duration)},
		{Label: "Published", Value: formatBool(r.IsPublished)},
	}
	return append(fields, r.baseFields()...)
}

func (r Recording) EditForm() RecordingEdit {
	return RecordingEdit{
		Title:       r.Title,
		Course:      r.Course.ID,
		LiveClass:   refID(r.LiveClass),
		VideoURL:    r.VideoURL,
		Duration:    r.Duration,
		IsPublished: r.IsPublished,
	}
}

type RecordingEdit struct {
	Title       string `json:"title" validate:"required,max=200"`
	Course      string `json:"course" validate:"required"`
	LiveClass   string `json:"liveClass"`
	VideoURL    string `json:"videoUrl" validate:"required,url"`
	Duration    int    `json:"duration" validate:"gte=0"`
	IsPublished bool   `json:"isPublished"`
}

func (RecordingEdit) Dependents() map[string][]string {
	return map[string][]string{
		"course": {"liveClass"},
	}
}

// formatDuration renders seconds as h:mm:ss or m:ss.
func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	pad := func(n int) string {
		if n < 10 {
			return "0" + strconv.Itoa(n)
		}
		return strconv.Itoa(n)
	}
	if h > 0 {
		return strconv.Itoa(h) + ":" + pad(m) + ":" + pad(s)
	}
	return strconv.Itoa(m) + ":" + pad(s)
}
