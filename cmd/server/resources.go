package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lmsadmin/internal/client"
	"lmsadmin/internal/domain"
	"lmsadmin/internal/handler"
	"lmsadmin/internal/query"
	"lmsadmin/internal/resource"
)

// The backend grew two conventions; each endpoint keeps the one it speaks.
var (
	restoreRoute = func(path string) client.Endpoint {
		return client.Endpoint{Path: path, Restore: client.RestoreEndpoint, Sort: query.SortWords}
	}
	restoreFlag = func(path string) client.Endpoint {
		return client.Endpoint{Path: path, Restore: client.RestorePatch, Sort: query.SortNumeric}
	}
)

func registerResources(r chi.Router, b *client.Backend, deps resource.Deps, authMiddleware func(http.Handler) http.Handler) {
	register[domain.Assignment, domain.AssignmentEdit, domain.AssignmentFilter](r, b, deps, authMiddleware,
		restoreRoute("assignments"), resource.Definition{Name: "assignment", Cascade: "submissions"})
	register[domain.Quiz, domain.QuizEdit, domain.QuizFilter](r, b, deps, authMiddleware,
		restoreRoute("quizzes"), resource.Definition{Name: "quiz", Cascade: "questions and submissions"})
	register[domain.Question, domain.QuestionEdit, domain.QuestionFilter](r, b, deps, authMiddleware,
		restoreRoute("questions"), resource.Definition{Name: "question", Cascade: "quiz links", Uploads: []string{"image"}})
	register[domain.Enrollment, domain.EnrollmentEdit, domain.EnrollmentFilter](r, b, deps, authMiddleware,
		restoreFlag("enrollments"), resource.Definition{Name: "enrollment", Cascade: "progress records"})
	register[domain.LiveClass, domain.LiveClassEdit, domain.LiveClassFilter](r, b, deps, authMiddleware,
		restoreFlag("live-classes"), resource.Definition{Name: "live class", Cascade: "recordings"})
	register[domain.Meeting, domain.MeetingEdit, domain.MeetingFilter](r, b, deps, authMiddleware,
		restoreFlag("meetings"), resource.Definition{Name: "meeting"})
	register[domain.Recording, domain.RecordingEdit, domain.RecordingFilter](r, b, deps, authMiddleware,
		restoreFlag("recordings"), resource.Definition{Name: "recording"})
	register[domain.CourseProgress, domain.CourseProgressEdit, domain.CourseProgressFilter](r, b, deps, authMiddleware,
		restoreFlag("course-progress"), resource.Definition{Name: "progress record"})
	register[domain.QuizSubmission, domain.QuizSubmissionEdit, domain.QuizSubmissionFilter](r, b, deps, authMiddleware,
		restoreFlag("quiz-submissions"), resource.Definition{Name: "quiz submission", Cascade: "answers"})
}

func register[T resource.Record[E], E resource.Editable, F any](
	r chi.Router,
	b *client.Backend,
	deps resource.Deps,
	authMiddleware func(http.Handler) http.Handler,
	ep client.Endpoint,
	def resource.Definition,
) {
	res := client.NewResource[T](b, ep)
	ctrl := resource.NewController[T, E, F](def, res, deps)
	handler.NewResourceHandler(ctrl).RegisterRoutes(r, authMiddleware)
}
