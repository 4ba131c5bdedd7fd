// Package platform provides typed bindings for the course platform's REST
// resources. Services hold no state beyond the shared API client; all
// transport concerns (CSRF, session refresh, error shaping) live in the
// client layer.
package platform

import (
	"github.com/oapi-codegen/runtime/types"
)

// Course is a published or draft course.
type Course struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Published   bool        `json:"published"`
	StartDate   *types.Date `json:"start_date,omitempty"`
	EndDate     *types.Date `json:"end_date,omitempty"`
}

// CourseInput is the create/update payload for a course.
type CourseInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Published   bool        `json:"published"`
	StartDate   *types.Date `json:"start_date,omitempty"`
	EndDate     *types.Date `json:"end_date,omitempty"`
}

// Module is an ordered group of lessons within a course.
type Module struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"course_id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// ModuleInput is the create payload for a module.
type ModuleInput struct {
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// Lesson is a unit of content within a module.
type Lesson struct {
	ID       int64  `json:"id"`
	ModuleID int64  `json:"module_id"`
	Title    string `json:"title"`
	Body     string `json:"body,omitempty"`
	Minutes  int    `json:"duration_minutes,omitempty"`
}

// LessonInput is the create/update payload for a lesson.
type LessonInput struct {
	Title   string `json:"title"`
	Body    string `json:"body,omitempty"`
	Minutes int    `json:"duration_minutes,omitempty"`
}

// Enrollment links the current user to a course.
type Enrollment struct {
	ID        int64  `json:"id"`
	CourseID  int64  `json:"course_id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress_percent"`
	CourseRef Course `json:"course"`
}

// Profile is the authenticated user's account.
type Profile struct {
	ID       int64       `json:"id"`
	Email    types.Email `json:"email"`
	FullName string      `json:"full_name"`
	IsStaff  bool        `json:"is_staff"`
	JoinedOn *types.Date `json:"joined_on,omitempty"`
}

// ProfileInput is the update payload for the profile.
type ProfileInput struct {
	Email    types.Email `json:"email"`
	FullName string      `json:"full_name"`
}
