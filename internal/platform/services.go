package platform

import (
	"context"
	"fmt"

	"github.com/coursekit/campusctl/internal/api"
)

// Services bundles the resource bindings over one shared client.
type Services struct {
	Courses     *CoursesService
	Modules     *ModulesService
	Lessons     *LessonsService
	Enrollments *EnrollmentsService
	Profile     *ProfileService
}

// New creates the resource services over the given client.
func New(client *api.Client) *Services {
	return &Services{
		Courses:     &CoursesService{client: client},
		Modules:     &ModulesService{client: client},
		Lessons:     &LessonsService{client: client},
		Enrollments: &EnrollmentsService{client: client},
		Profile:     &ProfileService{client: client},
	}
}

// CoursesService manages courses.
type CoursesService struct {
	client *api.Client
}

func (s *CoursesService) List(ctx context.Context) ([]Course, error) {
	var out []Course
	if err := s.client.Get(ctx, "/courses/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CoursesService) Get(ctx context.Context, id int64) (*Course, error) {
	var out Course
	if err := s.client.Get(ctx, fmt.Sprintf("/courses/%d/", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CoursesService) Create(ctx context.Context, in CourseInput) (*Course, error) {
	var out Course
	if err := s.client.Post(ctx, "/courses/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CoursesService) Update(ctx context.Context, id int64, in CourseInput) (*Course, error) {
	var out Course
	if err := s.client.Put(ctx, fmt.Sprintf("/courses/%d/", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CoursesService) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/courses/%d/", id))
}

// ModulesService manages the modules of a course.
type ModulesService struct {
	client *api.Client
}

func (s *ModulesService) List(ctx context.Context, courseID int64) ([]Module, error) {
	var out []Module
	if err := s.client.Get(ctx, fmt.Sprintf("/courses/%d/modules/", courseID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ModulesService) Create(ctx context.Context, courseID int64, in ModuleInput) (*Module, error) {
	var out Module
	if err := s.client.Post(ctx, fmt.Sprintf("/courses/%d/modules/", courseID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reorder sets the module order for a course to the given module IDs.
func (s *ModulesService) Reorder(ctx context.Context, courseID int64, moduleIDs []int64) error {
	in := struct {
		Order []int64 `json:"order"`
	}{Order: moduleIDs}
	return s.client.Patch(ctx, fmt.Sprintf("/courses/%d/modules/reorder/", courseID), in, nil)
}

// LessonsService manages the lessons of a module.
type LessonsService struct {
	client *api.Client
}

func (s *LessonsService) List(ctx context.Context, moduleID int64) ([]Lesson, error) {
	var out []Lesson
	if err := s.client.Get(ctx, fmt.Sprintf("/modules/%d/lessons/", moduleID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *LessonsService) Get(ctx context.Context, id int64) (*Lesson, error) {
	var out Lesson
	if err := s.client.Get(ctx, fmt.Sprintf("/lessons/%d/", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *LessonsService) Create(ctx context.Context, moduleID int64, in LessonInput) (*Lesson, error) {
	var out Lesson
	if err := s.client.Post(ctx, fmt.Sprintf("/modules/%d/lessons/", moduleID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *LessonsService) Update(ctx context.Context, id int64, in LessonInput) (*Lesson, error) {
	var out Lesson
	if err := s.client.Put(ctx, fmt.Sprintf("/lessons/%d/", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *LessonsService) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/lessons/%d/", id))
}

// EnrollmentsService manages the current user's enrollments.
type EnrollmentsService struct {
	client *api.Client
}

func (s *EnrollmentsService) List(ctx context.Context) ([]Enrollment, error) {
	var out []Enrollment
	if err := s.client.Get(ctx, "/enrollments/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *EnrollmentsService) Enroll(ctx context.Context, courseID int64) (*Enrollment, error) {
	in := struct {
		CourseID int64 `json:"course_id"`
	}{CourseID: courseID}
	var out Enrollment
	if err := s.client.Post(ctx, "/enrollments/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *EnrollmentsService) Withdraw(ctx context.Context, enrollmentID int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/enrollments/%d/", enrollmentID))
}

// ProfileService manages the authenticated user's account.
type ProfileService struct {
	client *api.Client
}

func (s *ProfileService) Get(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := s.client.Get(ctx, "/profile/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProfileService) Update(ctx context.Context, in ProfileInput) (*Profile, error) {
	var out Profile
	if err := s.client.Put(ctx, "/profile/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
