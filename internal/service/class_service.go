package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/models"
	"github.com/noah-isme/school-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
)

const (
	msgClassNotFound  = "Class not found"
	msgClassDuplicate = "Class already exists"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

// ClassResolver looks up reference data for a class ID. Attendance never depends on a successful lookup.
type ClassResolver interface {
	Resolve(ctx context.Context, id string) (*models.Class, error)
}

// CreateClassRequest captures creation payload.
type CreateClassRequest struct {
	Name          string  `json:"name" validate:"required"`
	Division      string  `json:"division" validate:"required,class_division"`
	Department    *string `json:"department" validate:"omitempty,class_department"`
	TotalStudents *int    `json:"totalStudents" validate:"omitempty,gte=0"`
	TeacherName   string  `json:"teacherName"`
}

// UpdateClassRequest modifies class fields. Nil or empty fields keep their current value.
type UpdateClassRequest struct {
	Name          *string `json:"name"`
	Division      *string `json:"division" validate:"omitempty,class_division"`
	Department    *string `json:"department" validate:"omitempty,class_department"`
	TotalStudents *int    `json:"totalStudents" validate:"omitempty,gte=0"`
	TeacherName   *string `json:"teacherName"`
}

// ClassService coordinates class operations.
type ClassService struct {
	repo      classRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ClassService{repo: repo, validator: validate, logger: logger}
	svc.validator.RegisterValidation("class_division", func(fl validator.FieldLevel) bool {
		return models.ClassDivision(fl.Field().String()).Valid()
	})
	svc.validator.RegisterValidation("class_department", func(fl validator.FieldLevel) bool {
		return models.ClassDepartment(fl.Field().String()).Valid()
	})
	return svc
}

// List returns classes ordered by name.
func (s *ClassService) List(ctx context.Context) ([]models.Class, error) {
	return s.list(ctx, models.ClassFilter{})
}

// ListByDivision returns the classes of one division ordered by name.
func (s *ClassService) ListByDivision(ctx context.Context, division string) ([]models.Class, error) {
	return s.list(ctx, models.ClassFilter{Division: models.ClassDivision(division)})
}

func (s *ClassService) list(ctx context.Context, filter models.ClassFilter) ([]models.Class, error) {
	classes, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	if classes == nil {
		classes = []models.Class{}
	}
	return classes, nil
}

// Get returns a class by ID.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgClassNotFound)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Resolve implements ClassResolver.
func (s *ClassService) Resolve(ctx context.Context, id string) (*models.Class, error) {
	return s.Get(ctx, id)
}

// Create adds a new class. The unique name index rejects duplicates.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class := &models.Class{
		Name:        strings.TrimSpace(req.Name),
		Division:    models.ClassDivision(req.Division),
		TeacherName: req.TeacherName,
	}
	if req.Department != nil {
		dept := models.ClassDepartment(*req.Department)
		class.Department = &dept
	}
	if req.TotalStudents != nil {
		class.TotalStudents = *req.TotalStudents
	}
	if err := s.repo.Create(ctx, class); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Wrap(err, appErrors.ErrDuplicateRecord.Code, appErrors.ErrDuplicateRecord.Status, msgClassDuplicate)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// Update modifies a class record.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := trimmed(req.Name); v != "" {
		class.Name = v
	}
	if v := trimmed(req.Division); v != "" {
		class.Division = models.ClassDivision(v)
	}
	if v := trimmed(req.Department); v != "" {
		dept := models.ClassDepartment(v)
		class.Department = &dept
	}
	if req.TotalStudents != nil {
		class.TotalStudents = *req.TotalStudents
	}
	if req.TeacherName != nil && *req.TeacherName != "" {
		class.TeacherName = *req.TeacherName
	}

	if err := s.repo.Update(ctx, class); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Wrap(err, appErrors.ErrDuplicateRecord.Code, appErrors.ErrDuplicateRecord.Status, msgClassDuplicate)
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgClassNotFound)
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
		}
	}
	return class, nil
}

// Delete removes a class. Attendance rows that reference it are kept.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, msgClassNotFound)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.logger.Info("class deleted", zap.String("id", id))
	return nil
}
