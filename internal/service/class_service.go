package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/repository"
)

// Class errors.
var (
	ErrClassMissing  = errors.New("class does not exist")
	ErrNotClassOwner = errors.New("not the instructor of this class")
)

// ClassService handles catalog business logic.
type ClassService struct {
	classRepo *repository.ClassRepository
	cache     *ViewCache
	log       zerolog.Logger
}

// NewClassService creates a new ClassService. cache may be nil.
func NewClassService(classRepo *repository.ClassRepository, cache *ViewCache, log zerolog.Logger) *ClassService {
	return &ClassService{
		classRepo: classRepo,
		cache:     cache,
		log:       log.With().Str("component", "class_service").Logger(),
	}
}

// Create adds a class owned by the instructor. New classes await review.
func (s *ClassService) Create(ctx context.Context, instructor *model.User, req model.CreateClassRequest) (*model.Class, error) {
	c := &model.Class{
		ClassName:       strings.TrimSpace(req.ClassName),
		ImageURL:        req.ImageURL,
		Description:     req.Description,
		VideoLink:       req.VideoLink,
		InstructorName:  instructor.Name,
		InstructorEmail: instructor.Email,
		AvailableSeats:  req.AvailableSeats,
		Price:           req.Price,
		Status:          model.ClassStatusPending,
	}
	if err := s.classRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.invalidateViews(ctx)
	return c, nil
}

// GetByID retrieves a class by its ID.
func (s *ClassService) GetByID(ctx context.Context, id uuid.UUID) (*model.Class, error) {
	c, err := s.classRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrClassMissing
	}
	return c, err
}

// ListAll returns every class regardless of status.
func (s *ClassService) ListAll(ctx context.Context) ([]model.Class, error) {
	return emptyIfNil(s.classRepo.ListAll(ctx))
}

// ListApproved returns the classes open for enrollment.
func (s *ClassService) ListApproved(ctx context.Context) ([]model.Class, error) {
	return emptyIfNil(s.classRepo.ListByStatus(ctx, model.ClassStatusApproved))
}

// ListByInstructor returns the classes an instructor owns.
func (s *ClassService) ListByInstructor(ctx context.Context, email string) ([]model.Class, error) {
	return emptyIfNil(s.classRepo.ListByInstructor(ctx, email))
}

// Update edits name, price and instructor name. Only the owning instructor
// may edit unless asAdmin is set.
func (s *ClassService) Update(ctx context.Context, id uuid.UUID, callerEmail string, asAdmin bool, req model.UpdateClassRequest) (*model.Class, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !asAdmin && c.InstructorEmail != callerEmail {
		return nil, ErrNotClassOwner
	}

	c.ClassName = strings.TrimSpace(req.ClassName)
	c.Price = req.Price
	c.InstructorName = strings.TrimSpace(req.InstructorName)
	if err := s.classRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.invalidateViews(ctx)
	return c, nil
}

// ChangeStatus records the admin review decision with an optional reason.
func (s *ClassService) ChangeStatus(ctx context.Context, id uuid.UUID, req model.ChangeStatusRequest) (*model.Class, error) {
	status := model.ClassStatus(req.Status)
	if err := s.classRepo.UpdateStatus(ctx, id, status, req.Reason); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClassMissing
		}
		return nil, err
	}
	s.invalidateViews(ctx)
	return s.GetByID(ctx, id)
}

func (s *ClassService) invalidateViews(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("View cache invalidation failed")
	}
}

func emptyIfNil(classes []model.Class, err error) ([]model.Class, error) {
	if err != nil {
		return nil, err
	}
	if classes == nil {
		classes = []model.Class{}
	}
	return classes, nil
}
