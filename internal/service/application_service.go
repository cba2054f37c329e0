package service

import (
	"context"
	"errors"
	"strings"

	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/repository"
)

// Application errors.
var (
	ErrAlreadyApplied      = errors.New("application already submitted")
	ErrApplicationNotFound = errors.New("application not found")
)

// ApplicationService handles instructor applications.
type ApplicationService struct {
	appRepo  *repository.ApplicationRepository
	userRepo *repository.UserRepository
}

// NewApplicationService creates a new ApplicationService.
func NewApplicationService(appRepo *repository.ApplicationRepository, userRepo *repository.UserRepository) *ApplicationService {
	return &ApplicationService{appRepo: appRepo, userRepo: userRepo}
}

// Apply records an application for the calling user.
func (s *ApplicationService) Apply(ctx context.Context, email string, req model.ApplyInstructorRequest) (*model.InstructorApplication, error) {
	a := &model.InstructorApplication{
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
		Experience: req.Experience,
	}
	if err := s.appRepo.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyApplied
		}
		return nil, err
	}
	return a, nil
}

// GetByEmail retrieves the application submitted with an email.
func (s *ApplicationService) GetByEmail(ctx context.Context, email string) (*model.InstructorApplication, error) {
	a, err := s.appRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	return a, err
}

// List returns every pending application.
func (s *ApplicationService) List(ctx context.Context) ([]model.InstructorApplication, error) {
	apps, err := s.appRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []model.InstructorApplication{}
	}
	return apps, nil
}

// GrantRole sets the role of the applicant's account.
func (s *ApplicationService) GrantRole(ctx context.Context, email string, req model.UpdateApplicantRequest) error {
	role, _ := model.ParseRole(req.Role)
	if err := s.userRepo.UpdateRole(ctx, email, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// Delete removes the application submitted with an email.
func (s *ApplicationService) Delete(ctx context.Context, email string) error {
	if err := s.appRepo.DeleteByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrApplicationNotFound
		}
		return err
	}
	return nil
}
