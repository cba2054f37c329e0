package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/repository"
	"github.com/simsmaster/sims-backend/internal/response"
)

// ErrUserNotFound is returned when no account matches.
var ErrUserNotFound = errors.New("user not found")

// UserService handles account management.
type UserService struct {
	userRepo *repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// List returns one page of users.
func (s *UserService) List(ctx context.Context, page, perPage int) ([]model.User, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	users, total, err := s.userRepo.ListPaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, response.NewPagination(page, perPage, total), nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return notFoundAs(s.userRepo.GetByID(ctx, id))
}

// GetByEmail retrieves a user by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return notFoundAs(s.userRepo.GetByEmail(ctx, email))
}

// ListInstructors returns every user holding the instructor role.
func (s *UserService) ListInstructors(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.ListByRole(ctx, model.RoleInstructor)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// Update replaces a user's profile and role.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req model.UpdateUserRequest) (*model.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	role, _ := model.ParseRole(req.Role)
	u.Name = strings.TrimSpace(req.Name)
	u.Email = strings.ToLower(strings.TrimSpace(req.Email))
	u.Role = role
	u.Phone = req.Phone
	u.Address = req.Address
	u.About = req.About
	u.PhotoURL = req.PhotoURL
	u.Skills = req.Skills

	if err := s.userRepo.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// CurrentRole reads the role the account holds right now.
func (s *UserService) CurrentRole(ctx context.Context, email string) (model.Role, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	role, ok := model.ParseRole(string(u.Role))
	if !ok {
		return u.Role, nil
	}
	return role, nil
}

func notFoundAs(u *model.User, err error) (*model.User, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}
