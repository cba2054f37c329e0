package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/repository"
)

// Cart errors.
var (
	ErrAlreadyInCart    = errors.New("class already in cart")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrClassNotApproved = errors.New("class is not open for enrollment")
)

// CartService handles cart operations for the calling user.
type CartService struct {
	cartRepo  *repository.CartRepository
	classRepo *repository.ClassRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo *repository.CartRepository, classRepo *repository.ClassRepository) *CartService {
	return &CartService{cartRepo: cartRepo, classRepo: classRepo}
}

// Add puts an approved class into the user's cart.
func (s *CartService) Add(ctx context.Context, userEmail string, classID uuid.UUID) (*model.CartItem, error) {
	c, err := s.classRepo.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClassMissing
		}
		return nil, err
	}
	if c.Status != model.ClassStatusApproved {
		return nil, ErrClassNotApproved
	}

	item := &model.CartItem{UserEmail: userEmail, ClassID: classID}
	if err := s.cartRepo.Add(ctx, item); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrAlreadyInCart
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrClassMissing
		}
		return nil, err
	}
	return item, nil
}

// Contains reports whether the class is in the user's cart.
func (s *CartService) Contains(ctx context.Context, userEmail string, classID uuid.UUID) (bool, error) {
	return s.cartRepo.Exists(ctx, userEmail, classID)
}

// ListClasses returns the classes in the user's cart.
func (s *CartService) ListClasses(ctx context.Context, userEmail string) ([]model.Class, error) {
	return emptyIfNil(s.cartRepo.ListClasses(ctx, userEmail))
}

// Remove deletes one class from the user's cart. Other users' carts are
// never touched.
func (s *CartService) Remove(ctx context.Context, userEmail string, classID uuid.UUID) error {
	if err := s.cartRepo.Delete(ctx, userEmail, classID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCartItemNotFound
		}
		return err
	}
	return nil
}
