package service

import (
	"context"

	"github.com/simsmaster/sims-backend/internal/model"
)

// PaymentReader reads a payer's receipts.
type PaymentReader interface {
	ListByEmail(ctx context.Context, email string) ([]model.Payment, error)
	CountByEmail(ctx context.Context, email string) (int, error)
}

// EnrollmentReader reads a payer's enrollments joined with the catalog.
type EnrollmentReader interface {
	ListClassesByEmail(ctx context.Context, email string) ([]model.EnrolledClass, error)
}

// HistoryService serves the per-payer read endpoints.
type HistoryService struct {
	payments    PaymentReader
	enrollments EnrollmentReader
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(payments PaymentReader, enrollments EnrollmentReader) *HistoryService {
	return &HistoryService{payments: payments, enrollments: enrollments}
}

// PaymentHistory lists the payer's receipts, newest first.
func (s *HistoryService) PaymentHistory(ctx context.Context, email string) ([]model.Payment, error) {
	payments, err := s.payments.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	return payments, nil
}

// PaymentCount counts the payer's receipts.
func (s *HistoryService) PaymentCount(ctx context.Context, email string) (int, error) {
	return s.payments.CountByEmail(ctx, email)
}

// EnrolledClasses lists one row per (enrollment, class) for the payer.
func (s *HistoryService) EnrolledClasses(ctx context.Context, email string) ([]model.EnrolledClass, error) {
	rows, err := s.enrollments.ListClassesByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.EnrolledClass{}
	}
	return rows, nil
}
