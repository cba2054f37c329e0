package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/repository"
)

// Commit errors.
var (
	ErrInvalidPurchase     = errors.New("invalid purchase request")
	ErrClassNotFound       = errors.New("class not found")
	ErrClassFull           = errors.New("class has no seats left")
	ErrCommitInProgress    = errors.New("transaction is already being committed")
	ErrIdempotencyConflict = errors.New("transaction id was used by another payer")
)

// Failure codes recorded on FAILED intents.
const (
	FailureClassNotFound = "CLASS_NOT_FOUND"
	FailureClassFull     = "CLASS_FULL"
	FailureStore         = "STORE_ERROR"
)

// PurchaseValidationError lists the request fields that failed validation.
type PurchaseValidationError struct {
	Fields map[string]string
}

func (e *PurchaseValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%v: %s", ErrInvalidPurchase, strings.Join(parts, "; "))
}

func (e *PurchaseValidationError) Unwrap() error { return ErrInvalidPurchase }

// CommitError is a commit failure tied to specific classes.
type CommitError struct {
	Err      error
	ClassIDs []uuid.UUID
}

func (e *CommitError) Error() string {
	ids := make([]string, len(e.ClassIDs))
	for i, id := range e.ClassIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(ids, ","))
}

func (e *CommitError) Unwrap() error { return e.Err }

// CommitNotifier is told about every purchase after its transaction commits.
// Implementations must not block the caller for long and must not fail it.
type CommitNotifier interface {
	EnrollmentCommitted(ctx context.Context, result *model.CommitResult)
}

// purchase is a validated, normalised PurchaseRequest. It is also the intent
// payload, so a stale intent can be replayed without the original request.
type purchase struct {
	UserEmail     string          `json:"user_email"`
	ClassIDs      []uuid.UUID     `json:"classes_id"`
	ScopeClassID  *uuid.UUID      `json:"scope_class_id,omitempty"`
	TransactionID string          `json:"transaction_id"`
	Amount        float64         `json:"price"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// EnrollmentService commits purchases across the catalog, enrollment, cart
// and payment stores as one unit.
type EnrollmentService struct {
	store    repository.CommitStore
	notifier CommitNotifier
	log      zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService. notifier may be nil.
func NewEnrollmentService(store repository.CommitStore, notifier CommitNotifier, log zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		store:    store,
		notifier: notifier,
		log:      log.With().Str("component", "enrollment_service").Logger(),
	}
}

// Commit records a paid purchase. Resubmitting a committed transaction id for
// the same payer returns the stored result with Replayed set and writes nothing.
func (s *EnrollmentService) Commit(ctx context.Context, req model.PurchaseRequest) (*model.CommitResult, error) {
	p, err := normalizePurchase(req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode intent payload: %w", err)
	}

	stored, claimed, err := s.store.ClaimIntent(ctx, model.PurchaseIntent{
		TransactionID: p.TransactionID,
		UserEmail:     p.UserEmail,
		Payload:       payload,
	})
	if err != nil {
		return nil, fmt.Errorf("claim intent: %w", err)
	}
	if !claimed {
		return resolveExistingIntent(stored, p.UserEmail)
	}

	return s.execute(ctx, p)
}

// resolveExistingIntent handles a transaction id that could not be claimed.
func resolveExistingIntent(intent *model.PurchaseIntent, payer string) (*model.CommitResult, error) {
	if intent.UserEmail != payer {
		return nil, ErrIdempotencyConflict
	}
	if intent.Status != model.IntentStatusCommitted {
		return nil, ErrCommitInProgress
	}

	var result model.CommitResult
	if err := json.Unmarshal(intent.Result, &result); err != nil {
		return nil, fmt.Errorf("decode stored result: %w", err)
	}
	result.Replayed = true
	return &result, nil
}

// execute runs the commit unit for a claimed intent.
func (s *EnrollmentService) execute(ctx context.Context, p purchase) (*model.CommitResult, error) {
	var result *model.CommitResult

	err := s.store.RunCommit(ctx, func(tx repository.CommitTx) error {
		locked, err := tx.LockClasses(ctx, p.ClassIDs)
		if err != nil {
			return fmt.Errorf("lock classes: %w", err)
		}
		if missing := missingIDs(p.ClassIDs, classIDsOf(locked)); len(missing) > 0 {
			return &CommitError{Err: ErrClassNotFound, ClassIDs: missing}
		}

		seats, err := tx.ReserveSeats(ctx, p.ClassIDs)
		if err != nil {
			return fmt.Errorf("reserve seats: %w", err)
		}
		if full := missingIDs(p.ClassIDs, seatIDsOf(seats)); len(full) > 0 {
			return &CommitError{Err: ErrClassFull, ClassIDs: full}
		}

		enrollment := model.Enrollment{
			UserEmail:     p.UserEmail,
			ClassIDs:      p.ClassIDs,
			TransactionID: p.TransactionID,
		}
		if err := tx.InsertEnrollment(ctx, &enrollment); err != nil {
			return fmt.Errorf("insert enrollment: %w", err)
		}

		cartScope := p.ClassIDs
		if p.ScopeClassID != nil {
			cartScope = []uuid.UUID{*p.ScopeClassID}
		}
		removed, err := tx.DeleteCartItems(ctx, p.UserEmail, cartScope)
		if err != nil {
			return fmt.Errorf("delete cart items: %w", err)
		}

		payment := model.Payment{
			UserEmail:     p.UserEmail,
			ClassIDs:      p.ClassIDs,
			TransactionID: p.TransactionID,
			Amount:        p.Amount,
			Metadata:      p.Metadata,
		}
		if err := tx.InsertPayment(ctx, &payment); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		r := &model.CommitResult{
			TransactionID:    p.TransactionID,
			Classes:          orderSeats(p.ClassIDs, seats),
			Enrollment:       enrollment,
			CartItemsRemoved: removed,
			Payment:          payment,
		}
		raw, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		if err := tx.CompleteIntent(ctx, p.TransactionID, raw); err != nil {
			return fmt.Errorf("complete intent: %w", err)
		}

		result = r
		return nil
	})
	if err != nil {
		s.failIntent(ctx, p.TransactionID, err)
		if errors.Is(err, repository.ErrIntentNotPending) {
			return nil, ErrCommitInProgress
		}
		return nil, err
	}

	s.log.Info().
		Str("transaction_id", p.TransactionID).
		Str("user_email", p.UserEmail).
		Int("classes", len(p.ClassIDs)).
		Int64("cart_items_removed", result.CartItemsRemoved).
		Msg("Purchase committed")

	if s.notifier != nil {
		s.notifier.EnrollmentCommitted(context.WithoutCancel(ctx), result)
	}
	return result, nil
}

// failIntent records the failure so the transaction id can be retried. It
// runs detached from the request so a cancelled client still leaves a FAILED
// intent behind rather than a PENDING one.
func (s *EnrollmentService) failIntent(ctx context.Context, transactionID string, cause error) {
	code := FailureStore
	switch {
	case errors.Is(cause, ErrClassNotFound):
		code = FailureClassNotFound
	case errors.Is(cause, ErrClassFull):
		code = FailureClassFull
	}

	if err := s.store.FailIntent(context.WithoutCancel(ctx), transactionID, code); err != nil {
		s.log.Error().Err(err).Str("transaction_id", transactionID).Msg("Failed to mark intent failed")
		return
	}
	s.log.Warn().Err(cause).Str("transaction_id", transactionID).Str("code", code).Msg("Purchase rolled back")
}

// normalizePurchase validates req and collapses duplicate class ids keeping
// first-seen order.
func normalizePurchase(req model.PurchaseRequest) (purchase, error) {
	fields := make(map[string]string)

	p := purchase{
		UserEmail:     strings.TrimSpace(req.UserEmail),
		TransactionID: strings.TrimSpace(req.TransactionID),
		Amount:        req.Amount,
		Metadata:      req.Metadata,
	}

	if p.UserEmail == "" {
		fields["user_email"] = "payer is required"
	}
	if p.TransactionID == "" {
		fields["transaction_id"] = "transaction_id is required"
	}
	if req.Amount < 0 {
		fields["price"] = "price must not be negative"
	}

	if len(req.ClassIDs) == 0 {
		fields["classes_id"] = "at least one class is required"
	}
	seen := make(map[uuid.UUID]struct{}, len(req.ClassIDs))
	for _, raw := range req.ClassIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			fields["classes_id"] = fmt.Sprintf("%q is not a valid class id", raw)
			break
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		p.ClassIDs = append(p.ClassIDs, id)
	}

	if req.ScopeClassID != "" {
		id, err := uuid.Parse(req.ScopeClassID)
		switch {
		case err != nil:
			fields["classId"] = "classId is not a valid class id"
		case !slices.Contains(p.ClassIDs, id):
			fields["classId"] = "classId must be one of the purchased classes"
		default:
			p.ScopeClassID = &id
		}
	}

	if len(fields) > 0 {
		return purchase{}, &PurchaseValidationError{Fields: fields}
	}
	return p, nil
}

func classIDsOf(classes []model.Class) []uuid.UUID {
	ids := make([]uuid.UUID, len(classes))
	for i, c := range classes {
		ids[i] = c.ID
	}
	return ids
}

func seatIDsOf(seats []model.SeatSnapshot) []uuid.UUID {
	ids := make([]uuid.UUID, len(seats))
	for i, s := range seats {
		ids[i] = s.ClassID
	}
	return ids
}

// missingIDs returns the ids in want that are absent from got, in want order.
func missingIDs(want, got []uuid.UUID) []uuid.UUID {
	var missing []uuid.UUID
	for _, id := range want {
		if !slices.Contains(got, id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// orderSeats returns seats in purchase order.
func orderSeats(order []uuid.UUID, seats []model.SeatSnapshot) []model.SeatSnapshot {
	out := make([]model.SeatSnapshot, 0, len(seats))
	for _, id := range order {
		for _, s := range seats {
			if s.ClassID == id {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
