// Package memory is an in-process implementation of the commit and view
// storage boundaries. A single mutex serialises every operation; RunCommit
// holds it for the whole unit and restores a snapshot when fn fails.
package memory

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/repository"
)

var _ repository.CommitStore = (*Store)(nil)

// Fault points accepted by FailOn.
const (
	OpLockClasses      = "lock_classes"
	OpReserveSeats     = "reserve_seats"
	OpInsertEnrollment = "insert_enrollment"
	OpDeleteCartItems  = "delete_cart_items"
	OpInsertPayment    = "insert_payment"
	OpCompleteIntent   = "complete_intent"
)

type state struct {
	classes     map[uuid.UUID]model.Class
	users       map[string]model.User
	cart        []model.CartItem
	enrollments []model.Enrollment
	payments    []model.Payment
	intents     map[string]model.PurchaseIntent
}

func (s *state) clone() state {
	c := state{
		classes:     make(map[uuid.UUID]model.Class, len(s.classes)),
		users:       make(map[string]model.User, len(s.users)),
		cart:        slices.Clone(s.cart),
		enrollments: slices.Clone(s.enrollments),
		payments:    slices.Clone(s.payments),
		intents:     make(map[string]model.PurchaseIntent, len(s.intents)),
	}
	for k, v := range s.classes {
		c.classes[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.intents {
		c.intents[k] = v
	}
	return c
}

// Store holds catalog, cart, enrollment, payment and intent state in memory.
type Store struct {
	mu     sync.Mutex
	st     state
	faults map[string]error
	now    func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		st: state{
			classes: make(map[uuid.UUID]model.Class),
			users:   make(map[string]model.User),
			intents: make(map[string]model.PurchaseIntent),
		},
		faults: make(map[string]error),
		now:    time.Now,
	}
}

// FailOn makes the named commit operation return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// ─── Seeding and inspection ───────────────────────────────────────────────

// PutClass inserts or replaces a class. A zero ID is filled in.
func (s *Store) PutClass(c model.Class) model.Class {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
		c.UpdatedAt = c.CreatedAt
	}
	s.st.classes[c.ID] = c
	return c
}

// PutUser inserts or replaces a user keyed by email.
func (s *Store) PutUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.st.users[u.Email] = u
	return u
}

// PutCartItem adds a cart item.
func (s *Store) PutCartItem(userEmail string, classID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.cart = append(s.st.cart, model.CartItem{
		ID: uuid.New(), UserEmail: userEmail, ClassID: classID, CreatedAt: s.now(),
	})
}

// PutIntent inserts or replaces a purchase intent as-is.
func (s *Store) PutIntent(i model.PurchaseIntent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.intents[i.TransactionID] = i
}

// Class returns the stored class.
func (s *Store) Class(id uuid.UUID) (model.Class, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.classes[id]
	return c, ok
}

// CartItems returns a copy of the user's cart.
func (s *Store) CartItems(userEmail string) []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []model.CartItem
	for _, it := range s.st.cart {
		if it.UserEmail == userEmail {
			items = append(items, it)
		}
	}
	return items
}

// Enrollments returns a copy of every enrollment record.
func (s *Store) Enrollments() []model.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.enrollments)
}

// Payments returns a copy of every payment receipt.
func (s *Store) Payments() []model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.payments)
}

// Intent returns the stored purchase intent.
func (s *Store) Intent(transactionID string) (model.PurchaseIntent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.st.intents[transactionID]
	return i, ok
}

// ─── View sources ─────────────────────────────────────────────────────────

// ListAll returns every class.
func (s *Store) ListAll(_ context.Context) ([]model.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	classes := make([]model.Class, 0, len(s.st.classes))
	for _, c := range s.st.classes {
		classes = append(classes, c)
	}
	return classes, nil
}

// ListByEmails returns the users whose email is in emails.
func (s *Store) ListByEmails(_ context.Context, emails []string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []model.User
	for _, e := range emails {
		if u, ok := s.st.users[e]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// AdminCounts computes the dashboard counters.
func (s *Store) AdminCounts(_ context.Context) (model.AdminStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st model.AdminStats
	for _, c := range s.st.classes {
		switch c.Status {
		case model.ClassStatusApproved:
			st.ApprovedClasses++
		case model.ClassStatusPending:
			st.PendingClasses++
		}
	}
	for _, u := range s.st.users {
		if u.Role.Is(model.RoleInstructor) {
			st.Instructors++
		}
	}
	st.TotalClasses = len(s.st.classes)
	st.TotalEnrolled = len(s.st.enrollments)
	return st, nil
}

// ListByEmail returns a payer's receipts, newest first.
func (s *Store) ListByEmail(_ context.Context, email string) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Payment
	for i := len(s.st.payments) - 1; i >= 0; i-- {
		if s.st.payments[i].UserEmail == email {
			out = append(out, s.st.payments[i])
		}
	}
	return out, nil
}

// CountByEmail counts a payer's receipts.
func (s *Store) CountByEmail(ctx context.Context, email string) (int, error) {
	p, _ := s.ListByEmail(ctx, email)
	return len(p), nil
}

// ListClassesByEmail joins a payer's enrollments with the catalog.
func (s *Store) ListClassesByEmail(_ context.Context, email string) ([]model.EnrolledClass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.EnrolledClass
	for i := len(s.st.enrollments) - 1; i >= 0; i-- {
		e := s.st.enrollments[i]
		if e.UserEmail != email {
			continue
		}
		for _, id := range e.ClassIDs {
			if c, ok := s.st.classes[id]; ok {
				out = append(out, model.EnrolledClass{
					EnrollmentID: e.ID, TransactionID: e.TransactionID, EnrolledAt: e.CreatedAt, Class: c,
				})
			}
		}
	}
	return out, nil
}

// ─── Intent log ───────────────────────────────────────────────────────────

func (s *Store) ClaimIntent(_ context.Context, intent model.PurchaseIntent) (*model.PurchaseIntent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.st.intents[intent.TransactionID]
	switch {
	case !ok:
		intent.Status = model.IntentStatusPending
		intent.Attempts = 1
		intent.CreatedAt = now
		intent.UpdatedAt = now
		s.st.intents[intent.TransactionID] = intent
		return &intent, true, nil
	case existing.Status == model.IntentStatusFailed && existing.UserEmail == intent.UserEmail:
		existing.Status = model.IntentStatusPending
		existing.FailureCode = ""
		existing.Payload = intent.Payload
		existing.Attempts++
		existing.UpdatedAt = now
		s.st.intents[intent.TransactionID] = existing
		return &existing, true, nil
	default:
		return &existing, false, nil
	}
}

func (s *Store) FailIntent(_ context.Context, transactionID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.st.intents[transactionID]
	if !ok || i.Status != model.IntentStatusPending {
		return nil
	}
	i.Status = model.IntentStatusFailed
	i.FailureCode = code
	i.UpdatedAt = s.now()
	s.st.intents[transactionID] = i
	return nil
}

func (s *Store) ListStaleIntents(_ context.Context, olderThan time.Time, limit int) ([]model.PurchaseIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PurchaseIntent
	for _, i := range s.st.intents {
		if i.Status == model.IntentStatusPending && i.UpdatedAt.Before(olderThan) {
			out = append(out, i)
		}
	}
	slices.SortFunc(out, func(a, b model.PurchaseIntent) int { return a.UpdatedAt.Compare(b.UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ReclaimStaleIntent(_ context.Context, transactionID string, olderThan time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.st.intents[transactionID]
	if !ok || i.Status != model.IntentStatusPending || !i.UpdatedAt.Before(olderThan) {
		return false, nil
	}
	i.Attempts++
	i.UpdatedAt = s.now()
	s.st.intents[transactionID] = i
	return true, nil
}

// ─── Commit unit ──────────────────────────────────────────────────────────

func (s *Store) RunCommit(_ context.Context, fn func(repository.CommitTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&memTx{s: s}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// memTx runs with Store.mu held by RunCommit.
type memTx struct {
	s *Store
}

func (t *memTx) fault(op string) error {
	return t.s.faults[op]
}

func (t *memTx) LockClasses(_ context.Context, ids []uuid.UUID) ([]model.Class, error) {
	if err := t.fault(OpLockClasses); err != nil {
		return nil, err
	}
	var out []model.Class
	for _, id := range ids {
		if c, ok := t.s.st.classes[id]; ok {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b model.Class) int { return strings.Compare(a.ID.String(), b.ID.String()) })
	return out, nil
}

func (t *memTx) ReserveSeats(_ context.Context, ids []uuid.UUID) ([]model.SeatSnapshot, error) {
	if err := t.fault(OpReserveSeats); err != nil {
		return nil, err
	}
	var out []model.SeatSnapshot
	for _, id := range ids {
		c, ok := t.s.st.classes[id]
		if !ok || c.AvailableSeats <= 0 {
			continue
		}
		c.AvailableSeats--
		c.TotalEnrolled++
		c.UpdatedAt = t.s.now()
		t.s.st.classes[id] = c
		out = append(out, model.SeatSnapshot{ClassID: id, AvailableSeats: c.AvailableSeats, TotalEnrolled: c.TotalEnrolled})
	}
	return out, nil
}

func (t *memTx) InsertEnrollment(_ context.Context, e *model.Enrollment) error {
	if err := t.fault(OpInsertEnrollment); err != nil {
		return err
	}
	for _, existing := range t.s.st.enrollments {
		if existing.TransactionID == e.TransactionID {
			return repository.ErrDuplicate
		}
	}
	e.ID = uuid.New()
	e.CreatedAt = t.s.now()
	e.ClassIDs = slices.Clone(e.ClassIDs)
	t.s.st.enrollments = append(t.s.st.enrollments, *e)
	return nil
}

func (t *memTx) DeleteCartItems(_ context.Context, userEmail string, classIDs []uuid.UUID) (int64, error) {
	if err := t.fault(OpDeleteCartItems); err != nil {
		return 0, err
	}
	var removed int64
	kept := t.s.st.cart[:0:0]
	for _, it := range t.s.st.cart {
		if it.UserEmail == userEmail && slices.Contains(classIDs, it.ClassID) {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	t.s.st.cart = kept
	return removed, nil
}

func (t *memTx) InsertPayment(_ context.Context, p *model.Payment) error {
	if err := t.fault(OpInsertPayment); err != nil {
		return err
	}
	for _, existing := range t.s.st.payments {
		if existing.TransactionID == p.TransactionID {
			return repository.ErrDuplicate
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = t.s.now()
	t.s.st.payments = append(t.s.st.payments, *p)
	return nil
}

func (t *memTx) CompleteIntent(_ context.Context, transactionID string, result json.RawMessage) error {
	if err := t.fault(OpCompleteIntent); err != nil {
		return err
	}
	i, ok := t.s.st.intents[transactionID]
	if !ok || i.Status != model.IntentStatusPending {
		return repository.ErrIntentNotPending
	}
	i.Status = model.IntentStatusCommitted
	i.Result = slices.Clone(result)
	i.UpdatedAt = t.s.now()
	t.s.st.intents[transactionID] = i
	return nil
}
