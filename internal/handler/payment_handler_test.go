package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simsmaster/sims-backend/internal/middleware"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/repository/memory"
	"github.com/simsmaster/sims-backend/internal/response"
	"github.com/simsmaster/sims-backend/internal/service"
	"github.com/simsmaster/sims-backend/internal/validator"
)

const (
	studentEmail = "student@sims.io"
	adminEmail   = "admin@sims.io"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// envelope decodes the standard response with the payload left raw.
type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

// fakeAuth stands in for RequireJWT and ResolveRole using test headers.
func fakeAuth(c *gin.Context) {
	c.Set(middleware.ContextKeyClaims, &service.Claims{Email: c.GetHeader("X-Test-Email")})
	if role := c.GetHeader("X-Test-Role"); role != "" {
		c.Set(middleware.ContextKeyRole, model.Role(role))
	}
	c.Next()
}

func newPaymentRouter(store *memory.Store) *gin.Engine {
	enrollments := service.NewEnrollmentService(store, nil, zerolog.Nop())
	history := service.NewHistoryService(store, store)
	h := NewPaymentHandler(enrollments, history, zerolog.Nop())

	r := gin.New()
	r.Use(fakeAuth)
	r.POST("/payments", h.CommitPurchase)
	r.GET("/payments/history/:email", h.PaymentHistory)
	r.GET("/payments/history/:email/count", h.PaymentCount)
	r.GET("/enrollments/:email/classes", h.EnrolledClasses)
	return r
}

func seedApproved(store *memory.Store, name string, seats int) model.Class {
	return store.PutClass(model.Class{
		ClassName:       name,
		InstructorName:  "Ada",
		InstructorEmail: "ada@sims.io",
		AvailableSeats:  seats,
		Price:           25,
		Status:          model.ClassStatusApproved,
	})
}

func do(t *testing.T, r *gin.Engine, method, path, email string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Email", email)
	if email == adminEmail {
		req.Header.Set("X-Test-Role", string(model.RoleAdmin))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestCommitPurchase_CreatesThenReplays(t *testing.T) {
	store := memory.New()
	class := seedApproved(store, "Go Basics", 3)
	store.PutCartItem(studentEmail, class.ID)
	r := newPaymentRouter(store)

	body := gin.H{
		"classes_id":     []string{class.ID.String()},
		"transaction_id": "pi_123",
		"price":          25,
	}

	w, env := do(t, r, http.MethodPost, "/payments", studentEmail, body)
	require.Equal(t, http.StatusCreated, w.Code)

	var result model.CommitResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Replayed)
	assert.Equal(t, studentEmail, result.Payment.UserEmail)
	assert.EqualValues(t, 1, result.CartItemsRemoved)
	require.Len(t, result.Classes, 1)
	assert.Equal(t, 2, result.Classes[0].AvailableSeats)

	w, env = do(t, r, http.MethodPost, "/payments", studentEmail, body)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Replayed)

	stored, _ := store.Class(class.ID)
	assert.Equal(t, 2, stored.AvailableSeats)
	assert.Len(t, store.Payments(), 1)
}

func TestCommitPurchase_RejectsOtherPayer(t *testing.T) {
	store := memory.New()
	class := seedApproved(store, "Go Basics", 3)
	r := newPaymentRouter(store)

	w, env := do(t, r, http.MethodPost, "/payments", studentEmail, gin.H{
		"user_email":     "someone@sims.io",
		"classes_id":     []string{class.ID.String()},
		"transaction_id": "pi_1",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, response.ErrForbidden, env.Error.Code)
	assert.Empty(t, store.Payments())
}

func TestCommitPurchase_Failures(t *testing.T) {
	store := memory.New()
	full := seedApproved(store, "Full", 0)
	open := seedApproved(store, "Open", 5)
	unknown := uuid.New()
	r := newPaymentRouter(store)

	tests := []struct {
		name     string
		body     gin.H
		path     string
		status   int
		code     response.ErrCode
		classIDs []string
	}{
		{
			name:     "class full",
			body:     gin.H{"classes_id": []string{open.ID.String(), full.ID.String()}, "transaction_id": "pi_full"},
			status:   http.StatusConflict,
			code:     response.ErrClassFull,
			classIDs: []string{full.ID.String()},
		},
		{
			name:     "unknown class",
			body:     gin.H{"classes_id": []string{unknown.String()}, "transaction_id": "pi_unknown"},
			status:   http.StatusNotFound,
			code:     response.ErrClassNotFound,
			classIDs: []string{unknown.String()},
		},
		{
			name:   "missing transaction id",
			body:   gin.H{"classes_id": []string{open.ID.String()}},
			status: http.StatusBadRequest,
			code:   response.ErrValidation,
		},
		{
			name:   "scope outside purchase",
			body:   gin.H{"classes_id": []string{open.ID.String()}, "transaction_id": "pi_scope"},
			path:   "/payments?classId=" + full.ID.String(),
			status: http.StatusBadRequest,
			code:   response.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path == "" {
				path = "/payments"
			}
			w, env := do(t, r, http.MethodPost, path, studentEmail, tt.body)

			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			if tt.classIDs != nil {
				assert.Equal(t, tt.classIDs, env.Error.ClassIDs)
			}
		})
	}

	stored, _ := store.Class(open.ID)
	assert.Equal(t, 5, stored.AvailableSeats, "failed commits must not consume seats")
}

func TestCommitPurchase_ScopedCartCleanup(t *testing.T) {
	store := memory.New()
	a := seedApproved(store, "A", 5)
	b := seedApproved(store, "B", 5)
	store.PutCartItem(studentEmail, a.ID)
	store.PutCartItem(studentEmail, b.ID)
	r := newPaymentRouter(store)

	w, _ := do(t, r, http.MethodPost, "/payments?classId="+a.ID.String(), studentEmail, gin.H{
		"classes_id":     []string{a.ID.String(), b.ID.String()},
		"transaction_id": "pi_scoped",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	remaining := store.CartItems(studentEmail)
	require.Len(t, remaining, 1)
	assert.Equal(t, b.ID, remaining[0].ClassID)
}

func TestHistoryEndpoints(t *testing.T) {
	store := memory.New()
	class := seedApproved(store, "Go Basics", 5)
	r := newPaymentRouter(store)

	w, _ := do(t, r, http.MethodPost, "/payments", studentEmail, gin.H{
		"classes_id":     []string{class.ID.String()},
		"transaction_id": "pi_hist",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("count for self", func(t *testing.T) {
		w, env := do(t, r, http.MethodGet, "/payments/history/"+studentEmail+"/count", studentEmail, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"count":1}`, string(env.Data))
	})

	t.Run("admin reads another payer", func(t *testing.T) {
		w, env := do(t, r, http.MethodGet, "/enrollments/"+studentEmail+"/classes", adminEmail, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var data struct {
			Classes []model.EnrolledClass `json:"classes"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.Classes, 1)
		assert.Equal(t, class.ID, data.Classes[0].Class.ID)
	})

	t.Run("other student forbidden", func(t *testing.T) {
		w, env := do(t, r, http.MethodGet, "/payments/history/"+studentEmail, "other@sims.io", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, response.ErrForbidden, env.Error.Code)
	})
}

func TestSeatMatches(t *testing.T) {
	id := uuid.New()
	payload := `{"class_id":"` + id.String() + `","available_seats":3,"total_enrolled":7}`

	assert.True(t, seatMatches(nil, payload))

	filter, err := parseWatchList([]string{id.String()})
	require.NoError(t, err)
	assert.True(t, seatMatches(filter, payload))

	other, err := parseWatchList([]string{uuid.NewString()})
	require.NoError(t, err)
	assert.False(t, seatMatches(other, payload))

	_, err = parseWatchList([]string{"not-a-uuid"})
	assert.Error(t, err)
}
