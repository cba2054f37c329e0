package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/repository/memory"
)

func TestRankPopularClasses(t *testing.T) {
	// "half" sits exactly on the threshold and "sold-out" has no seats left;
	// neither qualifies.
	classes := []model.Class{
		{ClassName: "half", AvailableSeats: 10, TotalEnrolled: 5},
		{ClassName: "hot", AvailableSeats: 10, TotalEnrolled: 6},
		{ClassName: "sold-out", AvailableSeats: 0, TotalEnrolled: 40},
		{ClassName: "overbooked", AvailableSeats: 2, TotalEnrolled: 8},
		{ClassName: "cold", AvailableSeats: 20, TotalEnrolled: 1},
		{ClassName: "also-hot", AvailableSeats: 10, TotalEnrolled: 6},
	}

	got := RankPopularClasses(classes)

	names := make([]string, len(got))
	for i, p := range got {
		names[i] = p.ClassName
	}
	assert.Equal(t, []string{"overbooked", "also-hot", "hot"}, names)
	assert.InDelta(t, 400.0, got[0].FillRatio, 1e-9)
	assert.InDelta(t, 60.0, got[1].FillRatio, 1e-9)
}

func TestRankPopularClasses_EmptyCatalog(t *testing.T) {
	got := RankPopularClasses(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEnrollmentsByInstructor(t *testing.T) {
	classes := []model.Class{
		{InstructorEmail: "x@sims.io", TotalEnrolled: 5},
		{InstructorEmail: "y@sims.io", TotalEnrolled: 3},
		{InstructorEmail: "x@sims.io", TotalEnrolled: 8},
	}
	assert.Equal(t, map[string]int{"x@sims.io": 13, "y@sims.io": 3}, EnrollmentsByInstructor(classes))
}

func TestRankInstructors(t *testing.T) {
	totals := map[string]int{"x@sims.io": 13, "y@sims.io": 3, "s@sims.io": 50}
	users := []model.User{
		{Email: "y@sims.io", Name: "Y", Role: "Instructor"},
		{Email: "x@sims.io", Name: "X", Role: model.RoleInstructor},
		{Email: "s@sims.io", Name: "S", Role: model.RoleStudent},
	}

	got := RankInstructors(totals, users, 6)
	require.Len(t, got, 2)
	assert.Equal(t, "x@sims.io", got[0].Instructor.Email)
	assert.Equal(t, 13, got[0].TotalEnrolled)
	assert.Equal(t, "y@sims.io", got[1].Instructor.Email)
	assert.Equal(t, 3, got[1].TotalEnrolled)
}

func TestRankInstructors_KeepsTopN(t *testing.T) {
	totals := make(map[string]int)
	var users []model.User
	for i := 0; i < 9; i++ {
		email := fmt.Sprintf("i%d@sims.io", i)
		totals[email] = i * 10
		users = append(users, model.User{Email: email, Role: model.RoleInstructor})
	}

	got := RankInstructors(totals, users, 6)
	require.Len(t, got, 6)
	assert.Equal(t, "i8@sims.io", got[0].Instructor.Email)
	assert.Equal(t, "i3@sims.io", got[5].Instructor.Email)
}

func TestViewService_AgainstStore(t *testing.T) {
	store := memory.New()
	store.PutUser(model.User{Email: "x@sims.io", Name: "X", Role: model.RoleInstructor})
	store.PutUser(model.User{Email: "y@sims.io", Name: "Y", Role: model.RoleInstructor})
	store.PutUser(model.User{Email: "s@sims.io", Name: "S", Role: model.RoleStudent})

	store.PutClass(model.Class{ClassName: "X1", InstructorEmail: "x@sims.io", AvailableSeats: 5, TotalEnrolled: 5, Status: model.ClassStatusApproved})
	store.PutClass(model.Class{ClassName: "Y1", InstructorEmail: "y@sims.io", AvailableSeats: 10, TotalEnrolled: 3, Status: model.ClassStatusApproved})
	store.PutClass(model.Class{ClassName: "X2", InstructorEmail: "x@sims.io", AvailableSeats: 2, TotalEnrolled: 8, Status: model.ClassStatusPending})

	svc := NewViewService(store, store, store, nil, zerolog.Nop())
	ctx := context.Background()

	popular, err := svc.PopularClasses(ctx)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "X2", popular[0].ClassName)
	assert.Equal(t, "X1", popular[1].ClassName)

	board, err := svc.InstructorLeaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "x@sims.io", board[0].Instructor.Email)
	assert.Equal(t, 13, board[0].TotalEnrolled)
	assert.Equal(t, 3, board[1].TotalEnrolled)

	stats, err := svc.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.AdminStats{
		ApprovedClasses: 2,
		PendingClasses:  1,
		Instructors:     2,
		TotalClasses:    3,
		TotalEnrolled:   0,
	}, stats)
}
