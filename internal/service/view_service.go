package service

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/simsmaster/sims-backend/internal/config"
	"github.com/simsmaster/sims-backend/internal/model"
)

const (
	// popularityThreshold is the fill ratio a class must exceed, in percent.
	popularityThreshold = 50.0
	// leaderboardSize is how many instructors the leaderboard returns.
	leaderboardSize = 6
)

// ClassLister reads the whole catalog.
type ClassLister interface {
	ListAll(ctx context.Context) ([]model.Class, error)
}

// UserLookup resolves users by email.
type UserLookup interface {
	ListByEmails(ctx context.Context, emails []string) ([]model.User, error)
}

// StatsCounter computes the admin counters.
type StatsCounter interface {
	AdminCounts(ctx context.Context) (model.AdminStats, error)
}

// ViewService builds the derived read views over the catalog.
type ViewService struct {
	classes ClassLister
	users   UserLookup
	stats   StatsCounter
	cache   *ViewCache
	log     zerolog.Logger
}

// NewViewService creates a new ViewService. cache may be nil.
func NewViewService(classes ClassLister, users UserLookup, stats StatsCounter, cache *ViewCache, log zerolog.Logger) *ViewService {
	return &ViewService{
		classes: classes,
		users:   users,
		stats:   stats,
		cache:   cache,
		log:     log.With().Str("component", "view_service").Logger(),
	}
}

// PopularClasses returns classes whose fill ratio exceeds 50%, highest first.
func (s *ViewService) PopularClasses(ctx context.Context) ([]model.PopularClass, error) {
	key := config.CacheKey.PopularClassesKey()
	var cached []model.PopularClass
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	popular := RankPopularClasses(classes)

	s.cacheSet(ctx, key, popular)
	return popular, nil
}

// InstructorLeaderboard returns the top instructors by enrollments across
// their classes.
func (s *ViewService) InstructorLeaderboard(ctx context.Context) ([]model.InstructorRank, error) {
	key := config.CacheKey.InstructorLeaderboardKey()
	var cached []model.InstructorRank
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	totals := EnrollmentsByInstructor(classes)
	emails := make([]string, 0, len(totals))
	for email := range totals {
		emails = append(emails, email)
	}

	users, err := s.users.ListByEmails(ctx, emails)
	if err != nil {
		return nil, err
	}
	board := RankInstructors(totals, users, leaderboardSize)

	s.cacheSet(ctx, key, board)
	return board, nil
}

// AdminStats returns the dashboard counters. Never cached.
func (s *ViewService) AdminStats(ctx context.Context) (model.AdminStats, error) {
	return s.stats.AdminCounts(ctx)
}

func (s *ViewService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("View cache read failed")
		return false
	}
	return hit
}

func (s *ViewService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("View cache write failed")
	}
}

// RankPopularClasses computes total_enrolled / available_seats × 100 per
// class and keeps those strictly above the threshold. Classes with no seats
// left have an undefined ratio and are excluded.
func RankPopularClasses(classes []model.Class) []model.PopularClass {
	popular := make([]model.PopularClass, 0)
	for _, c := range classes {
		if c.AvailableSeats <= 0 {
			continue
		}
		ratio := float64(c.TotalEnrolled) / float64(c.AvailableSeats) * 100
		if ratio > popularityThreshold {
			popular = append(popular, model.PopularClass{Class: c, FillRatio: ratio})
		}
	}
	slices.SortStableFunc(popular, func(a, b model.PopularClass) int {
		if c := cmp.Compare(b.FillRatio, a.FillRatio); c != 0 {
			return c
		}
		return strings.Compare(a.ClassName, b.ClassName)
	})
	return popular
}

// EnrollmentsByInstructor sums total_enrolled per instructor_email.
func EnrollmentsByInstructor(classes []model.Class) map[string]int {
	totals := make(map[string]int)
	for _, c := range classes {
		totals[c.InstructorEmail] += c.TotalEnrolled
	}
	return totals
}

// RankInstructors joins per-email totals to users, keeps users holding the
// instructor role, and returns the top n by total, ties broken by email.
func RankInstructors(totals map[string]int, users []model.User, n int) []model.InstructorRank {
	ranks := make([]model.InstructorRank, 0)
	for _, u := range users {
		if !u.Role.Is(model.RoleInstructor) {
			continue
		}
		total, ok := totals[u.Email]
		if !ok {
			continue
		}
		ranks = append(ranks, model.InstructorRank{Instructor: u.ToProfile(), TotalEnrolled: total})
	}
	slices.SortFunc(ranks, func(a, b model.InstructorRank) int {
		if c := cmp.Compare(b.TotalEnrolled, a.TotalEnrolled); c != 0 {
			return c
		}
		return strings.Compare(a.Instructor.Email, b.Instructor.Email)
	})
	if len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks
}
