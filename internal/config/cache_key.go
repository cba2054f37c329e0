package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PopularClassesKey holds the cached popularity view.
func (r *CacheKeyStruct) PopularClassesKey() string {
	return "view:popular_classes"
}

// InstructorLeaderboardKey holds the cached instructor leaderboard.
func (r *CacheKeyStruct) InstructorLeaderboardKey() string {
	return "view:instructor_leaderboard"
}

// SeatUpdatesChannel is the Pub/Sub channel every seat change is published on.
func (r *CacheKeyStruct) SeatUpdatesChannel() string {
	return "classes:seats"
}

// LoginRateKey counts login attempts for an IP within the current minute window.
func (r *CacheKeyStruct) LoginRateKey(ip string, window int64) string {
	return fmt.Sprintf("ratelimit:login:%s:%d", ip, window)
}

var CacheKey = NewCacheKeyStruct()
