package model

// PopularClass is a class whose fill ratio passed the popularity threshold.
type PopularClass struct {
	Class
	FillRatio float64 `json:"fill_ratio"`
}

// InstructorRank is one entry of the instructor leaderboard.
type InstructorRank struct {
	Instructor    Profile `json:"instructor"`
	TotalEnrolled int     `json:"total_enrolled"`
}

// AdminStats holds the admin dashboard counters. Each count is taken
// independently; there is no cross-count snapshot.
type AdminStats struct {
	ApprovedClasses int `json:"approved_classes"`
	PendingClasses  int `json:"pending_classes"`
	Instructors     int `json:"instructors"`
	TotalClasses    int `json:"total_classes"`
	TotalEnrolled   int `json:"total_enrolled"`
}
