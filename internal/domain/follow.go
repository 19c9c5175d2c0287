package domain

import "time"

// Follow is a directed subscription of one user to another's activity.
type Follow struct {
	FollowerID  string
	FollowingID string
	CreatedAt   time.Time
}

// FollowEntry is one row of a followers or following list.
type FollowEntry struct {
	User       UserSummary
	FollowedAt time.Time
}
