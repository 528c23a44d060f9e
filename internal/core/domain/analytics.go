package domain

import "time"

// Activity item types.
const (
	ActivityPeek   = "peek"
	ActivitySignup = "signup"
)

// ActivityItem is one entry of the merged admin activity feed.
type ActivityItem struct {
	Type         string    `json:"type"`
	Email        string    `json:"email"`
	Timestamp    time.Time `json:"timestamp"`
	SessionTitle string    `json:"sessionTitle,omitempty"`
}

// Stats is the admin dashboard read model.
type Stats struct {
	TotalUsers     int64          `json:"totalUsers"`
	TotalPeeks     int64          `json:"totalPeeks"`
	RecentSignups  int64          `json:"recentSignups"`
	PeeksToday     int64          `json:"peeksToday"`
	RecentActivity []ActivityItem `json:"recentActivity"`
}
