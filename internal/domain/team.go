package domain

import "time"

// TeamStatus is the admin-controlled lifecycle label for a registration.
type TeamStatus string

// Registration lifecycle states. All transitions between them are legal.
const (
	StatusPending  TeamStatus = "PENDING"
	StatusApproved TeamStatus = "APPROVED"
	StatusRejected TeamStatus = "REJECTED"
	StatusWaitlist TeamStatus = "WAITLIST"
)

// Valid reports whether s is a known lifecycle state.
func (s TeamStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusWaitlist:
		return true
	}
	return false
}

// Team is the unit of registration: 3-5 members plus team-level metadata.
type Team struct {
	ID             string     `json:"id"`
	RegistrationID string     `json:"registrationId"`
	TeamName       string     `json:"teamName"`
	Department     string     `json:"department"`
	LeaderEmail    string     `json:"leaderEmail"`
	LeaderPhone    string     `json:"leaderPhone"`
	Status         TeamStatus `json:"status"`
	AgreedToRules  bool       `json:"agreedToRules"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	Members        []Member   `json:"members,omitempty"`
}

// Leader returns the team leader, falling back to the first member.
func (t Team) Leader() Member {
	for _, m := range t.Members {
		if m.IsLeader {
			return m
		}
	}
	if len(t.Members) > 0 {
		return t.Members[0]
	}
	return Member{}
}

// Member is a single participant. Position preserves submission order; the
// member at position 0 is the leader.
type Member struct {
	ID       string `json:"id"`
	TeamID   string `json:"teamId"`
	Position int    `json:"-"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	RollNo   string `json:"rollNo"`
	Year     string `json:"year"`
	IsLeader bool   `json:"isLeader"`
}

// TeamFilter is the closed set of query options for team listings.
type TeamFilter struct {
	Department string
	Status     TeamStatus
	Search     string
	Page       int
	Limit      int
}

// Offset derives the row offset for the configured page.
func (f TeamFilter) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.Limit
}

// TeamStats aggregates registration counts for the admin dashboard.
type TeamStats struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"byStatus"`
	ByDepartment map[string]int `json:"byDepartment"`
}
