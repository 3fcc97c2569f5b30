package repository

import (
	"context"

	"github.com/ybthummar/MathFlowAI/internal/domain"
)

// TeamRepository persists registrations.
type TeamRepository interface {
	// CreateTeamWithMembers inserts the team and its ordered member rows in
	// one transaction. A uniqueness-constraint collision yields ErrDuplicate.
	CreateTeamWithMembers(ctx context.Context, team *domain.Team) error
	GetTeamByRegistrationID(ctx context.Context, registrationID string) (*domain.Team, error)
	GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error)
	// TeamNameExists checks the team-name uniqueness invariant, case-sensitive
	// as stored.
	TeamNameExists(ctx context.Context, teamName string) (bool, error)
	// FilterRegisteredEmails returns the subset of emails that already belong
	// to a member of any team.
	FilterRegisteredEmails(ctx context.Context, emails []string) ([]string, error)
	// ListTeams returns a filtered page of teams plus the unpaginated total.
	ListTeams(ctx context.Context, filter domain.TeamFilter) ([]domain.Team, int, error)
	UpdateTeamStatus(ctx context.Context, teamID string, status domain.TeamStatus) (*domain.Team, error)
	TeamStats(ctx context.Context) (*domain.TeamStats, error)
}

// AdminRepository persists dashboard accounts.
type AdminRepository interface {
	CreateAdmin(ctx context.Context, admin *domain.Admin) error
	GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error)
	GetAdminByID(ctx context.Context, id string) (*domain.Admin, error)
}
