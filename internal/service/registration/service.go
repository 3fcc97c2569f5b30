package registration

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ybthummar/MathFlowAI/internal/domain"
	"github.com/ybthummar/MathFlowAI/internal/repository"
	"github.com/ybthummar/MathFlowAI/pkg/regid"
)

// Notifier receives fire-and-forget confirmation jobs once a registration is
// durably persisted. Implementations must not block.
type Notifier interface {
	RegistrationConfirmed(team domain.Team)
}

// FeedPublisher pushes admission events to live dashboard subscribers.
type FeedPublisher interface {
	TeamRegistered(team domain.Team)
}

// ValidationError carries field-keyed rule violations for a rejected payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }

// ConflictError reports a team-name or member-email uniqueness collision.
type ConflictError struct {
	Message    string
	Duplicates []string
}

func (e *ConflictError) Error() string { return e.Message }

const (
	msgTeamNameTaken  = "Team name already exists. Please choose a different name."
	msgMembersClaimed = "One or more team members are already registered with another team."
)

// Service runs the admission pipeline: validation, uniqueness checks, ID
// generation and the transactional write, then hands off side effects.
type Service struct {
	teams    repository.TeamRepository
	notify   Notifier
	feed     FeedPublisher
	gen      regid.Generator
	validate *validator.Validate
	logger   *slog.Logger
}

// New constructs a Service.
func New(teams repository.TeamRepository, notify Notifier, feed FeedPublisher, gen regid.Generator, logger *slog.Logger) Service {
	return Service{
		teams:    teams,
		notify:   notify,
		feed:     feed,
		gen:      gen,
		validate: newValidate(),
		logger:   logger,
	}
}

// Register admits a new team. The uniqueness pre-check gives callers the
// offending email list; the storage-level unique indexes close the remaining
// race window, so a duplicate insert also lands on the conflict path.
func (s Service) Register(ctx context.Context, input RegistrationInput) (*domain.Team, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, &ValidationError{Fields: fieldErrors(err)}
	}

	exists, err := s.teams.TeamNameExists(ctx, input.TeamName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ConflictError{Message: msgTeamNameTaken}
	}

	duplicates, err := s.teams.FilterRegisteredEmails(ctx, input.MemberEmails())
	if err != nil {
		return nil, err
	}
	if len(duplicates) > 0 {
		return nil, &ConflictError{Message: msgMembersClaimed, Duplicates: duplicates}
	}

	now := time.Now().UTC()
	team := &domain.Team{
		ID:             uuid.NewString(),
		RegistrationID: s.gen.Next(),
		TeamName:       input.TeamName,
		Department:     input.Department,
		LeaderEmail:    input.LeaderEmail,
		LeaderPhone:    input.LeaderPhone,
		Status:         domain.StatusPending,
		AgreedToRules:  input.AgreedToRules,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i, m := range input.Members {
		team.Members = append(team.Members, domain.Member{
			ID:       uuid.NewString(),
			TeamID:   team.ID,
			Position: i,
			Name:     m.Name,
			Email:    m.Email,
			Phone:    m.Phone,
			RollNo:   m.RollNo,
			Year:     m.Year,
			IsLeader: i == 0,
		})
	}

	if err := s.teams.CreateTeamWithMembers(ctx, team); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictFromDuplicate(err)
		}
		return nil, err
	}

	s.logger.Info("team registered",
		"team_id", team.ID,
		"registration_id", team.RegistrationID,
		"department", team.Department,
		"members", len(team.Members),
	)

	// Side effects are best-effort: registration success is defined by the
	// write above, never by notification delivery.
	if s.notify != nil {
		s.notify.RegistrationConfirmed(*team)
	}
	if s.feed != nil {
		s.feed.TeamRegistered(*team)
	}
	return team, nil
}

// GetByRegistrationID returns the public team summary, members leader-first.
func (s Service) GetByRegistrationID(ctx context.Context, registrationID string) (*domain.Team, error) {
	return s.teams.GetTeamByRegistrationID(ctx, strings.TrimSpace(registrationID))
}

// ValidRegistrationID reports whether id has the generated identifier shape.
func (s Service) ValidRegistrationID(id string) bool {
	return s.gen.Matches(id)
}

func conflictFromDuplicate(err error) *ConflictError {
	if strings.Contains(err.Error(), "team_name") {
		return &ConflictError{Message: msgTeamNameTaken}
	}
	return &ConflictError{Message: msgMembersClaimed}
}
