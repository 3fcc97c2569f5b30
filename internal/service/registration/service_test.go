package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/ybthummar/MathFlowAI/internal/domain"
	"github.com/ybthummar/MathFlowAI/internal/repository"
	"github.com/ybthummar/MathFlowAI/pkg/regid"
)

type stubTeamRepo struct {
	nameExists  bool
	nameErr     error
	duplicates  []string
	emailsErr   error
	createErr   error
	created     *domain.Team
	fetched     *domain.Team
	fetchErr    error
	emailsAsked []string
}

func (s *stubTeamRepo) CreateTeamWithMembers(_ context.Context, team *domain.Team) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = team
	return nil
}

func (s *stubTeamRepo) GetTeamByRegistrationID(_ context.Context, _ string) (*domain.Team, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.fetched, nil
}

func (s *stubTeamRepo) GetTeamByID(_ context.Context, _ string) (*domain.Team, error) {
	return s.fetched, s.fetchErr
}

func (s *stubTeamRepo) TeamNameExists(_ context.Context, _ string) (bool, error) {
	return s.nameExists, s.nameErr
}

func (s *stubTeamRepo) FilterRegisteredEmails(_ context.Context, emails []string) ([]string, error) {
	s.emailsAsked = emails
	return s.duplicates, s.emailsErr
}

func (s *stubTeamRepo) ListTeams(_ context.Context, _ domain.TeamFilter) ([]domain.Team, int, error) {
	return nil, 0, nil
}

func (s *stubTeamRepo) UpdateTeamStatus(_ context.Context, _ string, _ domain.TeamStatus) (*domain.Team, error) {
	return nil, repository.ErrNotFound
}

func (s *stubTeamRepo) TeamStats(_ context.Context) (*domain.TeamStats, error) {
	return &domain.TeamStats{}, nil
}

type recordingNotifier struct {
	confirmed []domain.Team
}

func (n *recordingNotifier) RegistrationConfirmed(team domain.Team) {
	n.confirmed = append(n.confirmed, team)
}

type recordingFeed struct {
	registered []domain.Team
}

func (f *recordingFeed) TeamRegistered(team domain.Team) {
	f.registered = append(f.registered, team)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func validInput() RegistrationInput {
	return RegistrationInput{
		TeamName:    "Prime Movers",
		Department:  "CSPIT - IT",
		LeaderEmail: "asha@example.com",
		LeaderPhone: "9876543210",
		Members: []MemberInput{
			{Name: "Asha Patel", Email: "asha@example.com", Phone: "9876543210", RollNo: "22IT001", Year: "1st Year"},
			{Name: "Ravi Shah", Email: "ravi@example.com", Phone: "8765432109", RollNo: "22IT002", Year: "2nd Year"},
			{Name: "Meera Joshi", Email: "meera@example.com", Phone: "7654321098", RollNo: "22IT003", Year: "1st Year"},
		},
		AgreedToRules: true,
	}
}

func TestRegisterSuccess(t *testing.T) {
	repo := &stubTeamRepo{}
	notify := &recordingNotifier{}
	feed := &recordingFeed{}
	svc := New(repo, notify, feed, regid.New("MATH"), testLogger())

	team, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if team.ID == "" {
		t.Fatal("expected team ID to be assigned")
	}
	if !svc.ValidRegistrationID(team.RegistrationID) {
		t.Fatalf("generated registration ID %q has unexpected shape", team.RegistrationID)
	}
	if team.Status != domain.StatusPending {
		t.Fatalf("expected PENDING status, got %s", team.Status)
	}
	if len(team.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(team.Members))
	}
	if !team.Members[0].IsLeader {
		t.Fatal("expected first submitted member to be leader")
	}
	for i, m := range team.Members {
		if m.Position != i {
			t.Fatalf("member %d has position %d", i, m.Position)
		}
		if i > 0 && m.IsLeader {
			t.Fatalf("member %d unexpectedly marked leader", i)
		}
	}
	if repo.created == nil {
		t.Fatal("expected team to be persisted")
	}
	if len(repo.emailsAsked) != 3 {
		t.Fatalf("expected all member emails checked, got %v", repo.emailsAsked)
	}
	if len(notify.confirmed) != 1 {
		t.Fatalf("expected 1 confirmation job, got %d", len(notify.confirmed))
	}
	if len(feed.registered) != 1 {
		t.Fatalf("expected 1 feed event, got %d", len(feed.registered))
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*RegistrationInput)
		wantKey string
	}{
		{
			name:    "team name too short",
			mutate:  func(in *RegistrationInput) { in.TeamName = "ab" },
			wantKey: "teamName",
		},
		{
			name:    "team name bad characters",
			mutate:  func(in *RegistrationInput) { in.TeamName = "Prime!Movers" },
			wantKey: "teamName",
		},
		{
			name:    "unknown department",
			mutate:  func(in *RegistrationInput) { in.Department = "Hogwarts" },
			wantKey: "department",
		},
		{
			name:    "leader phone not Indian mobile",
			mutate:  func(in *RegistrationInput) { in.LeaderPhone = "1234567890" },
			wantKey: "leaderPhone",
		},
		{
			name:    "member email invalid",
			mutate:  func(in *RegistrationInput) { in.Members[1].Email = "not-an-email" },
			wantKey: "members[1].email",
		},
		{
			name:    "member year ineligible",
			mutate:  func(in *RegistrationInput) { in.Members[2].Year = "3rd Year" },
			wantKey: "members[2].year",
		},
		{
			name:    "too few members",
			mutate:  func(in *RegistrationInput) { in.Members = in.Members[:2] },
			wantKey: "members",
		},
		{
			name: "too many members",
			mutate: func(in *RegistrationInput) {
				for i := 0; i < 3; i++ {
					extra := in.Members[0]
					extra.Email = fmt.Sprintf("extra%d@example.com", i)
					in.Members = append(in.Members, extra)
				}
			},
			wantKey: "members",
		},
		{
			name:    "rules not accepted",
			mutate:  func(in *RegistrationInput) { in.AgreedToRules = false },
			wantKey: "agreedToRules",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubTeamRepo{}
			svc := New(repo, nil, nil, regid.New("MATH"), testLogger())

			input := validInput()
			tc.mutate(&input)

			_, err := svc.Register(context.Background(), input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tc.wantKey]; !ok {
				t.Fatalf("expected field key %q in %v", tc.wantKey, verr.Fields)
			}
			if repo.created != nil {
				t.Fatal("rejected payload must not be persisted")
			}
		})
	}
}

func TestRegisterTeamNameTaken(t *testing.T) {
	repo := &stubTeamRepo{nameExists: true}
	svc := New(repo, nil, nil, regid.New("MATH"), testLogger())

	_, err := svc.Register(context.Background(), validInput())
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if cerr.Message != msgTeamNameTaken {
		t.Fatalf("unexpected conflict message %q", cerr.Message)
	}
	if len(cerr.Duplicates) != 0 {
		t.Fatalf("name conflict should not list emails, got %v", cerr.Duplicates)
	}
}

func TestRegisterMembersAlreadyRegistered(t *testing.T) {
	repo := &stubTeamRepo{duplicates: []string{"ravi@example.com"}}
	svc := New(repo, nil, nil, regid.New("MATH"), testLogger())

	_, err := svc.Register(context.Background(), validInput())
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if cerr.Message != msgMembersClaimed {
		t.Fatalf("unexpected conflict message %q", cerr.Message)
	}
	if len(cerr.Duplicates) != 1 || cerr.Duplicates[0] != "ravi@example.com" {
		t.Fatalf("expected offending email listed, got %v", cerr.Duplicates)
	}
}

func TestRegisterRaceLandsOnConflict(t *testing.T) {
	cases := []struct {
		constraint string
		want       string
	}{
		{"teams_team_name_key", msgTeamNameTaken},
		{"members_email_key", msgMembersClaimed},
	}
	for _, tc := range cases {
		repo := &stubTeamRepo{
			createErr: fmt.Errorf("%w: %s", repository.ErrDuplicate, tc.constraint),
		}
		svc := New(repo, nil, nil, regid.New("MATH"), testLogger())

		_, err := svc.Register(context.Background(), validInput())
		var cerr *ConflictError
		if !errors.As(err, &cerr) {
			t.Fatalf("constraint %s: expected ConflictError, got %v", tc.constraint, err)
		}
		if cerr.Message != tc.want {
			t.Fatalf("constraint %s: got message %q, want %q", tc.constraint, cerr.Message, tc.want)
		}
	}
}

func TestRegisterRepositoryErrorPassesThrough(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &stubTeamRepo{nameErr: boom}
	svc := New(repo, nil, nil, regid.New("MATH"), testLogger())

	_, err := svc.Register(context.Background(), validInput())
	if !errors.Is(err, boom) {
		t.Fatalf("expected underlying error, got %v", err)
	}
	var cerr *ConflictError
	if errors.As(err, &cerr) {
		t.Fatal("infrastructure failure must not present as conflict")
	}
}
