package admin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ybthummar/MathFlowAI/internal/domain"
	"github.com/ybthummar/MathFlowAI/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	qrImageSize      = 300
)

// ErrInvalidStatus rejects unknown lifecycle targets.
var ErrInvalidStatus = errors.New("invalid status")

// ErrMissingTeamID rejects requests without a team identifier.
var ErrMissingTeamID = errors.New("team id is required")

// Notifier receives fire-and-forget status-change jobs.
type Notifier interface {
	StatusChanged(team domain.Team)
}

// FeedPublisher pushes status events to live dashboard subscribers.
type FeedPublisher interface {
	StatusChanged(team domain.Team)
}

// Pagination describes the returned page.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListResult couples a team page with dashboard aggregates.
type ListResult struct {
	Teams      []domain.Team    `json:"teams"`
	Pagination Pagination       `json:"pagination"`
	Stats      domain.TeamStats `json:"stats"`
}

// Service handles the admin workflow: review listings, status transitions,
// exports and badges.
type Service struct {
	teams  repository.TeamRepository
	notify Notifier
	feed   FeedPublisher
	logger *slog.Logger
}

// New constructs a Service.
func New(teams repository.TeamRepository, notify Notifier, feed FeedPublisher, logger *slog.Logger) Service {
	return Service{teams: teams, notify: notify, feed: feed, logger: logger}
}

// List returns a filtered team page plus aggregate counts.
func (s Service) List(ctx context.Context, filter domain.TeamFilter) (*ListResult, error) {
	filter = normalizeFilter(filter)

	teams, total, err := s.teams.ListTeams(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats, err := s.teams.TeamStats(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if filter.Limit > 0 {
		totalPages = (total + filter.Limit - 1) / filter.Limit
	}
	return &ListResult{
		Teams: teams,
		Pagination: Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
		Stats: *stats,
	}, nil
}

// UpdateStatus overwrites a team's lifecycle status. Every transition is
// legal, including self-loops; non-PENDING targets trigger a notification.
func (s Service) UpdateStatus(ctx context.Context, teamID string, status domain.TeamStatus) (*domain.Team, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, ErrMissingTeamID
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	team, err := s.teams.UpdateTeamStatus(ctx, teamID, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("team status updated",
		"team_id", team.ID,
		"registration_id", team.RegistrationID,
		"status", team.Status,
	)

	if s.notify != nil {
		s.notify.StatusChanged(*team)
	}
	if s.feed != nil {
		s.feed.StatusChanged(*team)
	}
	return team, nil
}

// Badge describes the QR payload returned for event-day check-in badges.
type Badge struct {
	QRCode string       `json:"qrCode"`
	Team   BadgeSummary `json:"team"`
}

// BadgeSummary is the team detail echoed alongside the badge image.
type BadgeSummary struct {
	RegistrationID string `json:"registrationId"`
	TeamName       string `json:"teamName"`
	Department     string `json:"department"`
}

// BadgeQR renders a data-URL-encoded QR image for a team badge.
func (s Service) BadgeQR(ctx context.Context, teamID string) (*Badge, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, ErrMissingTeamID
	}
	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]any{
		"registrationId": team.RegistrationID,
		"teamName":       team.TeamName,
		"department":     team.Department,
		"memberCount":    len(team.Members),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal badge payload: %w", err)
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("encode badge qr: %w", err)
	}

	return &Badge{
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		Team: BadgeSummary{
			RegistrationID: team.RegistrationID,
			TeamName:       team.TeamName,
			Department:     team.Department,
		},
	}, nil
}

// normalizeFilter clamps pagination and treats the UI's "all" selector as an
// empty filter.
func normalizeFilter(filter domain.TeamFilter) domain.TeamFilter {
	if strings.EqualFold(filter.Department, "all") {
		filter.Department = ""
	}
	if strings.EqualFold(string(filter.Status), "all") {
		filter.Status = ""
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	return filter
}
