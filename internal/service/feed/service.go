// Package feed publishes registration lifecycle events to connected admin
// dashboards, replacing poll-refresh with a live stream.
package feed

import (
	"encoding/json"
	"time"

	"log/slog"

	"github.com/ybthummar/MathFlowAI/internal/domain"
	"github.com/ybthummar/MathFlowAI/internal/ws"
)

// Topic is the single stream all admin dashboards subscribe to.
const Topic = "admin"

// Service marshals lifecycle events and fans them out through the hub.
type Service struct {
	hub    *ws.Hub
	logger *slog.Logger
}

// New constructs a Service.
func New(hub *ws.Hub, logger *slog.Logger) Service {
	return Service{hub: hub, logger: logger}
}

// Hub exposes the underlying hub for transport registration.
func (s Service) Hub() *ws.Hub {
	return s.hub
}

// TeamRegistered announces a freshly admitted team.
func (s Service) TeamRegistered(team domain.Team) {
	s.publish("team_registered", team)
}

// StatusChanged announces an admin status transition.
func (s Service) StatusChanged(team domain.Team) {
	s.publish("status_changed", team)
}

func (s Service) publish(event string, team domain.Team) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"event":          event,
		"registrationId": team.RegistrationID,
		"teamId":         team.ID,
		"teamName":       team.TeamName,
		"department":     team.Department,
		"status":         team.Status,
		"memberCount":    len(team.Members),
		"timestamp":      time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		s.logger.Error("marshal feed event", "event", event, "error", err)
		return
	}
	s.hub.Broadcast(Topic, payload)
}
