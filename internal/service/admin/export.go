package admin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ybthummar/MathFlowAI/internal/domain"
)

const exportMemberSlots = 5

var exportHeader = buildExportHeader()

func buildExportHeader() []string {
	header := []string{
		"Registration ID",
		"Team Name",
		"Department",
		"Status",
		"Leader Email",
		"Leader Phone",
		"Member Count",
	}
	for i := 1; i <= exportMemberSlots; i++ {
		header = append(header,
			fmt.Sprintf("Member %d Name", i),
			fmt.Sprintf("Member %d Email", i),
			fmt.Sprintf("Member %d Roll No", i),
		)
	}
	return append(header, "Registered At")
}

// ExportCSV streams every team matching the filter as CSV, leader first in
// the member columns. Fields containing commas, quotes or newlines are
// quoted with internal quotes doubled, per RFC 4180.
func (s Service) ExportCSV(ctx context.Context, w io.Writer, filter domain.TeamFilter) error {
	filter = normalizeFilter(filter)
	filter.Page = 0
	filter.Limit = 0 // unpaginated

	teams, _, err := s.teams.ListTeams(ctx, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, team := range teams {
		if err := cw.Write(exportRow(team)); err != nil {
			return fmt.Errorf("write csv row for %s: %w", team.RegistrationID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(team domain.Team) []string {
	row := []string{
		team.RegistrationID,
		team.TeamName,
		team.Department,
		string(team.Status),
		team.LeaderEmail,
		team.LeaderPhone,
		strconv.Itoa(len(team.Members)),
	}
	for i := 0; i < exportMemberSlots; i++ {
		if i < len(team.Members) {
			m := team.Members[i]
			row = append(row, m.Name, m.Email, m.RollNo)
		} else {
			row = append(row, "", "", "")
		}
	}
	return append(row, team.CreatedAt.UTC().Format(time.RFC3339))
}
