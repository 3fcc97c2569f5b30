package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/ybthummar/MathFlowAI/internal/domain"
)

func TestExportCSV(t *testing.T) {
	team := sampleTeam()
	repo := &stubTeamRepo{teams: []domain.Team{team}, total: 1}
	svc := New(repo, nil, nil, testLogger())

	var buf bytes.Buffer
	if err := svc.ExportCSV(context.Background(), &buf, domain.TeamFilter{Page: 3, Limit: 10}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if repo.lastFilter.Limit != 0 || repo.lastFilter.Page != 0 {
		t.Fatalf("export must be unpaginated, repo saw %+v", repo.lastFilter)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 row, got %d records", len(records))
	}

	header := records[0]
	if len(header) != 23 {
		t.Fatalf("expected 23 columns, got %d", len(header))
	}
	if header[0] != "Registration ID" || header[22] != "Registered At" {
		t.Fatalf("unexpected header shape: %v", header)
	}

	row := records[1]
	if len(row) != len(header) {
		t.Fatalf("row width %d does not match header width %d", len(row), len(header))
	}
	if row[0] != team.RegistrationID || row[1] != team.TeamName {
		t.Fatalf("unexpected row start: %v", row[:2])
	}
	if row[6] != "3" {
		t.Fatalf("expected member count 3, got %q", row[6])
	}
	if row[7] != "Asha Patel" {
		t.Fatalf("expected leader in first member slot, got %q", row[7])
	}
	// Slots 4 and 5 are unused for a 3-member team.
	if row[16] != "" || row[19] != "" {
		t.Fatalf("expected empty trailing member slots, got %q and %q", row[16], row[19])
	}
	if row[22] != "2026-02-10T09:30:00Z" {
		t.Fatalf("unexpected registered-at %q", row[22])
	}
}

func TestExportCSVQuotesSpecialCharacters(t *testing.T) {
	team := sampleTeam()
	team.TeamName = `Alpha, "Beta"`
	repo := &stubTeamRepo{teams: []domain.Team{team}, total: 1}
	svc := New(repo, nil, nil, testLogger())

	var buf bytes.Buffer
	if err := svc.ExportCSV(context.Background(), &buf, domain.TeamFilter{}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	raw := buf.String()
	if !strings.Contains(raw, `"Alpha, ""Beta"""`) {
		t.Fatalf("expected quoted field with doubled quotes, got:\n%s", raw)
	}

	records, err := csv.NewReader(strings.NewReader(raw)).ReadAll()
	if err != nil {
		t.Fatalf("quoted export is not valid CSV: %v", err)
	}
	if got := records[1][1]; got != team.TeamName {
		t.Fatalf("round-tripped team name %q, want %q", got, team.TeamName)
	}
}
