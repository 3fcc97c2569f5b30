package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ybthummar/MathFlowAI/internal/domain"
	"github.com/ybthummar/MathFlowAI/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.TeamRepository  = (*Repository)(nil)
	_ repository.AdminRepository = (*Repository)(nil)
)

const teamColumns = `id, registration_id, team_name, department, leader_email, leader_phone, status, agreed_to_rules, created_at, updated_at`

const memberColumns = `id, team_id, position, name, email, phone, roll_no, year, is_leader`

// CreateTeamWithMembers inserts the team record and its ordered members in a
// single transaction. Unique-index collisions on team_name, registration_id
// or members.email surface as repository.ErrDuplicate so callers can map
// them to the conflict path.
func (r *Repository) CreateTeamWithMembers(ctx context.Context, team *domain.Team) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertTeam = `INSERT INTO teams (id, registration_id, team_name, department, leader_email, leader_phone, status, agreed_to_rules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := tx.Exec(ctx, insertTeam,
		team.ID, team.RegistrationID, team.TeamName, team.Department,
		team.LeaderEmail, team.LeaderPhone, team.Status, team.AgreedToRules,
		team.CreatedAt, team.UpdatedAt,
	); err != nil {
		return translateUnique(err)
	}

	const insertMember = `INSERT INTO members (id, team_id, position, name, email, phone, roll_no, year, is_leader)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, m := range team.Members {
		if _, err := tx.Exec(ctx, insertMember,
			m.ID, m.TeamID, m.Position, m.Name, m.Email, m.Phone, m.RollNo, m.Year, m.IsLeader,
		); err != nil {
			return translateUnique(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit registration tx: %w", err)
	}
	return nil
}

// GetTeamByRegistrationID fetches a team by its public identifier.
func (r *Repository) GetTeamByRegistrationID(ctx context.Context, registrationID string) (*domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE registration_id = $1`
	return r.getTeam(ctx, query, registrationID)
}

// GetTeamByID fetches a team by its internal identifier.
func (r *Repository) GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return r.getTeam(ctx, query, teamID)
}

func (r *Repository) getTeam(ctx context.Context, query string, arg any) (*domain.Team, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	team, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	members, err := r.listMembers(ctx, []string{team.ID})
	if err != nil {
		return nil, err
	}
	team.Members = members[team.ID]
	return team, nil
}

// TeamNameExists checks for an exact, case-sensitive team-name match.
func (r *Repository) TeamNameExists(ctx context.Context, teamName string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM teams WHERE team_name = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, teamName).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// FilterRegisteredEmails returns the emails already registered to any team.
func (r *Repository) FilterRegisteredEmails(ctx context.Context, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	const query = `SELECT email FROM members WHERE email = ANY($1)`
	rows, err := r.pool.Query(ctx, query, emails)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taken := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		taken = append(taken, email)
	}
	return taken, rows.Err()
}

// ListTeams returns a filtered, paginated team page ordered by creation time
// descending, plus the unpaginated total for the same filter.
func (r *Repository) ListTeams(ctx context.Context, filter domain.TeamFilter) ([]domain.Team, int, error) {
	where, args := buildTeamFilter(filter)

	var total int
	countQuery := `SELECT COUNT(1) FROM teams` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + teamColumns + ` FROM teams` + where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset())
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	teams := make([]domain.Team, 0)
	ids := make([]string, 0)
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, 0, err
		}
		teams = append(teams, *team)
		ids = append(ids, team.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	members, err := r.listMembers(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range teams {
		teams[i].Members = members[teams[i].ID]
	}
	return teams, total, nil
}

// UpdateTeamStatus overwrites the lifecycle status. All transitions are
// legal, including self-loops; only status and updated_at change.
func (r *Repository) UpdateTeamStatus(ctx context.Context, teamID string, status domain.TeamStatus) (*domain.Team, error) {
	const query = `UPDATE teams SET status = $2, updated_at = $3 WHERE id = $1
		RETURNING ` + teamColumns
	row := r.pool.QueryRow(ctx, query, teamID, status, time.Now().UTC())
	team, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	members, err := r.listMembers(ctx, []string{team.ID})
	if err != nil {
		return nil, err
	}
	team.Members = members[team.ID]
	return team, nil
}

// TeamStats aggregates registration counts by status and department.
func (r *Repository) TeamStats(ctx context.Context) (*domain.TeamStats, error) {
	stats := &domain.TeamStats{
		ByStatus:     make(map[string]int),
		ByDepartment: make(map[string]int),
	}

	const byStatus = `SELECT status, COUNT(1) FROM teams GROUP BY status`
	rows, err := r.pool.Query(ctx, byStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const byDepartment = `SELECT department, COUNT(1) FROM teams GROUP BY department`
	depRows, err := r.pool.Query(ctx, byDepartment)
	if err != nil {
		return nil, err
	}
	defer depRows.Close()
	for depRows.Next() {
		var department string
		var count int
		if err := depRows.Scan(&department, &count); err != nil {
			return nil, err
		}
		stats.ByDepartment[department] = count
	}
	return stats, depRows.Err()
}

// CreateAdmin inserts a dashboard account.
func (r *Repository) CreateAdmin(ctx context.Context, admin *domain.Admin) error {
	const query = `INSERT INTO admins (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, admin.ID, admin.Email, admin.Name, admin.PasswordHash, admin.CreatedAt)
	return translateUnique(err)
}

// GetAdminByEmail fetches an admin account by email.
func (r *Repository) GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	const query = `SELECT id, email, name, password_hash, created_at FROM admins WHERE email = $1`
	return r.getAdmin(ctx, query, email)
}

// GetAdminByID fetches an admin account by identifier.
func (r *Repository) GetAdminByID(ctx context.Context, id string) (*domain.Admin, error) {
	const query = `SELECT id, email, name, password_hash, created_at FROM admins WHERE id = $1`
	return r.getAdmin(ctx, query, id)
}

func (r *Repository) getAdmin(ctx context.Context, query string, arg any) (*domain.Admin, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	var a domain.Admin
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// listMembers loads members for the given team IDs, leader first and then in
// submission order, keyed by team ID.
func (r *Repository) listMembers(ctx context.Context, teamIDs []string) (map[string][]domain.Member, error) {
	byTeam := make(map[string][]domain.Member, len(teamIDs))
	if len(teamIDs) == 0 {
		return byTeam, nil
	}
	query := `SELECT ` + memberColumns + ` FROM members
		WHERE team_id = ANY($1)
		ORDER BY is_leader DESC, position ASC`
	rows, err := r.pool.Query(ctx, query, teamIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Position, &m.Name, &m.Email, &m.Phone, &m.RollNo, &m.Year, &m.IsLeader); err != nil {
			return nil, err
		}
		byTeam[m.TeamID] = append(byTeam[m.TeamID], m)
	}
	return byTeam, rows.Err()
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var t domain.Team
	if err := row.Scan(&t.ID, &t.RegistrationID, &t.TeamName, &t.Department,
		&t.LeaderEmail, &t.LeaderPhone, &t.Status, &t.AgreedToRules,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// buildTeamFilter renders the WHERE clause for the closed filter option set.
func buildTeamFilter(filter domain.TeamFilter) (string, []any) {
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if filter.Department != "" {
		args = append(args, filter.Department)
		clauses = append(clauses, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(team_name ILIKE $%d OR registration_id ILIKE $%d OR leader_email ILIKE $%d)", n, n, n))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// translateUnique maps Postgres unique violations to repository.ErrDuplicate,
// preserving the constraint name for callers that report which field clashed.
func translateUnique(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
