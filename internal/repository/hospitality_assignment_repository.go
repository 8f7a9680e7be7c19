package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/arenaops/ticket-pricing/internal/model"
)

// AssignmentRepo provides access to the hierarchical
// hospitality_assignments table. Unlike markup rules, several
// assignments may share one scope as long as they reference different
// services; the unique key spans the scope tuple plus hospitality_id.
type AssignmentRepo struct {
	db *sql.DB
}

// NewAssignmentRepo constructs an AssignmentRepo given a DB handle.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

// AssignmentCandidate is the projection consumed by the hospitality
// resolution engine: the assignment's level and scope ticket id for
// precedence and batch attribution, joined with the active service's
// display metadata.
type AssignmentCandidate struct {
	AssignmentID  uint64
	Level         model.Level
	TicketID      string
	HospitalityID uint64
	Name          string
	Description   string
	SortOrder     uint32
}

// CandidatesForTicket returns every active assignment whose scope could
// cover the ancestry, joined to its active service. Assignments whose
// service has been deactivated are filtered out here, not in the engine.
func (r *AssignmentRepo) CandidatesForTicket(ctx context.Context, a model.TicketAncestry) ([]AssignmentCandidate, error) {
	const q = `SELECT a.id, a.level, a.ticket_id, a.hospitality_id, s.name, s.description, s.sort_order
	           FROM hospitality_assignments a
	           JOIN hospitality_services s ON s.id = a.hospitality_id AND s.active = 1
	           WHERE a.sport_type = ? AND a.active = 1 AND (
	               (a.level = 'TICKET' AND a.ticket_id = ?) OR
	               (a.level = 'EVENT' AND a.event_id = ?) OR
	               (a.level = 'TEAM' AND a.team_id = ?) OR
	               (a.level = 'TOURNAMENT' AND a.tournament_id = ?) OR
	               a.level = 'SPORT'
	           )`
	rows, err := r.db.QueryContext(ctx, q, a.SportType, a.TicketID, a.EventID, a.TeamID, a.TournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignmentCandidates(rows)
}

// CandidatesForEvent returns, in one query, every active assignment
// that could apply to any of the tickets in the event. The engine is
// responsible for splitting ticket-level candidates per ticket.
func (r *AssignmentRepo) CandidatesForEvent(ctx context.Context, a model.EventAncestry, ticketIDs []string) ([]AssignmentCandidate, error) {
	q, args := eventCandidateQuery(
		`SELECT a.id, a.level, a.ticket_id, a.hospitality_id, s.name, s.description, s.sort_order
		 FROM hospitality_assignments a
		 JOIN hospitality_services s ON s.id = a.hospitality_id AND s.active = 1
		 WHERE `, "a.", a, ticketIDs,
	)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignmentCandidates(rows)
}

func scanAssignmentCandidates(rows *sql.Rows) ([]AssignmentCandidate, error) {
	out := make([]AssignmentCandidate, 0)
	for rows.Next() {
		var c AssignmentCandidate
		var levelStr string
		if err := rows.Scan(&c.AssignmentID, &levelStr, &c.TicketID, &c.HospitalityID, &c.Name, &c.Description, &c.SortOrder); err != nil {
			return nil, err
		}
		lvl, err := model.ParseLevel(levelStr)
		if err != nil {
			return nil, err
		}
		c.Level = lvl
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert inserts an assignment or revives/updates the existing row for
// the same (scope, hospitality_id) pair. The ID is populated via
// LAST_INSERT_ID(id) and timestamps are read back afterwards.
func (r *AssignmentRepo) Upsert(ctx context.Context, as *model.HospitalityAssignment) error {
	const q = `INSERT INTO hospitality_assignments
	           (sport_type, tournament_id, team_id, event_id, ticket_id, level,
	            hospitality_id, active, created_by, updated_by)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             active = VALUES(active),
	             updated_by = VALUES(updated_by),
	             id = LAST_INSERT_ID(id)`
	res, err := r.db.ExecContext(ctx, q,
		as.Scope.SportType, as.Scope.TournamentID, as.Scope.TeamID,
		as.Scope.EventID, as.Scope.TicketID, as.Scope.Level.String(),
		as.HospitalityID, as.Active, as.CreatedBy, as.UpdatedBy,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	as.ID = uint64(id)
	const sel = `SELECT created_by, created_at, updated_at FROM hospitality_assignments WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, as.ID).Scan(&as.CreatedBy, &as.CreatedAt, &as.UpdatedAt)
}

// ReplaceAtScope atomically swaps the full assignment set at one exact
// scope: every assignment at the scope is deleted, then one active
// assignment per given service id is inserted. Used by the admin batch
// editor. The whole operation runs in a single transaction; a failing
// insert (for instance an unknown hospitality id hitting the foreign
// key) rolls back the delete too, leaving the prior set intact.
func (r *AssignmentRepo) ReplaceAtScope(ctx context.Context, scope model.ScopeKey, hospitalityIDs []uint64, actorID uint64) (deleted, inserted int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	const delQ = `DELETE FROM hospitality_assignments
	              WHERE sport_type = ? AND tournament_id = ? AND team_id = ? AND event_id = ? AND ticket_id = ?`
	res, err := tx.ExecContext(ctx, delQ,
		scope.SportType, scope.TournamentID, scope.TeamID, scope.EventID, scope.TicketID)
	if err != nil {
		_ = tx.Rollback()
		return 0, 0, err
	}
	deleted, err = res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, 0, err
	}
	if len(hospitalityIDs) > 0 {
		q := `INSERT INTO hospitality_assignments
		      (sport_type, tournament_id, team_id, event_id, ticket_id, level,
		       hospitality_id, active, created_by, updated_by) VALUES `
		args := make([]interface{}, 0, len(hospitalityIDs)*10)
		for i, hid := range hospitalityIDs {
			if i > 0 {
				q += ","
			}
			q += "(?, ?, ?, ?, ?, ?, ?, 1, ?, ?)"
			args = append(args,
				scope.SportType, scope.TournamentID, scope.TeamID, scope.EventID, scope.TicketID,
				scope.Level.String(), hid, actorID, actorID)
		}
		res, err = tx.ExecContext(ctx, q, args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, 0, err
		}
		inserted, err = res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return deleted, inserted, nil
}

// AssignmentFilter narrows List results. Zero values mean "no filter".
type AssignmentFilter struct {
	SportType     string
	Level         string
	HospitalityID uint64
	Active        *bool
}

// List returns assignments matching the filter, most recently updated
// first.
func (r *AssignmentRepo) List(ctx context.Context, f AssignmentFilter) ([]model.HospitalityAssignment, error) {
	where := []string{}
	args := []interface{}{}
	if f.SportType != "" {
		where = append(where, "sport_type = ?")
		args = append(args, f.SportType)
	}
	if f.Level != "" {
		where = append(where, "level = ?")
		args = append(args, f.Level)
	}
	if f.HospitalityID != 0 {
		where = append(where, "hospitality_id = ?")
		args = append(args, f.HospitalityID)
	}
	if f.Active != nil {
		where = append(where, "active = ?")
		args = append(args, *f.Active)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	q := `SELECT id, sport_type, tournament_id, team_id, event_id, ticket_id, level,
	             hospitality_id, active, created_by, updated_by, created_at, updated_at
	      FROM hospitality_assignments WHERE ` + cond + ` ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.HospitalityAssignment, 0)
	for rows.Next() {
		var as model.HospitalityAssignment
		var levelStr string
		if err := rows.Scan(
			&as.ID, &as.Scope.SportType, &as.Scope.TournamentID, &as.Scope.TeamID,
			&as.Scope.EventID, &as.Scope.TicketID, &levelStr,
			&as.HospitalityID, &as.Active, &as.CreatedBy, &as.UpdatedBy, &as.CreatedAt, &as.UpdatedAt,
		); err != nil {
			return nil, err
		}
		lvl, err := model.ParseLevel(levelStr)
		if err != nil {
			return nil, err
		}
		as.Scope.Level = lvl
		out = append(out, as)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByID removes one assignment, reporting ErrNotFound when the id
// matched nothing.
func (r *AssignmentRepo) DeleteByID(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM hospitality_assignments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
