package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/arenaops/ticket-pricing/internal/model"
)

// LegacyRepo reads and writes the flat, pre-hierarchy ticket markup and
// hospitality tables. These predate the scoped rule tables and are kept
// for backward compatibility: resolution consults them first, and
// ticket-level legacy rows unconditionally outrank hierarchical rules.
// Rows persist until a caller removes them explicitly; the resolution
// engine never mutates them.
type LegacyRepo struct {
	db *sql.DB
}

// NewLegacyRepo constructs a LegacyRepo bound to the given database.
func NewLegacyRepo(db *sql.DB) *LegacyRepo {
	return &LegacyRepo{db: db}
}

// TicketMarkup returns the legacy markup for one (event, ticket) pair,
// or nil when none exists. Absence is not an error on the read path.
func (r *LegacyRepo) TicketMarkup(ctx context.Context, eventID, ticketID string) (*model.LegacyTicketMarkup, error) {
	const q = `SELECT id, event_id, ticket_id, markup_type, markup_amount, created_at, updated_at
	           FROM legacy_ticket_markups WHERE event_id = ? AND ticket_id = ?`
	var m model.LegacyTicketMarkup
	err := r.db.QueryRowContext(ctx, q, eventID, ticketID).Scan(
		&m.ID, &m.EventID, &m.TicketID, &m.MarkupType, &m.MarkupAmount, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// TicketMarkups returns the legacy markups for any of the given tickets
// in one event, in a single query. Tickets without a legacy row are
// simply absent from the result.
func (r *LegacyRepo) TicketMarkups(ctx context.Context, eventID string, ticketIDs []string) ([]model.LegacyTicketMarkup, error) {
	if len(ticketIDs) == 0 {
		return []model.LegacyTicketMarkup{}, nil
	}
	placeholders := make([]string, 0, len(ticketIDs))
	args := make([]interface{}, 0, len(ticketIDs)+1)
	args = append(args, eventID)
	for _, id := range ticketIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT id, event_id, ticket_id, markup_type, markup_amount, created_at, updated_at
	      FROM legacy_ticket_markups
	      WHERE event_id = ? AND ticket_id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.LegacyTicketMarkup, 0)
	for rows.Next() {
		var m model.LegacyTicketMarkup
		if err := rows.Scan(&m.ID, &m.EventID, &m.TicketID, &m.MarkupType, &m.MarkupAmount, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LegacyAssignmentDetail is one legacy hospitality row joined with its
// active service metadata, ready for the resolution engine.
type LegacyAssignmentDetail struct {
	AssignmentID  uint64
	TicketID      string
	HospitalityID uint64
	Name          string
	Description   string
	SortOrder     uint32
}

// TicketAssignments returns the legacy hospitality rows for one
// (event, ticket) pair, joined to active services. Rows whose service
// was deactivated are excluded.
func (r *LegacyRepo) TicketAssignments(ctx context.Context, eventID, ticketID string) ([]LegacyAssignmentDetail, error) {
	const q = `SELECT l.id, l.ticket_id, l.hospitality_id, s.name, s.description, s.sort_order
	           FROM legacy_ticket_hospitality l
	           JOIN hospitality_services s ON s.id = l.hospitality_id AND s.active = 1
	           WHERE l.event_id = ? AND l.ticket_id = ?`
	rows, err := r.db.QueryContext(ctx, q, eventID, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLegacyAssignments(rows)
}

// TicketAssignmentsBatch returns the legacy hospitality rows for any of
// the given tickets in one event, in a single query.
func (r *LegacyRepo) TicketAssignmentsBatch(ctx context.Context, eventID string, ticketIDs []string) ([]LegacyAssignmentDetail, error) {
	if len(ticketIDs) == 0 {
		return []LegacyAssignmentDetail{}, nil
	}
	placeholders := make([]string, 0, len(ticketIDs))
	args := make([]interface{}, 0, len(ticketIDs)+1)
	args = append(args, eventID)
	for _, id := range ticketIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT l.id, l.ticket_id, l.hospitality_id, s.name, s.description, s.sort_order
	      FROM legacy_ticket_hospitality l
	      JOIN hospitality_services s ON s.id = l.hospitality_id AND s.active = 1
	      WHERE l.event_id = ? AND l.ticket_id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLegacyAssignments(rows)
}

func scanLegacyAssignments(rows *sql.Rows) ([]LegacyAssignmentDetail, error) {
	out := make([]LegacyAssignmentDetail, 0)
	for rows.Next() {
		var d LegacyAssignmentDetail
		if err := rows.Scan(&d.AssignmentID, &d.TicketID, &d.HospitalityID, &d.Name, &d.Description, &d.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertTicketMarkup writes a legacy markup through the legacy admin
// path. The hierarchical tables are untouched; this exists because
// older integrations still manage ticket prices through the flat table.
func (r *LegacyRepo) UpsertTicketMarkup(ctx context.Context, m *model.LegacyTicketMarkup) error {
	const q = `INSERT INTO legacy_ticket_markups (event_id, ticket_id, markup_type, markup_amount)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             markup_type = VALUES(markup_type),
	             markup_amount = VALUES(markup_amount),
	             id = LAST_INSERT_ID(id)`
	res, err := r.db.ExecContext(ctx, q, m.EventID, m.TicketID, m.MarkupType, m.MarkupAmount)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM legacy_ticket_markups WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, m.ID).Scan(&m.CreatedAt, &m.UpdatedAt)
}

// DeleteTicketMarkup removes the legacy markup for one (event, ticket)
// pair. ErrNotFound is returned when no row existed.
func (r *LegacyRepo) DeleteTicketMarkup(ctx context.Context, eventID, ticketID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM legacy_ticket_markups WHERE event_id = ? AND ticket_id = ?`, eventID, ticketID)
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

// UpsertTicketAssignment writes a legacy hospitality row. Re-inserting
// an existing (event, ticket, hospitality) triple is a no-op update.
func (r *LegacyRepo) UpsertTicketAssignment(ctx context.Context, a *model.LegacyTicketAssignment) error {
	const q = `INSERT INTO legacy_ticket_hospitality (event_id, ticket_id, hospitality_id)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
	res, err := r.db.ExecContext(ctx, q, a.EventID, a.TicketID, a.HospitalityID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM legacy_ticket_hospitality WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, a.ID).Scan(&a.CreatedAt, &a.UpdatedAt)
}

// DeleteTicketAssignment removes one legacy hospitality row.
func (r *LegacyRepo) DeleteTicketAssignment(ctx context.Context, eventID, ticketID string, hospitalityID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM legacy_ticket_hospitality WHERE event_id = ? AND ticket_id = ? AND hospitality_id = ?`,
		eventID, ticketID, hospitalityID)
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
