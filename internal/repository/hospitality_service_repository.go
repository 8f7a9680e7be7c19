package repository

import (
	"context"
	"database/sql"

	"github.com/arenaops/ticket-pricing/internal/model"
)

// HospitalityServiceRepo manages the hospitality service catalog
// (lounge access, parking, catering and similar add-ons). Services are
// referenced by assignments but have their own lifecycle: deactivating
// a service hides it from resolution everywhere without deleting the
// assignments pointing at it.
type HospitalityServiceRepo struct {
	db *sql.DB
}

// NewHospitalityServiceRepo constructs a repo bound to the given database.
func NewHospitalityServiceRepo(db *sql.DB) *HospitalityServiceRepo {
	return &HospitalityServiceRepo{db: db}
}

// Create inserts a new service and populates its ID and timestamps.
func (r *HospitalityServiceRepo) Create(ctx context.Context, s *model.HospitalityService) error {
	const q = `INSERT INTO hospitality_services (name, description, active, sort_order)
	           VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.Description, s.Active, s.SortOrder)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM hospitality_services WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// Update overwrites name, description, active flag and sort order of an
// existing service. ErrNotFound is returned when the id is unknown.
func (r *HospitalityServiceRepo) Update(ctx context.Context, s *model.HospitalityService) error {
	const q = `UPDATE hospitality_services
	           SET name = ?, description = ?, active = ?, sort_order = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.Description, s.Active, s.SortOrder, s.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "missing" from "no change": RowsAffected is 0 for
		// both under MySQL, so check existence explicitly.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM hospitality_services WHERE id = ?`, s.ID).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}
	}
	const sel = `SELECT created_at, updated_at FROM hospitality_services WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns a single service or ErrNotFound.
func (r *HospitalityServiceRepo) GetByID(ctx context.Context, id uint64) (*model.HospitalityService, error) {
	const q = `SELECT id, name, description, active, sort_order, created_at, updated_at
	           FROM hospitality_services WHERE id = ?`
	var s model.HospitalityService
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Name, &s.Description, &s.Active, &s.SortOrder, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns services ordered for display by (sort_order, name).
// When activeOnly is true, inactive services are omitted.
func (r *HospitalityServiceRepo) List(ctx context.Context, activeOnly bool) ([]model.HospitalityService, error) {
	q := `SELECT id, name, description, active, sort_order, created_at, updated_at
	      FROM hospitality_services`
	if activeOnly {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY sort_order, name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.HospitalityService, 0)
	for rows.Next() {
		var s model.HospitalityService
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Active, &s.SortOrder, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByID removes a service that no assignment references anymore.
// It returns ErrConflict while hierarchical or legacy assignments still
// point at the service, and ErrNotFound for an unknown id.
func (r *HospitalityServiceRepo) DeleteByID(ctx context.Context, id uint64) error {
	var refs int
	const cntQ = `SELECT
	    (SELECT COUNT(*) FROM hospitality_assignments WHERE hospitality_id = ?) +
	    (SELECT COUNT(*) FROM legacy_ticket_hospitality WHERE hospitality_id = ?)`
	if err := r.db.QueryRowContext(ctx, cntQ, id, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM hospitality_services WHERE id = ?`, id)
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
