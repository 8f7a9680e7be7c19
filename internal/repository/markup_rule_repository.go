package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/arenaops/ticket-pricing/internal/model"
)

// MarkupRuleRepo encapsulates database access to the hierarchical
// markup_rules table. At most one rule exists per exact scope tuple;
// the unique key over (sport_type, tournament_id, team_id, event_id,
// ticket_id) makes Upsert overwrite-on-conflict. Unset scope fields are
// stored as empty strings, never NULL, so the unique key holds.
type MarkupRuleRepo struct {
	db *sql.DB
}

// NewMarkupRuleRepo constructs a MarkupRuleRepo given a DB handle.
func NewMarkupRuleRepo(db *sql.DB) *MarkupRuleRepo {
	return &MarkupRuleRepo{db: db}
}

// MarkupCandidate is the slim projection of a rule used by the
// resolution engine. TicketID carries the rule's scope ticket id so
// batch resolution can attribute ticket-level rules to the right
// ticket; it is empty for every other level.
type MarkupCandidate struct {
	RuleID       uint64
	Level        model.Level
	TicketID     string
	MarkupType   string
	MarkupAmount float64
}

// candidateCond matches every rule whose scope could cover a ticket in
// the given ancestry: ticket-exact, event-exact, team-exact,
// tournament-exact or sport-wide. Matching is on the level's
// determining field only; ancestor columns stored for audit do not
// participate. Passing an empty string for an unknown tournament or
// team is safe: a rule at those levels always has the field non-empty,
// so the clause simply never matches.
const candidateCond = `sport_type = ? AND active = 1 AND (
		(level = 'TICKET' AND ticket_id = ?) OR
		(level = 'EVENT' AND event_id = ?) OR
		(level = 'TEAM' AND team_id = ?) OR
		(level = 'TOURNAMENT' AND tournament_id = ?) OR
		level = 'SPORT'
	)`

// CandidatesForTicket returns every active rule that could apply to the
// given ticket ancestry, one per level at most. The caller picks the
// most specific.
func (r *MarkupRuleRepo) CandidatesForTicket(ctx context.Context, a model.TicketAncestry) ([]MarkupCandidate, error) {
	const q = `SELECT id, level, ticket_id, markup_type, markup_amount
	           FROM markup_rules
	           WHERE ` + candidateCond
	rows, err := r.db.QueryContext(ctx, q, a.SportType, a.TicketID, a.EventID, a.TeamID, a.TournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMarkupCandidates(rows)
}

// CandidatesForEvent returns, in a single query, every active rule that
// could apply to any of the given tickets in one event: ticket-level
// rules for the whole id set plus the shared event/team/tournament/sport
// candidates. Called once per batch resolution regardless of how many
// tickets are requested.
func (r *MarkupRuleRepo) CandidatesForEvent(ctx context.Context, a model.EventAncestry, ticketIDs []string) ([]MarkupCandidate, error) {
	q, args := eventCandidateQuery(
		`SELECT id, level, ticket_id, markup_type, markup_amount FROM markup_rules WHERE `,
		"", a, ticketIDs,
	)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMarkupCandidates(rows)
}

// eventCandidateQuery assembles the shared WHERE block for batch
// candidate queries over either rule table. prefix is the SELECT..WHERE
// head, col prefixes column names (e.g. "a.") for joined queries.
func eventCandidateQuery(prefix, col string, a model.EventAncestry, ticketIDs []string) (string, []interface{}) {
	placeholders := make([]string, 0, len(ticketIDs))
	args := []interface{}{a.SportType}
	for _, id := range ticketIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	ticketClause := "0"
	if len(ticketIDs) > 0 {
		ticketClause = col + "ticket_id IN (" + strings.Join(placeholders, ",") + ")"
	}
	q := prefix + col + `sport_type = ? AND ` + col + `active = 1 AND (
		(` + col + `level = 'TICKET' AND ` + ticketClause + `) OR
		(` + col + `level = 'EVENT' AND ` + col + `event_id = ?) OR
		(` + col + `level = 'TEAM' AND ` + col + `team_id = ?) OR
		(` + col + `level = 'TOURNAMENT' AND ` + col + `tournament_id = ?) OR
		` + col + `level = 'SPORT'
	)`
	args = append(args, a.EventID, a.TeamID, a.TournamentID)
	return q, args
}

func scanMarkupCandidates(rows *sql.Rows) ([]MarkupCandidate, error) {
	out := make([]MarkupCandidate, 0)
	for rows.Next() {
		var c MarkupCandidate
		var levelStr string
		if err := rows.Scan(&c.RuleID, &levelStr, &c.TicketID, &c.MarkupType, &c.MarkupAmount); err != nil {
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

// Upsert inserts a rule or, when the exact scope is already occupied,
// overwrites the existing rule in place. The rule's ID is populated
// either way via the LAST_INSERT_ID(id) trick, and the row is read back
// so timestamps and defaults are filled in.
func (r *MarkupRuleRepo) Upsert(ctx context.Context, rule *model.MarkupRule) error {
	return r.upsert(ctx, r.db, rule)
}

// BatchUpsert applies several upserts atomically. Either every rule is
// written or none is; any failure rolls the transaction back.
func (r *MarkupRuleRepo) BatchUpsert(ctx context.Context, rules []*model.MarkupRule) error {
	if len(rules) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, rule := range rules {
		if err := r.upsert(ctx, tx, rule); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// execer abstracts *sql.DB and *sql.Tx so upsert can run standalone or
// inside a batch transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *MarkupRuleRepo) upsert(ctx context.Context, ex execer, rule *model.MarkupRule) error {
	names, err := json.Marshal(rule.DisplayNames)
	if err != nil {
		return err
	}
	const q = `INSERT INTO markup_rules
	           (sport_type, tournament_id, team_id, event_id, ticket_id, level,
	            markup_type, markup_amount, display_names, active, created_by, updated_by)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             markup_type = VALUES(markup_type),
	             markup_amount = VALUES(markup_amount),
	             display_names = VALUES(display_names),
	             active = VALUES(active),
	             updated_by = VALUES(updated_by),
	             id = LAST_INSERT_ID(id)`
	res, err := ex.ExecContext(ctx, q,
		rule.Scope.SportType, rule.Scope.TournamentID, rule.Scope.TeamID,
		rule.Scope.EventID, rule.Scope.TicketID, rule.Scope.Level.String(),
		rule.MarkupType, rule.MarkupAmount, string(names), rule.Active,
		rule.CreatedBy, rule.UpdatedBy,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rule.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT created_by, created_at, updated_at FROM markup_rules WHERE id = ?`
	return ex.QueryRowContext(ctx, sel, rule.ID).Scan(&rule.CreatedBy, &rule.CreatedAt, &rule.UpdatedAt)
}

// RuleFilter narrows List results. Zero values mean "no filter".
type RuleFilter struct {
	SportType string
	Level     string
	Active    *bool
}

// List returns rules matching the filter, most recently updated first.
func (r *MarkupRuleRepo) List(ctx context.Context, f RuleFilter) ([]model.MarkupRule, error) {
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
	if f.Active != nil {
		where = append(where, "active = ?")
		args = append(args, *f.Active)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	q := `SELECT id, sport_type, tournament_id, team_id, event_id, ticket_id, level,
	             markup_type, markup_amount, display_names, active,
	             created_by, updated_by, created_at, updated_at
	      FROM markup_rules WHERE ` + cond + ` ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.MarkupRule, 0)
	for rows.Next() {
		rule, err := scanMarkupRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a single rule or ErrNotFound.
func (r *MarkupRuleRepo) GetByID(ctx context.Context, id uint64) (*model.MarkupRule, error) {
	const q = `SELECT id, sport_type, tournament_id, team_id, event_id, ticket_id, level,
	                  markup_type, markup_amount, display_names, active,
	                  created_by, updated_by, created_at, updated_at
	           FROM markup_rules WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	rule, err := scanMarkupRuleRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rule, err
}

// DeleteByID removes a rule. ErrNotFound is returned when no row was
// deleted so handlers can answer 404 instead of silently succeeding.
func (r *MarkupRuleRepo) DeleteByID(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM markup_rules WHERE id = ?`, id)
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

type ruleScanner interface {
	Scan(dest ...interface{}) error
}

func scanMarkupRule(s ruleScanner) (*model.MarkupRule, error) {
	var rule model.MarkupRule
	var levelStr, namesJSON string
	if err := s.Scan(
		&rule.ID, &rule.Scope.SportType, &rule.Scope.TournamentID, &rule.Scope.TeamID,
		&rule.Scope.EventID, &rule.Scope.TicketID, &levelStr,
		&rule.MarkupType, &rule.MarkupAmount, &namesJSON, &rule.Active,
		&rule.CreatedBy, &rule.UpdatedBy, &rule.CreatedAt, &rule.UpdatedAt,
	); err != nil {
		return nil, err
	}
	lvl, err := model.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	rule.Scope.Level = lvl
	if namesJSON != "" {
		if err := json.Unmarshal([]byte(namesJSON), &rule.DisplayNames); err != nil {
			return nil, err
		}
	}
	return &rule, nil
}

func scanMarkupRuleRow(row *sql.Row) (*model.MarkupRule, error) {
	return scanMarkupRule(row)
}
