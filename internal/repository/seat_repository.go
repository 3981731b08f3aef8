package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/entradalibre/ticketing/internal/model"
)

// SeatRepo is the seat inventory store: the single source of truth for
// seat status per (event, session).  Seats are materialized lazily — a
// row exists only once a buyer has reserved the seat — so callers must
// treat a missing row as available.  The unique key on
// (event_id, session_id, label) enforced by the database is the
// concurrency primitive: it holds across service replicas, not just
// goroutines in one process.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// WithTx runs fn within a single transaction.  Nested calls join the
// outer transaction.
func (r *SeatRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

// StatusByLabel returns the status of each requested label that has a
// row.  Labels absent from the result have never been reserved and are
// implicitly available.
func (r *SeatRepo) StatusByLabel(ctx context.Context, eventID, sessionID uint64, labels []string) (map[string]string, error) {
	statuses := make(map[string]string, len(labels))
	if len(labels) == 0 {
		return statuses, nil
	}
	query := `SELECT label, status FROM seats WHERE event_id = ? AND session_id = ? AND label IN (` +
		placeholders(len(labels)) + `)`
	args := make([]interface{}, 0, len(labels)+2)
	args = append(args, eventID, sessionID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var label, status string
		if err := rows.Scan(&label, &status); err != nil {
			return nil, err
		}
		statuses[label] = status
	}
	return statuses, rows.Err()
}

// AllForSession lists every materialized seat of a session, ordered by
// label for deterministic output.  Used by the availability endpoint.
func (r *SeatRepo) AllForSession(ctx context.Context, eventID, sessionID uint64) ([]model.Seat, error) {
	const query = `SELECT id, event_id, session_id, label, seat_row, number, status, user_id, ticket_category_id, created_at, updated_at
	               FROM seats WHERE event_id = ? AND session_id = ? ORDER BY label`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, eventID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.SessionID, &s.Label, &s.Row, &s.Number,
			&s.Status, &s.UserID, &s.TicketCategoryID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// Reserve atomically creates RESERVED rows for every requested seat in a
// single multi-row INSERT.  When any label already has a row, the unique
// key rejects the whole statement and the conflicting labels are
// re-queried inside the same transaction so the buyer learns exactly
// which seats were lost.  Partial reservation is never observable.
// The returned seats carry their generated ids.
func (r *SeatRepo) Reserve(ctx context.Context, seats []model.Seat) ([]model.Seat, error) {
	if len(seats) == 0 {
		return nil, nil
	}
	query := `INSERT INTO seats (event_id, session_id, label, seat_row, number, status, user_id, ticket_category_id) VALUES `
	args := make([]interface{}, 0, len(seats)*8)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args, s.EventID, s.SessionID, s.Label, s.Row, s.Number, model.SeatReserved, s.UserID, s.TicketCategoryID)
	}
	if _, err := q(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		if isDuplicateEntry(err) {
			labels := make([]string, 0, len(seats))
			for _, s := range seats {
				labels = append(labels, s.Label)
			}
			taken, qerr := r.StatusByLabel(ctx, seats[0].EventID, seats[0].SessionID, labels)
			if qerr != nil {
				return nil, qerr
			}
			conflict := &SeatsUnavailableError{}
			for _, l := range labels {
				if _, ok := taken[l]; ok {
					conflict.Labels = append(conflict.Labels, l)
				}
			}
			return nil, conflict
		}
		return nil, err
	}
	return r.bySessionLabels(ctx, seats)
}

// bySessionLabels reads back the rows just inserted to populate their
// generated ids.
func (r *SeatRepo) bySessionLabels(ctx context.Context, seats []model.Seat) ([]model.Seat, error) {
	labels := make([]string, 0, len(seats))
	for _, s := range seats {
		labels = append(labels, s.Label)
	}
	query := `SELECT id, event_id, session_id, label, seat_row, number, status, user_id, ticket_category_id
	          FROM seats WHERE event_id = ? AND session_id = ? AND label IN (` + placeholders(len(labels)) + `)`
	args := make([]interface{}, 0, len(labels)+2)
	args = append(args, seats[0].EventID, seats[0].SessionID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.SessionID, &s.Label, &s.Row, &s.Number,
			&s.Status, &s.UserID, &s.TicketCategoryID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkSold transitions the given seats to SOLD.  Calling it on seats
// that are already SOLD is a no-op, which makes webhook redelivery safe.
func (r *SeatRepo) MarkSold(ctx context.Context, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = ? WHERE id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, model.SeatSold)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	_, err := q(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// Release deletes RESERVED rows, returning their labels to the implicit
// available state.  SOLD rows are never touched and releasing an already
// absent seat is a no-op.
func (r *SeatRepo) Release(ctx context.Context, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `DELETE FROM seats WHERE status = ? AND id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, model.SeatReserved)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	_, err := q(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// LabelsByID maps seat ids to their labels.  Missing ids are simply
// absent from the result.
func (r *SeatRepo) LabelsByID(ctx context.Context, seatIDs []uint64) (map[uint64]string, error) {
	labels := make(map[uint64]string, len(seatIDs))
	if len(seatIDs) == 0 {
		return labels, nil
	}
	query := `SELECT id, label FROM seats WHERE id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs))
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    uint64
			label string
		)
		if err := rows.Scan(&id, &label); err != nil {
			return nil, err
		}
		labels[id] = label
	}
	return labels, rows.Err()
}

// CountSold returns the number of SOLD seats across all sessions of an
// event.  Used for the sold-out capacity check.
func (r *SeatRepo) CountSold(ctx context.Context, eventID uint64) (int, error) {
	var n int
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seats WHERE event_id = ? AND status = ?`,
		eventID, model.SeatSold).Scan(&n)
	return n, err
}

// placeholders builds a "?, ?, ?" list of the given length.
func placeholders(n int) string {
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("?")
	}
	return b.String()
}
