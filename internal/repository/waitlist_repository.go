package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/studio-booking/internal/booking"
    "github.com/iliyamo/studio-booking/internal/model"
)

// WaitlistRepo maintains the per-class FIFO queue.  Waitlisted entries
// are ordinary bookings rows with status 'waitlisted' and a 1-based
// position scoped to the class instance.  Position assignment and
// compaction are each a single SQL statement so two concurrent calls
// cannot interleave a read-then-write pass into duplicate or gapped
// positions.
type WaitlistRepo struct {
    db *sql.DB
}

// NewWaitlistRepo returns a new WaitlistRepo bound to the given database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

// Append adds the member to the back of the queue.  The position is
// computed inside the INSERT itself (MAX + 1 over current waitlisted
// rows), so no separate count round trip exists to race against.  A
// duplicate active booking maps to booking.ErrConflict.
func (r *WaitlistRepo) Append(ctx context.Context, classInstanceID, userID uint64) (*model.Booking, error) {
    const q = `INSERT INTO bookings (class_instance_id, user_id, status, credit_source, waitlist_position)
               SELECT ?, ?, 'waitlisted', 'none', COALESCE(MAX(waitlist_position), 0) + 1
               FROM bookings
               WHERE class_instance_id = ? AND status = 'waitlisted'`
    res, err := r.db.ExecContext(ctx, q, classInstanceID, userID, classInstanceID)
    if err != nil {
        if isDuplicateKey(err) {
            return nil, booking.ErrConflict
        }
        return nil, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    // Read the row back to pick up the assigned position and defaults.
    const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
    return scanBooking(r.db.QueryRowContext(ctx, sel, uint64(id)))
}

// Position returns the member's 1-based queue position for the class,
// or 0 when the member is not waitlisted.
func (r *WaitlistRepo) Position(ctx context.Context, classInstanceID, userID uint64) (uint32, error) {
    const q = `SELECT waitlist_position FROM bookings
               WHERE class_instance_id = ? AND user_id = ? AND status = 'waitlisted'`
    var pos sql.NullInt64
    err := r.db.QueryRowContext(ctx, q, classInstanceID, userID).Scan(&pos)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return 0, nil
        }
        return 0, err
    }
    if !pos.Valid {
        return 0, nil
    }
    return uint32(pos.Int64), nil
}

// ListOrdered returns waitlisted bookings for the class in ascending
// position order.  This is the admission order; ID breaks ties for rows
// that were appended inside the same statement.
func (r *WaitlistRepo) ListOrdered(ctx context.Context, classInstanceID uint64) ([]model.Booking, error) {
    const q = `SELECT ` + bookingColumns + `
               FROM bookings
               WHERE class_instance_id = ? AND status = 'waitlisted'
               ORDER BY waitlist_position, id`
    rows, err := r.db.QueryContext(ctx, q, classInstanceID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Compact renumbers the remaining waitlisted rows to 1..N, preserving
// relative order.  The renumbering is one atomic statement keyed on the
// current ordering, not two read-then-write passes.
func (r *WaitlistRepo) Compact(ctx context.Context, classInstanceID uint64) error {
    const q = `UPDATE bookings b
               JOIN (SELECT id, ROW_NUMBER() OVER (ORDER BY waitlist_position, id) AS rn
                     FROM bookings
                     WHERE class_instance_id = ? AND status = 'waitlisted') x ON x.id = b.id
               SET b.waitlist_position = x.rn`
    _, err := r.db.ExecContext(ctx, q, classInstanceID)
    return err
}

// Count returns the number of waitlisted bookings for the class.
func (r *WaitlistRepo) Count(ctx context.Context, classInstanceID uint64) (int, error) {
    const q = `SELECT COUNT(*) FROM bookings
               WHERE class_instance_id = ? AND status = 'waitlisted'`
    var n int
    if err := r.db.QueryRowContext(ctx, q, classInstanceID).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}
