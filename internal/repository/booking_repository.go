package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/studio-booking/internal/booking"
    "github.com/iliyamo/studio-booking/internal/model"
)

// BookingRepo provides persistence for bookings.  Rows are never
// deleted; every lifecycle change is a status transition so the audit
// and refund history survives cancellation.  All timestamps are stored
// in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, class_instance_id, user_id, status, waitlist_position,
    credit_source, credit_source_id, booked_at, confirmed_at, cancelled_at, refunded_at,
    created_at, updated_at`

// scanBooking reads one bookings row from the given scanner.
func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
    var b model.Booking
    var pos sql.NullInt64
    var source sql.NullString
    var sourceID sql.NullInt64
    var bookedAt, confirmedAt, cancelledAt, refundedAt sql.NullTime
    err := row.Scan(
        &b.ID, &b.ClassInstanceID, &b.UserID, &b.Status, &pos,
        &source, &sourceID, &bookedAt, &confirmedAt, &cancelledAt, &refundedAt,
        &b.CreatedAt, &b.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if pos.Valid {
        p := uint32(pos.Int64)
        b.WaitlistPosition = &p
    }
    if source.Valid {
        b.CreditSource = model.CreditSource(source.String)
    } else {
        b.CreditSource = model.SourceNone
    }
    if sourceID.Valid {
        sid := uint64(sourceID.Int64)
        b.CreditSourceID = &sid
    }
    if bookedAt.Valid {
        t := bookedAt.Time
        b.BookedAt = &t
    }
    if confirmedAt.Valid {
        t := confirmedAt.Time
        b.ConfirmedAt = &t
    }
    if cancelledAt.Valid {
        t := cancelledAt.Time
        b.CancelledAt = &t
    }
    if refundedAt.Valid {
        t := refundedAt.Time
        b.RefundedAt = &t
    }
    return &b, nil
}

// GetBooking retrieves a booking by ID.  It returns
// booking.ErrBookingNotFound when no row exists.
func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
    b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, booking.ErrBookingNotFound
        }
        return nil, err
    }
    return b, nil
}

// ActiveForMember returns the member's non-cancelled, non-no_show
// booking for a class, or nil when none exists.  At most one such row
// can exist thanks to the active uniqueness index.
func (r *BookingRepo) ActiveForMember(ctx context.Context, classInstanceID, userID uint64) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + `
               FROM bookings
               WHERE class_instance_id = ? AND user_id = ?
                 AND status IN ('booked', 'confirmed', 'waitlisted')`
    b, err := scanBooking(r.db.QueryRowContext(ctx, q, classInstanceID, userID))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, nil
        }
        return nil, err
    }
    return b, nil
}

// CountSeated counts bookings that occupy a seat (booked or confirmed).
// Capacity is always derived from this count, never cached on the class
// row.
func (r *BookingRepo) CountSeated(ctx context.Context, classInstanceID uint64) (int, error) {
    const q = `SELECT COUNT(*) FROM bookings
               WHERE class_instance_id = ? AND status IN ('booked', 'confirmed')`
    var n int
    if err := r.db.QueryRowContext(ctx, q, classInstanceID).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// Insert stores a new booking and populates its generated ID.  A
// duplicate-key violation on the active uniqueness index is mapped to
// booking.ErrConflict.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
    const q = `INSERT INTO bookings
               (class_instance_id, user_id, status, waitlist_position,
                credit_source, credit_source_id, booked_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    var pos any
    if b.WaitlistPosition != nil {
        pos = *b.WaitlistPosition
    }
    var sourceID any
    if b.CreditSourceID != nil {
        sourceID = *b.CreditSourceID
    }
    var bookedAt any
    if b.BookedAt != nil {
        bookedAt = b.BookedAt.UTC()
    }
    res, err := r.db.ExecContext(ctx, q,
        b.ClassInstanceID, b.UserID, string(b.Status), pos,
        string(b.CreditSource), sourceID, bookedAt,
    )
    if err != nil {
        if isDuplicateKey(err) {
            return booking.ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// Cancel transitions a booking to cancelled and clears its waitlist
// position.  The status guard makes the transition race-safe: only one
// of two concurrent cancellations observes an affected row.
func (r *BookingRepo) Cancel(ctx context.Context, id uint64, at time.Time) (bool, error) {
    const q = `UPDATE bookings
               SET status = 'cancelled', waitlist_position = NULL, cancelled_at = ?
               WHERE id = ? AND status IN ('booked', 'confirmed', 'waitlisted')`
    res, err := r.db.ExecContext(ctx, q, at.UTC(), id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// MarkRefunded stamps refunded_at exactly once.  Refunds are keyed to
// the booking, so duplicate cancellation retries see false here and
// never double-credit the member.
func (r *BookingRepo) MarkRefunded(ctx context.Context, id uint64, at time.Time) (bool, error) {
    const q = `UPDATE bookings SET refunded_at = ? WHERE id = ? AND refunded_at IS NULL`
    res, err := r.db.ExecContext(ctx, q, at.UTC(), id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// Promote transitions a waitlisted booking to booked and records which
// credit source paid for the seat.  The status guard keeps a concurrent
// cancellation of the same row from being overwritten.
func (r *BookingRepo) Promote(ctx context.Context, id uint64, check booking.CreditCheck, at time.Time) error {
    const q = `UPDATE bookings
               SET status = 'booked', waitlist_position = NULL,
                   credit_source = ?, credit_source_id = ?, booked_at = ?
               WHERE id = ? AND status = 'waitlisted'`
    var sourceID any
    if check.Source != model.SourceNone {
        sourceID = check.SourceID
    }
    res, err := r.db.ExecContext(ctx, q, string(check.Source), sourceID, at.UTC(), id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return booking.ErrBookingNotFound
    }
    return nil
}

// ListForMember returns all of a member's bookings, newest first.
func (r *BookingRepo) ListForMember(ctx context.Context, userID uint64) ([]model.Booking, error) {
    const q = `SELECT ` + bookingColumns + `
               FROM bookings
               WHERE user_id = ?
               ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
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
