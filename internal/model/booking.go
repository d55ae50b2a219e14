package model

import "time"

// BookingStatus enumerates the states a booking moves through.  The only
// forward promotion edge is waitlisted -> booked; cancelled and no_show
// are terminal.  A booking demoted after losing a capacity race re-enters
// the waitlist at the back via a fresh waitlist append, never at its old
// position.
type BookingStatus string

const (
    BookingBooked     BookingStatus = "booked"     // seat claimed, credit deducted
    BookingConfirmed  BookingStatus = "confirmed"  // attendance confirmed by staff
    BookingWaitlisted BookingStatus = "waitlisted" // queued for a seat
    BookingCancelled  BookingStatus = "cancelled"  // terminal, retained for audit
    BookingNoShow     BookingStatus = "no_show"    // terminal, member did not attend
)

// Booking records a member's claim on a seat in one class instance.
// Rows are never physically deleted – status transitions only – so the
// refund/audit history stays intact.  At most one non-cancelled,
// non-no_show booking may exist per (class instance, member) pair; the
// database enforces this with a unique index over a generated column
// that is NULL for terminal statuses.
//
// Fields:
//  ID               – primary key identifier.
//  ClassInstanceID  – class being booked.
//  UserID           – member who owns the booking.
//  Status           – current state of the booking.
//  WaitlistPosition – 1-based queue position, set only while waitlisted.
//  CreditSource     – which credit source paid for the seat.
//  CreditSourceID   – back-reference to the consumed grant/sub/pack row.
//  BookedAt         – when the seat was granted.
//  ConfirmedAt      – when attendance was confirmed.
//  CancelledAt      – when the booking was cancelled.
//  RefundedAt       – when the credit refund was applied; guards the
//                     refund so duplicate cancellation retries cannot
//                     double-credit the member.
type Booking struct {
    ID               uint64        // bookings.id
    ClassInstanceID  uint64        // bookings.class_instance_id
    UserID           uint64        // bookings.user_id
    Status           BookingStatus // bookings.status
    WaitlistPosition *uint32       // bookings.waitlist_position (nullable)
    CreditSource     CreditSource  // bookings.credit_source
    CreditSourceID   *uint64       // bookings.credit_source_id (nullable)
    BookedAt         *time.Time    // bookings.booked_at (nullable)
    ConfirmedAt      *time.Time    // bookings.confirmed_at (nullable)
    CancelledAt      *time.Time    // bookings.cancelled_at (nullable)
    RefundedAt       *time.Time    // bookings.refunded_at (nullable)
    CreatedAt        time.Time     // bookings.created_at
    UpdatedAt        time.Time     // bookings.updated_at
}

// OccupiesSeat reports whether the booking counts against class capacity.
// Waitlisted entries hold no seat; cancelled and no_show never do.
func (b *Booking) OccupiesSeat() bool {
    return b.Status == BookingBooked || b.Status == BookingConfirmed
}

// Terminal reports whether the booking has reached a final state.
func (b *Booking) Terminal() bool {
    return b.Status == BookingCancelled || b.Status == BookingNoShow
}
