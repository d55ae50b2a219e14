package booking

import (
    "context"
    "time"

    "github.com/iliyamo/studio-booking/internal/model"
)

// ClassStore reads scheduled class occurrences.  The scheduling
// subsystem owns the rows; the engine never writes them.
type ClassStore interface {
    // GetClassInstance returns the class or ErrClassNotFound.
    GetClassInstance(ctx context.Context, id uint64) (*model.ClassInstance, error)
}

// BookingStore persists seat claims.  Implementations must map a
// duplicate-key violation on the active (class, member) uniqueness
// constraint to ErrConflict – that constraint is the backstop
// for the admission pre-check's race window.
type BookingStore interface {
    // GetBooking returns the booking or ErrBookingNotFound.
    GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
    // ActiveForMember returns the member's non-cancelled, non-no_show
    // booking for the class, or nil when none exists.
    ActiveForMember(ctx context.Context, classInstanceID, userID uint64) (*model.Booking, error)
    // CountSeated counts bookings in booked or confirmed status for the
    // class.  Capacity decisions are always made against this count.
    CountSeated(ctx context.Context, classInstanceID uint64) (int, error)
    // Insert stores a new booking and populates its ID.
    Insert(ctx context.Context, b *model.Booking) error
    // Cancel transitions the booking to cancelled at the given time and
    // clears its waitlist position.  It reports whether the row was
    // actually transitioned (false when already terminal).
    Cancel(ctx context.Context, id uint64, at time.Time) (bool, error)
    // MarkRefunded stamps refunded_at exactly once.  It returns false
    // when the booking was already refunded, which makes the credit
    // refund idempotent per booking across cancellation retries.
    MarkRefunded(ctx context.Context, id uint64, at time.Time) (bool, error)
    // Promote transitions a waitlisted booking to booked, clearing its
    // position and recording the credit source that paid for the seat.
    Promote(ctx context.Context, id uint64, check CreditCheck, at time.Time) error
    // ListForMember returns the member's bookings, newest first.
    ListForMember(ctx context.Context, userID uint64) ([]model.Booking, error)
}

// WaitlistStore maintains the per-class FIFO queue.  Positions are
// 1-based, contiguous, and append-only; compaction is the only operation
// allowed to renumber them.
type WaitlistStore interface {
    // Append adds the member to the back of the queue and returns the
    // created waitlisted booking with its assigned position.
    Append(ctx context.Context, classInstanceID, userID uint64) (*model.Booking, error)
    // Position returns the member's 1-based queue position, or 0 when
    // the member is not waitlisted for the class.
    Position(ctx context.Context, classInstanceID, userID uint64) (uint32, error)
    // ListOrdered returns waitlisted bookings in ascending position
    // order.  This is the admission order and must be exact.
    ListOrdered(ctx context.Context, classInstanceID uint64) ([]model.Booking, error)
    // Compact renumbers the remaining waitlisted bookings to 1..N,
    // preserving relative order.  Implementations must renumber in a
    // single atomic statement so two compactions cannot interleave into
    // duplicate or gapped positions.
    Compact(ctx context.Context, classInstanceID uint64) error
    // Count returns the number of waitlisted bookings for the class.
    Count(ctx context.Context, classInstanceID uint64) (int, error)
}

// CreditStore reads and mutates the three credit source tables.  All
// mutations are guarded single-row updates: a debit only succeeds while
// units remain, a credit only while a matching debit exists, so counters
// can never go negative or exceed their totals regardless of
// interleaving.  No other code path may write these counters.
type CreditStore interface {
    // UsableCompGrants returns grants with remaining classes that have
    // not expired at now, earliest-expiring first (grants without expiry
    // last).
    UsableCompGrants(ctx context.Context, userID, studioID uint64, now time.Time) ([]model.CompClassGrant, error)
    // ActiveSubscriptions returns all non-cancelled active subscriptions
    // for the member at the studio.  Callers treat more than one row as
    // an integrity violation.
    ActiveSubscriptions(ctx context.Context, userID, studioID uint64) ([]model.Subscription, error)
    // UsableClassPacks returns packs with remaining classes that have
    // not expired at now, oldest-created first.
    UsableClassPacks(ctx context.Context, userID, studioID uint64, now time.Time) ([]model.ClassPack, error)

    // DebitCompGrant consumes one class from the grant.  It returns
    // ErrStaleCredit when the grant has no classes left.
    DebitCompGrant(ctx context.Context, id uint64) error
    // CreditCompGrant returns one class to the grant.
    CreditCompGrant(ctx context.Context, id uint64) error
    // DebitClassPack consumes one class from the pack.  It returns
    // ErrStaleCredit when the pack has no classes left.
    DebitClassPack(ctx context.Context, id uint64) error
    // CreditClassPack returns one class to the pack.
    CreditClassPack(ctx context.Context, id uint64) error
    // DebitSubscriptionUsage increments classes_used_this_period while
    // below the plan limit; ErrStaleCredit otherwise.
    DebitSubscriptionUsage(ctx context.Context, id uint64) error
    // CreditSubscriptionUsage decrements classes_used_this_period while
    // above zero.
    CreditSubscriptionUsage(ctx context.Context, id uint64) error
}

// Notifier delivers best-effort member notifications.  Implementations
// must never block admission on delivery; the engine logs and swallows
// every error it returns.
type Notifier interface {
    Send(ctx context.Context, n Notification) error
}

// Notification is the outbound message handed to the notification
// collaborator.  Delivery is fire-and-forget.
type Notification struct {
    UserID          uint64 `json:"user_id"`
    StudioID        uint64 `json:"studio_id"`
    ClassInstanceID uint64 `json:"class_instance_id"`
    BookingID       uint64 `json:"booking_id"`
    Type            string `json:"type"`
    Title           string `json:"title"`
    Body            string `json:"body"`
}
