package booking

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/studio-booking/internal/model"
)

// Engine orchestrates admission, cancellation and waitlist promotion.
// It never wraps the whole admission in a database transaction: each
// step is its own round trip, and correctness rests on the active
// booking uniqueness constraint plus the post-insert reconciliation
// count.  The trade-off is deliberate – no locks are held across store
// round trips, and a capacity race is healed one step later by demoting
// the losing request onto the waitlist with a full refund.
type Engine struct {
    classes  ClassStore
    bookings BookingStore
    waitlist WaitlistStore
    resolver *Resolver
    ledger   *Ledger
    notifier Notifier
    locks    classLocks
    now      func() time.Time
}

// NewEngine wires the engine to its stores.  notifier may be nil, in
// which case outbound notifications are skipped entirely.
func NewEngine(classes ClassStore, bookings BookingStore, waitlist WaitlistStore, credits CreditStore, notifier Notifier) *Engine {
    if classes == nil || bookings == nil || waitlist == nil || credits == nil {
        panic("nil store passed to NewEngine")
    }
    return &Engine{
        classes:  classes,
        bookings: bookings,
        waitlist: waitlist,
        resolver: NewResolver(credits),
        ledger:   NewLedger(credits),
        notifier: notifier,
        now:      func() time.Time { return time.Now().UTC() },
    }
}

// Book admits a member into a class or appends them to its waitlist.
//
// The order of steps is load class, reject duplicates, capacity
// pre-check, resolve credits, deduct, insert, reconcile.  A full class
// never consumes a credit: the pre-check routes straight to the
// waitlist before any resolution happens.  After the insert the seated
// count is taken again; if two requests slipped past the pre-check
// together, the later one cancels itself, refunds its credit and joins
// the waitlist instead of overbooking the class.
func (e *Engine) Book(ctx context.Context, classInstanceID, userID uint64) (*BookResult, error) {
    cls, err := e.classes.GetClassInstance(ctx, classInstanceID)
    if err != nil {
        return nil, err
    }
    if !cls.Bookable() {
        return nil, ErrNotBookable
    }

    existing, err := e.bookings.ActiveForMember(ctx, classInstanceID, userID)
    if err != nil {
        return nil, err
    }
    if existing != nil {
        return nil, ErrConflict
    }

    seated, err := e.bookings.CountSeated(ctx, classInstanceID)
    if err != nil {
        return nil, err
    }
    if seated >= int(cls.MaxCapacity) {
        return e.joinWaitlist(ctx, cls, userID)
    }

    check, err := e.resolver.Resolve(ctx, userID, cls.StudioID)
    if err != nil {
        return nil, err
    }
    if !check.HasCredits {
        return nil, ErrNoCredits
    }

    if err := e.ledger.Deduct(ctx, check); err != nil {
        if errors.Is(err, ErrStaleCredit) {
            return nil, ErrNoCredits
        }
        return nil, err
    }

    now := e.now()
    b := &model.Booking{
        ClassInstanceID: classInstanceID,
        UserID:          userID,
        Status:          model.BookingBooked,
        CreditSource:    check.Source,
        BookedAt:        &now,
    }
    if check.Source != model.SourceNone {
        sid := check.SourceID
        b.CreditSourceID = &sid
    }
    if err := e.bookings.Insert(ctx, b); err != nil {
        // The credit left the member's balance but no booking exists to
        // route a later refund, so compensate here before surfacing the
        // failure.
        if rerr := e.ledger.Refund(ctx, check); rerr != nil {
            log.Printf("booking: compensating refund failed for user=%d source=%s id=%d: %v",
                userID, check.Source, check.SourceID, rerr)
        }
        return nil, err
    }

    // Reconciliation: re-count after the insert.  If the class is now
    // over capacity, this request lost the race and is demoted.
    seated, err = e.bookings.CountSeated(ctx, classInstanceID)
    if err != nil {
        // The booking row exists and the credit is spent; the member
        // sees an error here, a retry sees ErrConflict, and cancel
        // refunds as usual.
        return nil, err
    }
    if seated > int(cls.MaxCapacity) {
        return e.demote(ctx, cls, b, check)
    }

    e.notify(ctx, Notification{
        UserID:          userID,
        StudioID:        cls.StudioID,
        ClassInstanceID: classInstanceID,
        BookingID:       b.ID,
        Type:            "booking.confirmed",
        Title:           "Booking confirmed",
        Body:            fmt.Sprintf("You are booked for the class on %s.", cls.StartsAt.Format(time.RFC3339)),
    })

    res := &BookResult{
        BookingID:    b.ID,
        Status:       model.BookingBooked,
        CreditSource: check.Source,
    }
    if check.HasRemaining {
        rem := check.RemainingAfter
        res.RemainingCredits = &rem
    }
    return res, nil
}

// joinWaitlist appends the member to the class queue.  No credit is
// touched; the credit is resolved and deducted only at promotion time.
func (e *Engine) joinWaitlist(ctx context.Context, cls *model.ClassInstance, userID uint64) (*BookResult, error) {
    wb, err := e.waitlist.Append(ctx, cls.ID, userID)
    if err != nil {
        return nil, err
    }
    e.notify(ctx, Notification{
        UserID:          userID,
        StudioID:        cls.StudioID,
        ClassInstanceID: cls.ID,
        BookingID:       wb.ID,
        Type:            "waitlist.joined",
        Title:           "Added to waitlist",
        Body:            fmt.Sprintf("The class is full. You are number %d on the waitlist.", *wb.WaitlistPosition),
    })
    return &BookResult{
        BookingID:        wb.ID,
        Status:           model.BookingWaitlisted,
        WaitlistPosition: wb.WaitlistPosition,
    }, nil
}

// demote resolves a lost capacity race: the just-created booking is
// cancelled, its credit refunded, and the member re-routed onto the back
// of the waitlist via a fresh append.  The caller sees "waitlisted"
// rather than an error.
func (e *Engine) demote(ctx context.Context, cls *model.ClassInstance, b *model.Booking, check CreditCheck) (*BookResult, error) {
    now := e.now()
    if _, err := e.bookings.Cancel(ctx, b.ID, now); err != nil {
        return nil, err
    }
    applied, err := e.bookings.MarkRefunded(ctx, b.ID, now)
    if err != nil {
        return nil, err
    }
    if applied {
        if err := e.ledger.Refund(ctx, check); err != nil {
            log.Printf("booking: demotion refund failed for booking=%d source=%s id=%d: %v",
                b.ID, check.Source, check.SourceID, err)
        }
    }
    return e.joinWaitlist(ctx, cls, b.UserID)
}

// Cancel transitions a member's booking to cancelled, refunds its credit
// exactly once, and runs one promotion pass when a seat was freed.
// Cancelling somebody else's booking is ErrForbidden; cancelling a
// booking that is already terminal is ErrConflict.
func (e *Engine) Cancel(ctx context.Context, bookingID, userID uint64) (*model.Booking, error) {
    b, err := e.bookings.GetBooking(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if b.UserID != userID {
        return nil, ErrForbidden
    }
    if b.Terminal() {
        return nil, ErrConflict
    }

    wasSeated := b.OccupiesSeat()
    wasWaitlisted := b.Status == model.BookingWaitlisted

    now := e.now()
    ok, err := e.bookings.Cancel(ctx, bookingID, now)
    if err != nil {
        return nil, err
    }
    if !ok {
        // Another request cancelled it in between.
        return nil, ErrConflict
    }
    b.Status = model.BookingCancelled
    b.CancelledAt = &now
    b.WaitlistPosition = nil

    if wasSeated && b.CreditSource != "" && b.CreditSource != model.SourceNone {
        applied, err := e.bookings.MarkRefunded(ctx, bookingID, now)
        if err != nil {
            return nil, err
        }
        if applied {
            check := CreditCheck{HasCredits: true, Source: b.CreditSource}
            if b.CreditSourceID != nil {
                check.SourceID = *b.CreditSourceID
            }
            if err := e.ledger.Refund(ctx, check); err != nil {
                log.Printf("booking: refund failed for booking=%d source=%s id=%d: %v",
                    bookingID, check.Source, check.SourceID, err)
            }
        }
    }

    if wasSeated {
        if _, err := e.Promote(ctx, b.ClassInstanceID); err != nil {
            // Promotion failure never surfaces to the cancelling member.
            log.Printf("booking: promotion after cancel of booking=%d failed: %v", bookingID, err)
        }
    } else if wasWaitlisted {
        mu := e.locks.forClass(b.ClassInstanceID)
        mu.Lock()
        err := e.waitlist.Compact(ctx, b.ClassInstanceID)
        mu.Unlock()
        if err != nil {
            return nil, err
        }
    }

    e.notify(ctx, Notification{
        UserID:          userID,
        ClassInstanceID: b.ClassInstanceID,
        BookingID:       bookingID,
        Type:            "booking.cancelled",
        Title:           "Booking cancelled",
        Body:            "Your booking has been cancelled.",
    })
    return b, nil
}

// Availability derives the current seat picture for a class by counting
// booking rows.
func (e *Engine) Availability(ctx context.Context, classInstanceID uint64) (*Availability, error) {
    cls, err := e.classes.GetClassInstance(ctx, classInstanceID)
    if err != nil {
        return nil, err
    }
    seated, err := e.bookings.CountSeated(ctx, classInstanceID)
    if err != nil {
        return nil, err
    }
    waiting, err := e.waitlist.Count(ctx, classInstanceID)
    if err != nil {
        return nil, err
    }
    left := int(cls.MaxCapacity) - seated
    if left < 0 {
        left = 0
    }
    return &Availability{
        ClassInstanceID: classInstanceID,
        MaxCapacity:     cls.MaxCapacity,
        Booked:          seated,
        SeatsLeft:       left,
        WaitlistLength:  waiting,
    }, nil
}

// WaitlistPosition returns a member's 1-based position on a class
// waitlist, or 0 when they are not waitlisted.
func (e *Engine) WaitlistPosition(ctx context.Context, classInstanceID, userID uint64) (uint32, error) {
    return e.waitlist.Position(ctx, classInstanceID, userID)
}

// ListBookings returns a member's bookings, newest first.
func (e *Engine) ListBookings(ctx context.Context, userID uint64) ([]model.Booking, error) {
    return e.bookings.ListForMember(ctx, userID)
}

// Waitlist returns the queue for a class in admission order.
func (e *Engine) Waitlist(ctx context.Context, classInstanceID uint64) ([]model.Booking, error) {
    return e.waitlist.ListOrdered(ctx, classInstanceID)
}

// notify delivers a best-effort notification.  Failures are logged and
// swallowed; delivery must never fail the booking flow.
func (e *Engine) notify(ctx context.Context, n Notification) {
    if e.notifier == nil {
        return
    }
    if err := e.notifier.Send(ctx, n); err != nil {
        log.Printf("booking: notification %s for user=%d failed: %v", n.Type, n.UserID, err)
    }
}
