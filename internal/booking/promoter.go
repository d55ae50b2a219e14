package booking

import (
    "context"
    "fmt"
    "log"
)

// Promote runs one promotion pass for a class: it walks the waitlist in
// position order and seats the first member who still has a usable
// credit source.  Members without credits are skipped in place so they
// keep their turn for a later pass.  At most one member is promoted per
// invocation; a capacity increase that frees several seats needs one
// call per freed seat.
//
// The whole pass – including the compaction that closes the promoted
// member's gap – runs under the per-class lock so two cancellations on
// the same class cannot interleave their renumbering.
func (e *Engine) Promote(ctx context.Context, classInstanceID uint64) (*PromoteResult, error) {
    mu := e.locks.forClass(classInstanceID)
    mu.Lock()
    defer mu.Unlock()

    cls, err := e.classes.GetClassInstance(ctx, classInstanceID)
    if err != nil {
        return nil, err
    }
    if !cls.Bookable() {
        return &PromoteResult{Promoted: false}, nil
    }

    // A promotion must not overbook: verify a seat is actually free.
    seated, err := e.bookings.CountSeated(ctx, classInstanceID)
    if err != nil {
        return nil, err
    }
    if seated >= int(cls.MaxCapacity) {
        return &PromoteResult{Promoted: false}, nil
    }

    queue, err := e.waitlist.ListOrdered(ctx, classInstanceID)
    if err != nil {
        return nil, err
    }

    for _, cand := range queue {
        check, err := e.resolver.Resolve(ctx, cand.UserID, cls.StudioID)
        if err != nil {
            // A broken candidate never blocks the queue; try the next.
            log.Printf("booking: promote resolve for user=%d class=%d failed: %v",
                cand.UserID, classInstanceID, err)
            continue
        }
        if !check.HasCredits {
            continue
        }
        if err := e.ledger.Deduct(ctx, check); err != nil {
            log.Printf("booking: promote deduct for user=%d source=%s id=%d failed: %v",
                cand.UserID, check.Source, check.SourceID, err)
            continue
        }
        if err := e.bookings.Promote(ctx, cand.ID, check, e.now()); err != nil {
            // The seat was not granted, so hand the unit back.
            if rerr := e.ledger.Refund(ctx, check); rerr != nil {
                log.Printf("booking: promote compensation for booking=%d failed: %v", cand.ID, rerr)
            }
            return nil, err
        }
        if err := e.waitlist.Compact(ctx, classInstanceID); err != nil {
            return nil, err
        }
        e.notify(ctx, Notification{
            UserID:          cand.UserID,
            StudioID:        cls.StudioID,
            ClassInstanceID: classInstanceID,
            BookingID:       cand.ID,
            Type:            "waitlist.promoted",
            Title:           "You're in!",
            Body:            fmt.Sprintf("A seat opened up and you are booked for the class on %s.", cls.StartsAt.Format("2006-01-02 15:04")),
        })
        return &PromoteResult{Promoted: true, BookingID: cand.ID, UserID: cand.UserID}, nil
    }
    return &PromoteResult{Promoted: false}, nil
}
