package booking

import (
    "context"
    "fmt"

    "github.com/iliyamo/studio-booking/internal/model"
)

// Ledger applies exactly-one-unit mutations to whichever source the
// resolver selected.  Debits and credits are guarded single-row updates
// in the store, so a counter can never go negative or exceed its total
// even when requests interleave.  Unlimited subscriptions and the none
// source are no-ops in both directions.
type Ledger struct {
    store CreditStore
}

// NewLedger returns a Ledger writing through the given credit store.
func NewLedger(store CreditStore) *Ledger { return &Ledger{store: store} }

// Deduct consumes one unit from the source identified by check.  It is a
// no-op when check carries no credits.  ErrStaleCredit means the source
// ran dry between resolve and deduct; callers treat that the same as
// having no credits.
func (l *Ledger) Deduct(ctx context.Context, check CreditCheck) error {
    if !check.HasCredits || check.Source == model.SourceNone {
        return nil
    }
    switch check.Source {
    case model.SourceCompClass:
        return l.store.DebitCompGrant(ctx, check.SourceID)
    case model.SourceSubscriptionUnlimited:
        return nil
    case model.SourceSubscriptionLimited:
        return l.store.DebitSubscriptionUsage(ctx, check.SourceID)
    case model.SourceClassPack:
        return l.store.DebitClassPack(ctx, check.SourceID)
    case model.SourceNone:
        return nil
    }
    return fmt.Errorf("ledger: deduct from unknown credit source %q", check.Source)
}

// Refund restores one unit to the source identified by check.  The
// caller is responsible for invoking Refund at most once per booking
// (BookingStore.MarkRefunded is the guard); the store-level guard only
// prevents counters from leaving their valid range.
func (l *Ledger) Refund(ctx context.Context, check CreditCheck) error {
    if !check.HasCredits || check.Source == model.SourceNone {
        return nil
    }
    switch check.Source {
    case model.SourceCompClass:
        return l.store.CreditCompGrant(ctx, check.SourceID)
    case model.SourceSubscriptionUnlimited:
        return nil
    case model.SourceSubscriptionLimited:
        return l.store.CreditSubscriptionUsage(ctx, check.SourceID)
    case model.SourceClassPack:
        return l.store.CreditClassPack(ctx, check.SourceID)
    case model.SourceNone:
        return nil
    }
    return fmt.Errorf("ledger: refund to unknown credit source %q", check.Source)
}
