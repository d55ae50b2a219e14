package booking

import (
    "context"
    "time"

    "github.com/iliyamo/studio-booking/internal/model"
)

// creditStrategy resolves one class of credit source.  Strategies are
// evaluated in a fixed priority order and the first non-nil CreditCheck
// wins.  Adding a credit source means inserting a strategy into the
// resolver's list, not extending a branch chain.
type creditStrategy interface {
    // tryResolve returns a CreditCheck when this source can cover one
    // visit, nil when it cannot, or an error when the underlying state
    // is unreadable or violates an integrity assumption.
    tryResolve(ctx context.Context, store CreditStore, userID, studioID uint64, now time.Time) (*CreditCheck, error)
}

// Resolver determines which payment source currently covers one class
// visit for a member at a studio.  Resolution is a pure read; the ledger
// performs the actual deduction afterwards.
type Resolver struct {
    store      CreditStore
    strategies []creditStrategy
    now        func() time.Time
}

// NewResolver builds a resolver with the standard priority order:
// comp-class grants, unlimited subscription, limited subscription,
// class packs.  Both subscription sources live in one strategy since a
// member holds at most one active subscription.
func NewResolver(store CreditStore) *Resolver {
    return &Resolver{
        store: store,
        strategies: []creditStrategy{
            compGrantStrategy{},
            subscriptionStrategy{},
            classPackStrategy{},
        },
        now: func() time.Time { return time.Now().UTC() },
    }
}

// Resolve evaluates the strategies in order and returns the first match.
// When no source can cover a visit it returns a CreditCheck with
// HasCredits false and Source none, not an error; the caller decides
// whether that means rejection (admission) or skipping (promotion).
func (r *Resolver) Resolve(ctx context.Context, userID, studioID uint64) (CreditCheck, error) {
    now := r.now()
    for _, s := range r.strategies {
        check, err := s.tryResolve(ctx, r.store, userID, studioID, now)
        if err != nil {
            return CreditCheck{}, err
        }
        if check != nil {
            return *check, nil
        }
    }
    return noCredits(), nil
}

// compGrantStrategy consumes staff-granted free classes before anything
// else, earliest-expiring first, so they are never silently lost.
type compGrantStrategy struct{}

func (compGrantStrategy) tryResolve(ctx context.Context, store CreditStore, userID, studioID uint64, now time.Time) (*CreditCheck, error) {
    grants, err := store.UsableCompGrants(ctx, userID, studioID, now)
    if err != nil {
        return nil, err
    }
    for _, g := range grants {
        if !g.Usable(now) {
            continue
        }
        return &CreditCheck{
            HasCredits:     true,
            Source:         model.SourceCompClass,
            SourceID:       g.ID,
            RemainingAfter: g.RemainingClasses - 1,
            HasRemaining:   true,
        }, nil
    }
    return nil, nil
}

// activeSubscription loads the member's single active subscription.  A
// second active row is an upstream integrity violation and is surfaced
// as ErrSubscriptionConflict rather than resolved first-row-wins.
func activeSubscription(ctx context.Context, store CreditStore, userID, studioID uint64) (*model.Subscription, error) {
    subs, err := store.ActiveSubscriptions(ctx, userID, studioID)
    if err != nil {
        return nil, err
    }
    if len(subs) > 1 {
        return nil, ErrSubscriptionConflict
    }
    if len(subs) == 0 {
        return nil, nil
    }
    s := subs[0]
    if s.Status != model.SubscriptionActive {
        return nil, nil
    }
    return &s, nil
}

// subscriptionStrategy covers the visit with the member's single active
// subscription, loaded once for both plan types.  An unlimited plan
// always covers and has no projected remainder; a limited plan covers
// only while allowance remains this billing period.
type subscriptionStrategy struct{}

func (subscriptionStrategy) tryResolve(ctx context.Context, store CreditStore, userID, studioID uint64, now time.Time) (*CreditCheck, error) {
    sub, err := activeSubscription(ctx, store, userID, studioID)
    if err != nil || sub == nil {
        return nil, err
    }
    switch sub.PlanType {
    case model.PlanUnlimited:
        return &CreditCheck{
            HasCredits: true,
            Source:     model.SourceSubscriptionUnlimited,
            SourceID:   sub.ID,
        }, nil
    case model.PlanLimited:
        if !sub.HasAllowance() {
            return nil, nil
        }
        return &CreditCheck{
            HasCredits:     true,
            Source:         model.SourceSubscriptionLimited,
            SourceID:       sub.ID,
            RemainingAfter: sub.ClassLimit - sub.ClassesUsedThisPeriod - 1,
            HasRemaining:   true,
        }, nil
    }
    return nil, nil
}

// classPackStrategy is the lowest-priority source: prepaid packs,
// consumed oldest first so early purchases do not expire unused.
type classPackStrategy struct{}

func (classPackStrategy) tryResolve(ctx context.Context, store CreditStore, userID, studioID uint64, now time.Time) (*CreditCheck, error) {
    packs, err := store.UsableClassPacks(ctx, userID, studioID, now)
    if err != nil {
        return nil, err
    }
    for _, p := range packs {
        if !p.Usable(now) {
            continue
        }
        return &CreditCheck{
            HasCredits:     true,
            Source:         model.SourceClassPack,
            SourceID:       p.ID,
            RemainingAfter: p.RemainingClasses - 1,
            HasRemaining:   true,
        }, nil
    }
    return nil, nil
}
