package model

import "time"

// CreditSource is a closed enumeration of the mechanisms by which a
// member pays for one class visit.  Ledger operations switch over this
// type exhaustively; adding a variant means adding a resolver strategy
// and a ledger branch, not editing a string comparison chain.
type CreditSource string

const (
    SourceCompClass             CreditSource = "comp_class"             // staff-granted free class
    SourceSubscriptionUnlimited CreditSource = "subscription_unlimited" // active unlimited plan
    SourceSubscriptionLimited   CreditSource = "subscription_limited"   // active limited plan with headroom
    SourceClassPack             CreditSource = "class_pack"             // prepaid pack of classes
    SourceNone                  CreditSource = "none"                   // no usable source
)

// SubscriptionStatus enumerates the billing states of a subscription.
// Only active subscriptions can cover a class visit.
type SubscriptionStatus string

const (
    SubscriptionActive    SubscriptionStatus = "active"
    SubscriptionPastDue   SubscriptionStatus = "past_due"
    SubscriptionPaused    SubscriptionStatus = "paused"
    SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// PlanType distinguishes unlimited plans from plans with a per-period
// class allowance.
type PlanType string

const (
    PlanUnlimited PlanType = "unlimited"
    PlanLimited   PlanType = "limited"
)

// CompClassGrant is a free, staff-granted class credit.  Grants with an
// expiry are consumed earliest-expiring first so they are not silently
// lost.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – member the grant belongs to.
//  StudioID         – studio the grant is valid at.
//  RemainingClasses – unused classes left on the grant (>= 0).
//  ExpiresAt        – optional expiry; nil means the grant never expires.
//  CreatedAt        – creation timestamp.
type CompClassGrant struct {
    ID               uint64     // comp_class_grants.id
    UserID           uint64     // comp_class_grants.user_id
    StudioID         uint64     // comp_class_grants.studio_id
    RemainingClasses uint32     // comp_class_grants.remaining_classes
    ExpiresAt        *time.Time // comp_class_grants.expires_at (nullable)
    CreatedAt        time.Time  // comp_class_grants.created_at
}

// Usable reports whether the grant can cover a visit at the given time.
func (g *CompClassGrant) Usable(now time.Time) bool {
    if g.RemainingClasses == 0 {
        return false
    }
    return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}

// Subscription is a recurring membership plan at one studio.  The
// billing subsystem owns status transitions and resets
// ClassesUsedThisPeriod at each period rollover; the ledger only
// increments and decrements the usage counter.  At most one non-cancelled
// subscription per (member, studio) is expected; the resolver surfaces a
// violation as an integrity error rather than picking an arbitrary row.
type Subscription struct {
    ID                    uint64             // subscriptions.id
    UserID                uint64             // subscriptions.user_id
    StudioID              uint64             // subscriptions.studio_id
    Status                SubscriptionStatus // subscriptions.status
    PlanType              PlanType           // subscriptions.plan_type
    ClassLimit            uint32             // subscriptions.class_limit (limited plans)
    ClassesUsedThisPeriod uint32             // subscriptions.classes_used_this_period
    CreatedAt             time.Time          // subscriptions.created_at
    UpdatedAt             time.Time          // subscriptions.updated_at
}

// HasAllowance reports whether a limited subscription still has classes
// left this billing period.  Unlimited plans always have allowance.
func (s *Subscription) HasAllowance() bool {
    if s.PlanType == PlanUnlimited {
        return true
    }
    return s.ClassesUsedThisPeriod < s.ClassLimit
}

// ClassPack is a prepaid bundle of class visits.  Packs are consumed
// oldest-created first (FIFO) so an early purchase does not expire
// unused behind a newer one.
type ClassPack struct {
    ID               uint64     // class_packs.id
    UserID           uint64     // class_packs.user_id
    StudioID         uint64     // class_packs.studio_id
    RemainingClasses uint32     // class_packs.remaining_classes
    ExpiresAt        *time.Time // class_packs.expires_at (nullable)
    CreatedAt        time.Time  // class_packs.created_at
}

// Usable reports whether the pack can cover a visit at the given time.
func (p *ClassPack) Usable(now time.Time) bool {
    if p.RemainingClasses == 0 {
        return false
    }
    return p.ExpiresAt == nil || p.ExpiresAt.After(now)
}
