// Package booking implements the admission and credit-allocation engine:
// deciding whether a seat exists for a booking request, which credit
// source pays for it, and how members move on and off the per-class
// waitlist.  The engine talks to storage through the narrow interfaces in
// stores.go so the repositories stay swappable and the invariants stay
// testable without a database.
package booking

import (
    "github.com/iliyamo/studio-booking/internal/model"
)

// CreditCheck is the outcome of resolving a member's payment eligibility
// at a point in time.  It is a value object: the resolver produces it
// without side effects, the ledger consumes it to perform the actual
// deduction, and the chosen source is denormalized onto the booking row
// so refunds can be routed without re-resolving.
type CreditCheck struct {
    HasCredits bool               // whether any source can cover one visit
    Source     model.CreditSource // which source was selected
    SourceID   uint64             // the specific grant/subscription/pack row
    // RemainingAfter is the projected remaining units once the deduction
    // lands.  It is informational (returned to the caller); the ledger
    // performs guarded increments/decrements rather than writing this
    // value back.  Undefined for unlimited subscriptions.
    RemainingAfter uint32
    // HasRemaining reports whether RemainingAfter carries a meaningful
    // value.  False for unlimited subscriptions and for the none source.
    HasRemaining bool
}

// noCredits is the CreditCheck returned when no source covers a visit.
func noCredits() CreditCheck {
    return CreditCheck{HasCredits: false, Source: model.SourceNone}
}

// BookResult is returned by Engine.Book.  Exactly one of the two status
// values is set: "booked" when a seat was granted, "waitlisted" when the
// class was full (or the request lost a capacity race and was demoted).
type BookResult struct {
    BookingID        uint64              `json:"booking_id"`
    Status           model.BookingStatus `json:"status"`
    CreditSource     model.CreditSource  `json:"credit_source,omitempty"`
    RemainingCredits *uint32             `json:"remaining_credits,omitempty"`
    WaitlistPosition *uint32             `json:"waitlist_position,omitempty"`
}

// PromoteResult describes the outcome of one promotion pass.
type PromoteResult struct {
    Promoted  bool   `json:"promoted"`
    BookingID uint64 `json:"booking_id,omitempty"`
    UserID    uint64 `json:"user_id,omitempty"`
}

// Availability is the derived seat picture for one class instance.  It
// is always computed by counting booking rows, never from a cached
// counter, so there is no second source of truth to drift under races.
type Availability struct {
    ClassInstanceID uint64 `json:"class_instance_id"`
    MaxCapacity     uint32 `json:"max_capacity"`
    Booked          int    `json:"booked"`
    SeatsLeft       int    `json:"seats_left"`
    WaitlistLength  int    `json:"waitlist_length"`
}
