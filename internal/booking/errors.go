package booking

import "errors"

// Sentinel errors forming the engine's error taxonomy.  Repositories map
// database failures onto these values and handlers translate them into
// HTTP responses; nothing here is fatal to the host process.
var (
    // ErrClassNotFound indicates the class instance does not exist.
    ErrClassNotFound = errors.New("class instance not found")

    // ErrBookingNotFound indicates the booking does not exist.
    ErrBookingNotFound = errors.New("booking not found")

    // ErrNotBookable indicates the class is not in the scheduled state.
    ErrNotBookable = errors.New("class is not bookable")

    // ErrConflict indicates the member already holds an active booking
    // for the class.  The rejection is idempotent: retrying after a real
    // conflict is still a conflict, never a silent success.
    ErrConflict = errors.New("duplicate active booking")

    // ErrNoCredits indicates no usable credit source covers the visit.
    // Not retryable without an external purchase.
    ErrNoCredits = errors.New("no usable credit source")

    // ErrForbidden indicates an operation on another member's booking.
    ErrForbidden = errors.New("forbidden")

    // ErrSubscriptionConflict indicates more than one active
    // subscription exists for a (member, studio) pair.  The invariant is
    // upheld by convention upstream; when it breaks we refuse to guess
    // which row to charge.
    ErrSubscriptionConflict = errors.New("multiple active subscriptions")

    // ErrStaleCredit indicates a guarded debit or credit found no
    // headroom: the source row changed between resolve and deduct.
    ErrStaleCredit = errors.New("credit source out of date")
)
