// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationEvent is published for every member-facing notification the
// booking engine emits (booking.confirmed, waitlist.joined,
// waitlist.promoted, booking.cancelled).  Delivery is best-effort: the
// engine fires and forgets, and downstream consumers deliver push/email
// without querying the primary database.
type NotificationEvent struct {
    EventID         string `json:"event_id"`
    Type            string `json:"type"`
    UserID          uint64 `json:"user_id"`
    StudioID        uint64 `json:"studio_id"`
    ClassInstanceID uint64 `json:"class_instance_id"`
    BookingID       uint64 `json:"booking_id"`
    Title           string `json:"title"`
    Body            string `json:"body"`
    EmittedAt       string `json:"emitted_at"`
}
