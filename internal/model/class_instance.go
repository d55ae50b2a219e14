package model

import "time"

// ClassStatus enumerates the lifecycle states of a scheduled class
// occurrence.  Only scheduled classes accept bookings.
type ClassStatus string

const (
    ClassScheduled  ClassStatus = "scheduled"   // class is upcoming and bookable
    ClassInProgress ClassStatus = "in_progress" // class has started
    ClassCompleted  ClassStatus = "completed"   // class has finished
    ClassCancelled  ClassStatus = "cancelled"   // class was called off
)

// ClassInstance represents one scheduled occurrence of a class template
// at a studio.  The scheduling subsystem owns these rows; the booking
// engine only reads them.  Capacity is never stored as a live counter on
// this row – the number of occupied seats is always derived by counting
// active bookings.
//
// Fields:
//  ID          – primary key identifier.
//  StudioID    – studio hosting the class.
//  Date        – calendar day of the occurrence.
//  StartsAt    – when the class begins.
//  MaxCapacity – number of seats available (>= 0).
//  Status      – current lifecycle state.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type ClassInstance struct {
    ID          uint64      // class_instances.id
    StudioID    uint64      // class_instances.studio_id
    Date        time.Time   // class_instances.class_date
    StartsAt    time.Time   // class_instances.starts_at
    MaxCapacity uint32      // class_instances.max_capacity
    Status      ClassStatus // class_instances.status
    CreatedAt   time.Time   // class_instances.created_at
    UpdatedAt   time.Time   // class_instances.updated_at
}

// Bookable reports whether the class currently accepts booking requests.
func (c *ClassInstance) Bookable() bool { return c.Status == ClassScheduled }
