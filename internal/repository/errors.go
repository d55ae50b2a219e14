// Package repository implements the engine's store interfaces on top of
// MySQL using hand-written SQL.  Database failures are mapped onto the
// sentinel errors of the booking package so handlers never inspect
// driver errors directly.
//
// Schema notes: the bookings table carries a generated column
// active_user_id (user_id when status is booked/confirmed/waitlisted,
// NULL otherwise) with a unique key over (class_instance_id,
// active_user_id).  That index is the backstop for the admission
// pre-check's race window; a 1062 on insert is reported as ErrConflict.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the server error number for a unique key
// violation.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique constraint violation.
func isDuplicateKey(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
