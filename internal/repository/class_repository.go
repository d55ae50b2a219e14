package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/studio-booking/internal/booking"
    "github.com/iliyamo/studio-booking/internal/model"
)

// ClassRepo reads class_instances.  The scheduling subsystem owns the
// table; this repository is strictly read-only and exists so the engine
// can check bookability and capacity.
type ClassRepo struct {
    db *sql.DB
}

// NewClassRepo returns a new ClassRepo bound to the given database.
func NewClassRepo(db *sql.DB) *ClassRepo { return &ClassRepo{db: db} }

// DB exposes the underlying handle so the server wiring can share one
// pool across repositories.
func (r *ClassRepo) DB() *sql.DB { return r.db }

// GetClassInstance retrieves one scheduled class occurrence.  It returns
// booking.ErrClassNotFound when no row exists.
func (r *ClassRepo) GetClassInstance(ctx context.Context, id uint64) (*model.ClassInstance, error) {
    const q = `SELECT id, studio_id, class_date, starts_at, max_capacity, status, created_at, updated_at
               FROM class_instances
               WHERE id = ?`
    var c model.ClassInstance
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &c.ID, &c.StudioID, &c.Date, &c.StartsAt, &c.MaxCapacity, &c.Status,
        &c.CreatedAt, &c.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, booking.ErrClassNotFound
        }
        return nil, err
    }
    return &c, nil
}
