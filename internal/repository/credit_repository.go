package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/studio-booking/internal/booking"
    "github.com/iliyamo/studio-booking/internal/model"
)

// CreditRepo reads and mutates the three credit source tables:
// comp_class_grants, subscriptions and class_packs.  Every mutation is a
// guarded single-row UPDATE – a debit requires headroom, a credit
// requires a prior debit – so counters stay within range no matter how
// requests interleave.  No other code path writes these counters.
type CreditRepo struct {
    db *sql.DB
}

// NewCreditRepo returns a new CreditRepo bound to the given database.
func NewCreditRepo(db *sql.DB) *CreditRepo { return &CreditRepo{db: db} }

// UsableCompGrants returns grants with remaining classes that are not
// expired at now, earliest-expiring first.  Grants without an expiry
// sort last so use-it-or-lose-it credits go first.
func (r *CreditRepo) UsableCompGrants(ctx context.Context, userID, studioID uint64, now time.Time) ([]model.CompClassGrant, error) {
    const q = `SELECT id, user_id, studio_id, remaining_classes, expires_at, created_at
               FROM comp_class_grants
               WHERE user_id = ? AND studio_id = ? AND remaining_classes > 0
                 AND (expires_at IS NULL OR expires_at > ?)
               ORDER BY expires_at IS NULL, expires_at, id`
    rows, err := r.db.QueryContext(ctx, q, userID, studioID, now.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.CompClassGrant
    for rows.Next() {
        var g model.CompClassGrant
        var expires sql.NullTime
        if err := rows.Scan(&g.ID, &g.UserID, &g.StudioID, &g.RemainingClasses, &expires, &g.CreatedAt); err != nil {
            return nil, err
        }
        if expires.Valid {
            t := expires.Time
            g.ExpiresAt = &t
        }
        out = append(out, g)
    }
    return out, rows.Err()
}

// ActiveSubscriptions returns the member's active subscriptions at the
// studio.  The engine treats more than one row as an integrity
// violation; this query deliberately does not LIMIT 1.
func (r *CreditRepo) ActiveSubscriptions(ctx context.Context, userID, studioID uint64) ([]model.Subscription, error) {
    const q = `SELECT id, user_id, studio_id, status, plan_type, class_limit, classes_used_this_period,
                      created_at, updated_at
               FROM subscriptions
               WHERE user_id = ? AND studio_id = ? AND status = 'active'`
    rows, err := r.db.QueryContext(ctx, q, userID, studioID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Subscription
    for rows.Next() {
        var s model.Subscription
        if err := rows.Scan(&s.ID, &s.UserID, &s.StudioID, &s.Status, &s.PlanType,
            &s.ClassLimit, &s.ClassesUsedThisPeriod, &s.CreatedAt, &s.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    return out, rows.Err()
}

// UsableClassPacks returns packs with remaining classes that are not
// expired at now, oldest-created first (FIFO consumption).
func (r *CreditRepo) UsableClassPacks(ctx context.Context, userID, studioID uint64, now time.Time) ([]model.ClassPack, error) {
    const q = `SELECT id, user_id, studio_id, remaining_classes, expires_at, created_at
               FROM class_packs
               WHERE user_id = ? AND studio_id = ? AND remaining_classes > 0
                 AND (expires_at IS NULL OR expires_at > ?)
               ORDER BY created_at, id`
    rows, err := r.db.QueryContext(ctx, q, userID, studioID, now.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.ClassPack
    for rows.Next() {
        var p model.ClassPack
        var expires sql.NullTime
        if err := rows.Scan(&p.ID, &p.UserID, &p.StudioID, &p.RemainingClasses, &expires, &p.CreatedAt); err != nil {
            return nil, err
        }
        if expires.Valid {
            t := expires.Time
            p.ExpiresAt = &t
        }
        out = append(out, p)
    }
    return out, rows.Err()
}

// guardedExec runs a guarded UPDATE and maps zero affected rows to
// booking.ErrStaleCredit.
func (r *CreditRepo) guardedExec(ctx context.Context, q string, args ...any) error {
    res, err := r.db.ExecContext(ctx, q, args...)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return booking.ErrStaleCredit
    }
    return nil
}

// DebitCompGrant consumes one class from a grant while any remain.
func (r *CreditRepo) DebitCompGrant(ctx context.Context, id uint64) error {
    return r.guardedExec(ctx,
        `UPDATE comp_class_grants SET remaining_classes = remaining_classes - 1
         WHERE id = ? AND remaining_classes > 0`, id)
}

// CreditCompGrant returns one class to a grant.
func (r *CreditRepo) CreditCompGrant(ctx context.Context, id uint64) error {
    return r.guardedExec(ctx,
        `UPDATE comp_class_grants SET remaining_classes = remaining_classes + 1
         WHERE id = ?`, id)
}

// DebitClassPack consumes one class from a pack while any remain.
func (r *CreditRepo) DebitClassPack(ctx context.Context, id uint64) error {
    return r.guardedExec(ctx,
        `UPDATE class_packs SET remaining_classes = remaining_classes - 1
         WHERE id = ? AND remaining_classes > 0`, id)
}

// CreditClassPack returns one class to a pack.
func (r *CreditRepo) CreditClassPack(ctx context.Context, id uint64) error {
    return r.guardedExec(ctx,
        `UPDATE class_packs SET remaining_classes = remaining_classes + 1
         WHERE id = ?`, id)
}

// DebitSubscriptionUsage increments the period usage counter while the
// plan still has allowance.
func (r *CreditRepo) DebitSubscriptionUsage(ctx context.Context, id uint64) error {
    return r.guardedExec(ctx,
        `UPDATE subscriptions SET classes_used_this_period = classes_used_this_period + 1
         WHERE id = ? AND classes_used_this_period < class_limit`, id)
}

// CreditSubscriptionUsage decrements the period usage counter while it
// is above zero.  The guard keeps a refund that lands after a billing
// period reset from driving the counter negative.
func (r *CreditRepo) CreditSubscriptionUsage(ctx context.Context, id uint64) error {
    return r.guardedExec(ctx,
        `UPDATE subscriptions SET classes_used_this_period = classes_used_this_period - 1
         WHERE id = ? AND classes_used_this_period > 0`, id)
}
