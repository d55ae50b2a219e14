package booking_test

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/iliyamo/studio-booking/internal/booking"
    "github.com/iliyamo/studio-booking/internal/model"
)

// fakeStore is an in-memory implementation of every store interface the
// engine consumes.  It mirrors the repository semantics that matter for
// the invariants: the active-booking uniqueness constraint, guarded
// credit debits/credits, atomic position assignment and compaction.
type fakeStore struct {
    mu sync.Mutex

    classes  map[uint64]*model.ClassInstance
    bookings map[uint64]*model.Booking
    grants   map[uint64]*model.CompClassGrant
    subs     map[uint64]*model.Subscription
    packs    map[uint64]*model.ClassPack
    nextID   uint64

    // insertErr makes the next Insert fail, exercising the
    // compensating-refund path.
    insertErr error
    // countSeatedErr makes the next CountSeated fail.
    countSeatedErr error
    // subCalls counts ActiveSubscriptions queries per Resolve.
    subCalls int
    // afterInsert runs once after a successful Insert, outside the
    // store lock.  Tests use it to sneak a concurrent booking in
    // between the insert and the reconciliation count.
    afterInsert func()
}

func newFakeStore() *fakeStore {
    return &fakeStore{
        classes:  make(map[uint64]*model.ClassInstance),
        bookings: make(map[uint64]*model.Booking),
        grants:   make(map[uint64]*model.CompClassGrant),
        subs:     make(map[uint64]*model.Subscription),
        packs:    make(map[uint64]*model.ClassPack),
    }
}

func (f *fakeStore) addClass(id, studioID uint64, capacity uint32, status model.ClassStatus) {
    f.classes[id] = &model.ClassInstance{
        ID:          id,
        StudioID:    studioID,
        Date:        time.Now().UTC().Truncate(24 * time.Hour),
        StartsAt:    time.Now().UTC().Add(24 * time.Hour),
        MaxCapacity: capacity,
        Status:      status,
    }
}

func (f *fakeStore) addGrant(id, userID, studioID uint64, remaining uint32, expiresAt *time.Time) {
    f.grants[id] = &model.CompClassGrant{
        ID: id, UserID: userID, StudioID: studioID,
        RemainingClasses: remaining, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC(),
    }
}

func (f *fakeStore) addSubscription(id, userID, studioID uint64, plan model.PlanType, limit, used uint32) {
    f.subs[id] = &model.Subscription{
        ID: id, UserID: userID, StudioID: studioID,
        Status: model.SubscriptionActive, PlanType: plan,
        ClassLimit: limit, ClassesUsedThisPeriod: used,
    }
}

func (f *fakeStore) addPack(id, userID, studioID uint64, remaining uint32, createdAt time.Time, expiresAt *time.Time) {
    f.packs[id] = &model.ClassPack{
        ID: id, UserID: userID, StudioID: studioID,
        RemainingClasses: remaining, ExpiresAt: expiresAt, CreatedAt: createdAt,
    }
}

// seatDirectly plants a booked row without going through the engine,
// simulating a booking that raced in from another request.
func (f *fakeStore) seatDirectly(classID, userID uint64) *model.Booking {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.nextID++
    now := time.Now().UTC()
    b := &model.Booking{
        ID: f.nextID, ClassInstanceID: classID, UserID: userID,
        Status: model.BookingBooked, CreditSource: model.SourceNone,
        BookedAt: &now, CreatedAt: now,
    }
    f.bookings[b.ID] = b
    return b
}

// --- ClassStore ---

func (f *fakeStore) GetClassInstance(ctx context.Context, id uint64) (*model.ClassInstance, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    c, ok := f.classes[id]
    if !ok {
        return nil, booking.ErrClassNotFound
    }
    cp := *c
    return &cp, nil
}

// --- BookingStore ---

func (f *fakeStore) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.bookings[id]
    if !ok {
        return nil, booking.ErrBookingNotFound
    }
    cp := *b
    return &cp, nil
}

func (f *fakeStore) ActiveForMember(ctx context.Context, classID, userID uint64) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, b := range f.bookings {
        if b.ClassInstanceID == classID && b.UserID == userID && !b.Terminal() {
            cp := *b
            return &cp, nil
        }
    }
    return nil, nil
}

func (f *fakeStore) CountSeated(ctx context.Context, classID uint64) (int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.countSeatedErr != nil {
        err := f.countSeatedErr
        f.countSeatedErr = nil
        return 0, err
    }
    n := 0
    for _, b := range f.bookings {
        if b.ClassInstanceID == classID && b.OccupiesSeat() {
            n++
        }
    }
    return n, nil
}

func (f *fakeStore) Insert(ctx context.Context, b *model.Booking) error {
    f.mu.Lock()
    if f.insertErr != nil {
        err := f.insertErr
        f.insertErr = nil
        f.mu.Unlock()
        return err
    }
    for _, existing := range f.bookings {
        if existing.ClassInstanceID == b.ClassInstanceID && existing.UserID == b.UserID && !existing.Terminal() {
            f.mu.Unlock()
            return booking.ErrConflict
        }
    }
    f.nextID++
    b.ID = f.nextID
    b.CreatedAt = time.Now().UTC()
    cp := *b
    f.bookings[b.ID] = &cp
    hook := f.afterInsert
    f.afterInsert = nil
    f.mu.Unlock()
    if hook != nil {
        hook()
    }
    return nil
}

func (f *fakeStore) Cancel(ctx context.Context, id uint64, at time.Time) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.bookings[id]
    if !ok || b.Terminal() {
        return false, nil
    }
    b.Status = model.BookingCancelled
    b.WaitlistPosition = nil
    t := at
    b.CancelledAt = &t
    return true, nil
}

func (f *fakeStore) MarkRefunded(ctx context.Context, id uint64, at time.Time) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.bookings[id]
    if !ok || b.RefundedAt != nil {
        return false, nil
    }
    t := at
    b.RefundedAt = &t
    return true, nil
}

func (f *fakeStore) Promote(ctx context.Context, id uint64, check booking.CreditCheck, at time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.bookings[id]
    if !ok || b.Status != model.BookingWaitlisted {
        return booking.ErrBookingNotFound
    }
    b.Status = model.BookingBooked
    b.WaitlistPosition = nil
    b.CreditSource = check.Source
    if check.Source != model.SourceNone {
        sid := check.SourceID
        b.CreditSourceID = &sid
    }
    t := at
    b.BookedAt = &t
    return nil
}

func (f *fakeStore) ListForMember(ctx context.Context, userID uint64) ([]model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.Booking
    for _, b := range f.bookings {
        if b.UserID == userID {
            out = append(out, *b)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
    return out, nil
}

// --- WaitlistStore ---

func (f *fakeStore) Append(ctx context.Context, classID, userID uint64) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var max uint32
    for _, b := range f.bookings {
        if b.ClassInstanceID == classID && b.UserID == userID && !b.Terminal() {
            return nil, booking.ErrConflict
        }
        if b.ClassInstanceID == classID && b.Status == model.BookingWaitlisted && b.WaitlistPosition != nil && *b.WaitlistPosition > max {
            max = *b.WaitlistPosition
        }
    }
    f.nextID++
    pos := max + 1
    b := &model.Booking{
        ID: f.nextID, ClassInstanceID: classID, UserID: userID,
        Status: model.BookingWaitlisted, CreditSource: model.SourceNone,
        WaitlistPosition: &pos, CreatedAt: time.Now().UTC(),
    }
    f.bookings[b.ID] = b
    cp := *b
    p := pos
    cp.WaitlistPosition = &p
    return &cp, nil
}

func (f *fakeStore) Position(ctx context.Context, classID, userID uint64) (uint32, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, b := range f.bookings {
        if b.ClassInstanceID == classID && b.UserID == userID && b.Status == model.BookingWaitlisted && b.WaitlistPosition != nil {
            return *b.WaitlistPosition, nil
        }
    }
    return 0, nil
}

func (f *fakeStore) ListOrdered(ctx context.Context, classID uint64) ([]model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.listWaitlistedLocked(classID), nil
}

func (f *fakeStore) listWaitlistedLocked(classID uint64) []model.Booking {
    var out []model.Booking
    for _, b := range f.bookings {
        if b.ClassInstanceID == classID && b.Status == model.BookingWaitlisted {
            out = append(out, *b)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        pi, pj := uint32(0), uint32(0)
        if out[i].WaitlistPosition != nil {
            pi = *out[i].WaitlistPosition
        }
        if out[j].WaitlistPosition != nil {
            pj = *out[j].WaitlistPosition
        }
        if pi != pj {
            return pi < pj
        }
        return out[i].ID < out[j].ID
    })
    return out
}

func (f *fakeStore) Compact(ctx context.Context, classID uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    ordered := f.listWaitlistedLocked(classID)
    for i, b := range ordered {
        pos := uint32(i + 1)
        f.bookings[b.ID].WaitlistPosition = &pos
    }
    return nil
}

func (f *fakeStore) Count(ctx context.Context, classID uint64) (int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return len(f.listWaitlistedLocked(classID)), nil
}

// --- CreditStore ---

func (f *fakeStore) UsableCompGrants(ctx context.Context, userID, studioID uint64, now time.Time) ([]model.CompClassGrant, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.CompClassGrant
    for _, g := range f.grants {
        if g.UserID == userID && g.StudioID == studioID && g.Usable(now) {
            out = append(out, *g)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        gi, gj := out[i], out[j]
        switch {
        case gi.ExpiresAt == nil && gj.ExpiresAt == nil:
            return gi.ID < gj.ID
        case gi.ExpiresAt == nil:
            return false
        case gj.ExpiresAt == nil:
            return true
        default:
            return gi.ExpiresAt.Before(*gj.ExpiresAt)
        }
    })
    return out, nil
}

func (f *fakeStore) ActiveSubscriptions(ctx context.Context, userID, studioID uint64) ([]model.Subscription, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.subCalls++
    var out []model.Subscription
    for _, s := range f.subs {
        if s.UserID == userID && s.StudioID == studioID && s.Status == model.SubscriptionActive {
            out = append(out, *s)
        }
    }
    return out, nil
}

func (f *fakeStore) UsableClassPacks(ctx context.Context, userID, studioID uint64, now time.Time) ([]model.ClassPack, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.ClassPack
    for _, p := range f.packs {
        if p.UserID == userID && p.StudioID == studioID && p.Usable(now) {
            out = append(out, *p)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
            return out[i].CreatedAt.Before(out[j].CreatedAt)
        }
        return out[i].ID < out[j].ID
    })
    return out, nil
}

func (f *fakeStore) DebitCompGrant(ctx context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    g, ok := f.grants[id]
    if !ok || g.RemainingClasses == 0 {
        return booking.ErrStaleCredit
    }
    g.RemainingClasses--
    return nil
}

func (f *fakeStore) CreditCompGrant(ctx context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    g, ok := f.grants[id]
    if !ok {
        return booking.ErrStaleCredit
    }
    g.RemainingClasses++
    return nil
}

func (f *fakeStore) DebitClassPack(ctx context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    p, ok := f.packs[id]
    if !ok || p.RemainingClasses == 0 {
        return booking.ErrStaleCredit
    }
    p.RemainingClasses--
    return nil
}

func (f *fakeStore) CreditClassPack(ctx context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    p, ok := f.packs[id]
    if !ok {
        return booking.ErrStaleCredit
    }
    p.RemainingClasses++
    return nil
}

func (f *fakeStore) DebitSubscriptionUsage(ctx context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    s, ok := f.subs[id]
    if !ok || s.ClassesUsedThisPeriod >= s.ClassLimit {
        return booking.ErrStaleCredit
    }
    s.ClassesUsedThisPeriod++
    return nil
}

func (f *fakeStore) CreditSubscriptionUsage(ctx context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    s, ok := f.subs[id]
    if !ok || s.ClassesUsedThisPeriod == 0 {
        return booking.ErrStaleCredit
    }
    s.ClassesUsedThisPeriod--
    return nil
}

// fakeNotifier records every notification the engine emits.
type fakeNotifier struct {
    mu   sync.Mutex
    sent []booking.Notification
    err  error
}

func (n *fakeNotifier) Send(ctx context.Context, note booking.Notification) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    if n.err != nil {
        return n.err
    }
    n.sent = append(n.sent, note)
    return nil
}

func (n *fakeNotifier) types() []string {
    n.mu.Lock()
    defer n.mu.Unlock()
    out := make([]string, 0, len(n.sent))
    for _, s := range n.sent {
        out = append(out, s.Type)
    }
    return out
}

func newTestEngine(f *fakeStore) (*booking.Engine, *fakeNotifier) {
    n := &fakeNotifier{}
    return booking.NewEngine(f, f, f, f, n), n
}
