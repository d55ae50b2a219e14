package handler

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/studio-booking/internal/booking"
    "github.com/iliyamo/studio-booking/internal/model"
)

// stubService scripts the engine's answers so the handlers can be tested
// without stores.
type stubService struct {
    bookRes    *booking.BookResult
    bookErr    error
    cancelRes  *model.Booking
    cancelErr  error
    promote    []*booking.PromoteResult
    promoteErr error
    position   uint32
    waitlist   []model.Booking

    bookedClass  uint64
    bookedUser   uint64
    promoteCalls int
}

func (s *stubService) Book(ctx context.Context, classID, userID uint64) (*booking.BookResult, error) {
    s.bookedClass, s.bookedUser = classID, userID
    return s.bookRes, s.bookErr
}

func (s *stubService) Cancel(ctx context.Context, bookingID, userID uint64) (*model.Booking, error) {
    return s.cancelRes, s.cancelErr
}

func (s *stubService) Promote(ctx context.Context, classID uint64) (*booking.PromoteResult, error) {
    if s.promoteErr != nil {
        return nil, s.promoteErr
    }
    i := s.promoteCalls
    s.promoteCalls++
    if i < len(s.promote) {
        return s.promote[i], nil
    }
    return &booking.PromoteResult{Promoted: false}, nil
}

func (s *stubService) Availability(ctx context.Context, classID uint64) (*booking.Availability, error) {
    return &booking.Availability{ClassInstanceID: classID, MaxCapacity: 10, Booked: 4, SeatsLeft: 6}, nil
}

func (s *stubService) WaitlistPosition(ctx context.Context, classID, userID uint64) (uint32, error) {
    return s.position, nil
}

func (s *stubService) ListBookings(ctx context.Context, userID uint64) ([]model.Booking, error) {
    return nil, nil
}

func (s *stubService) Waitlist(ctx context.Context, classID uint64) ([]model.Booking, error) {
    return s.waitlist, nil
}

func newTestContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    return e.NewContext(req, rec), rec
}

func TestBookReturnsCreated(t *testing.T) {
    rem := uint32(3)
    svc := &stubService{bookRes: &booking.BookResult{
        BookingID: 9, Status: model.BookingBooked,
        CreditSource: model.SourceClassPack, RemainingCredits: &rem,
    }}
    h := NewMemberHandler(svc)

    c, rec := newTestContext(http.MethodPost, "/v1/classes/5/book", "")
    c.SetParamNames("id")
    c.SetParamValues("5")
    c.Set("user_id", uint64(42))

    require.NoError(t, h.Book(c))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Equal(t, uint64(5), svc.bookedClass)
    assert.Equal(t, uint64(42), svc.bookedUser)
    assert.Contains(t, rec.Body.String(), `"status":"booked"`)
    assert.Contains(t, rec.Body.String(), `"remaining_credits":3`)
}

func TestBookAcceptsStringSubject(t *testing.T) {
    svc := &stubService{bookRes: &booking.BookResult{BookingID: 9, Status: model.BookingBooked}}
    h := NewMemberHandler(svc)

    c, rec := newTestContext(http.MethodPost, "/v1/classes/5/book", "")
    c.SetParamNames("id")
    c.SetParamValues("5")
    c.Set("user_id", "42")

    require.NoError(t, h.Book(c))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Equal(t, uint64(42), svc.bookedUser)
}

func TestBookErrorMapping(t *testing.T) {
    cases := []struct {
        name string
        err  error
        code int
    }{
        {"class missing", booking.ErrClassNotFound, http.StatusNotFound},
        {"not bookable", booking.ErrNotBookable, http.StatusConflict},
        {"duplicate", booking.ErrConflict, http.StatusConflict},
        {"no credits", booking.ErrNoCredits, http.StatusPaymentRequired},
        {"subscription conflict", booking.ErrSubscriptionConflict, http.StatusInternalServerError},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            h := NewMemberHandler(&stubService{bookErr: tc.err})
            c, rec := newTestContext(http.MethodPost, "/v1/classes/5/book", "")
            c.SetParamNames("id")
            c.SetParamValues("5")
            c.Set("user_id", uint64(42))

            require.NoError(t, h.Book(c))
            assert.Equal(t, tc.code, rec.Code)
        })
    }
}

func TestBookInvalidClassID(t *testing.T) {
    h := NewMemberHandler(&stubService{})
    c, rec := newTestContext(http.MethodPost, "/v1/classes/zero/book", "")
    c.SetParamNames("id")
    c.SetParamValues("zero")
    c.Set("user_id", uint64(42))

    require.NoError(t, h.Book(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookMissingIdentity(t *testing.T) {
    h := NewMemberHandler(&stubService{})
    c, rec := newTestContext(http.MethodPost, "/v1/classes/5/book", "")
    c.SetParamNames("id")
    c.SetParamValues("5")

    require.NoError(t, h.Book(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCancelForbidden(t *testing.T) {
    h := NewMemberHandler(&stubService{cancelErr: booking.ErrForbidden})
    c, rec := newTestContext(http.MethodDelete, "/v1/bookings/9", "")
    c.SetParamNames("id")
    c.SetParamValues("9")
    c.Set("user_id", uint64(42))

    require.NoError(t, h.Cancel(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWaitlistPositionNotQueued(t *testing.T) {
    h := NewMemberHandler(&stubService{position: 0})
    c, rec := newTestContext(http.MethodGet, "/v1/classes/5/waitlist/position", "")
    c.SetParamNames("id")
    c.SetParamValues("5")
    c.Set("user_id", uint64(42))

    require.NoError(t, h.WaitlistPosition(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"waitlisted":false`)
    assert.NotContains(t, rec.Body.String(), "position")
}

func TestWaitlistPositionQueued(t *testing.T) {
    h := NewMemberHandler(&stubService{position: 2})
    c, rec := newTestContext(http.MethodGet, "/v1/classes/5/waitlist/position", "")
    c.SetParamNames("id")
    c.SetParamValues("5")
    c.Set("user_id", uint64(42))

    require.NoError(t, h.WaitlistPosition(c))
    assert.Contains(t, rec.Body.String(), `"position":2`)
    assert.Contains(t, rec.Body.String(), `"waitlisted":true`)
}

func TestStaffPromoteRunsPerSeat(t *testing.T) {
    svc := &stubService{promote: []*booking.PromoteResult{
        {Promoted: true, BookingID: 1, UserID: 21},
        {Promoted: true, BookingID: 2, UserID: 22},
    }}
    h := NewStaffHandler(svc)

    c, rec := newTestContext(http.MethodPost, "/v1/classes/5/promote", `{"seats":3}`)
    c.SetParamNames("id")
    c.SetParamValues("5")

    require.NoError(t, h.Promote(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    // The third pass promotes nobody, so the loop stops at two entries
    // after three calls.
    assert.Equal(t, 3, svc.promoteCalls)
    assert.Contains(t, rec.Body.String(), `"user_id":21`)
    assert.Contains(t, rec.Body.String(), `"user_id":22`)
}

func TestStaffPromoteDefaultsToOneSeat(t *testing.T) {
    svc := &stubService{promote: []*booking.PromoteResult{
        {Promoted: true, BookingID: 1, UserID: 21},
        {Promoted: true, BookingID: 2, UserID: 22},
    }}
    h := NewStaffHandler(svc)

    c, rec := newTestContext(http.MethodPost, "/v1/classes/5/promote", "")
    c.SetParamNames("id")
    c.SetParamValues("5")

    require.NoError(t, h.Promote(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, 1, svc.promoteCalls)
}

func TestStaffWaitlistView(t *testing.T) {
    pos := uint32(1)
    svc := &stubService{waitlist: []model.Booking{
        {ID: 7, UserID: 21, Status: model.BookingWaitlisted, WaitlistPosition: &pos},
    }}
    h := NewStaffHandler(svc)

    c, rec := newTestContext(http.MethodGet, "/v1/classes/5/waitlist", "")
    c.SetParamNames("id")
    c.SetParamValues("5")

    require.NoError(t, h.Waitlist(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"booking_id":7`)
    assert.Contains(t, rec.Body.String(), `"position":1`)
}

func TestPublicAvailability(t *testing.T) {
    h := NewPublicHandler(&stubService{})
    c, rec := newTestContext(http.MethodGet, "/v1/classes/5/availability", "")
    c.SetParamNames("id")
    c.SetParamValues("5")

    require.NoError(t, h.Availability(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"seats_left":6`)
}
