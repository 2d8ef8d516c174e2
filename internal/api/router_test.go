package api

import (
	"bytes"
	"errors"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hackgods/salon-scheduling/internal/appointment"
	"github.com/hackgods/salon-scheduling/internal/auth"
	"github.com/hackgods/salon-scheduling/internal/catalog"
	redisclient "github.com/hackgods/salon-scheduling/internal/redis"
	"github.com/hackgods/salon-scheduling/internal/schedule"
	"github.com/hackgods/salon-scheduling/internal/store/memory"
	"github.com/hackgods/salon-scheduling/internal/user"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.New()
	log := zap.NewNop()
	tokens := auth.NewIssuer("test-secret", time.Hour)

	handler := NewRouter(RouterConfig{
		Users:        user.NewService(store, tokens, log),
		Catalog:      catalog.NewCatalog(store, store, log),
		Appointments: appointment.NewService(store, store, store, redisclient.NewLocalDayLocker(), schedule.DefaultConfig(), log),
		Tokens:       tokens,
		Logger:       log,
		Env:          "test",
	})
	return &testAPI{t: t, handler: handler}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) register(login, role string) TokenResponse {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Login:       login,
		Password:    "password",
		FullName:    strings.ToUpper(login),
		PhoneNumber: "+100",
		Role:        role,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[TokenResponse](a.t, rec)
}

// salon registers a stylist with a two-quanta service and a client.
func (a *testAPI) salon() (master, client TokenResponse, service ServiceResponse) {
	a.t.Helper()
	master = a.register("stylist", "STYLIST")
	client = a.register("client", "")

	rec := a.do(http.MethodPost, "/api/services", master.AccessToken, CreateServiceRequest{
		Title:          "Haircut",
		DurationQuanta: 2,
		Price:          25,
		MasterID:       master.User.ID,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return master, client, decode[ServiceResponse](a.t, rec)
}

func TestHealthIsPublic(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = api.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadinessResponse](t, rec)
	assert.Equal(t, "disabled", ready.Dependencies["postgres"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/services", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/api/services", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterLoginAndMe(t *testing.T) {
	api := newTestAPI(t)
	reg := api.register("anna", "CLIENT")
	assert.Equal(t, "bearer", reg.TokenType)
	assert.Equal(t, "CLIENT", reg.User.Role)

	rec := api.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Login: "anna", Password: "password", FullName: "A", PhoneNumber: "1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "login_taken", decode[ErrorResponse](t, rec).Error)

	rec = api.do(http.MethodPost, "/api/auth/token", "", LoginRequest{Login: "anna", Password: "password"})
	require.Equal(t, http.StatusOK, rec.Code)
	tok := decode[TokenResponse](t, rec)

	rec = api.do(http.MethodGet, "/api/users/me", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anna", decode[UserResponse](t, rec).Login)

	rec = api.do(http.MethodPost, "/api/auth/token", "", LoginRequest{Login: "anna", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenAcceptsPasswordForm(t *testing.T) {
	api := newTestAPI(t)
	api.register("anna", "CLIENT")

	form := url.Values{"username": {"anna"}, "password": {"password"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[TokenResponse](t, rec).AccessToken)
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{Login: "x", Password: "password", FullName: "X", PhoneNumber: "1", Role: "ADMIN"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decode[ErrorResponse](t, rec).Error)
}

func TestServicesCatalog(t *testing.T) {
	api := newTestAPI(t)
	master, client, svc := api.salon()

	rec := api.do(http.MethodGet, "/api/services", client.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ServiceListResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "STYLIST", list[0].MasterRole)
	assert.Equal(t, "STYLIST", list[0].MasterFullName)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/services/masters/%d", master.User.ID), client.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ServiceListResponse](t, rec), 1)

	rec = api.do(http.MethodGet, "/api/services/masters/999", client.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPut, fmt.Sprintf("/api/services/%d", svc.ID), master.AccessToken, map[string]any{"price": 30})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[ServiceResponse](t, rec)
	assert.Equal(t, 30.0, updated.Price)
	assert.Equal(t, 2, updated.DurationQuanta)

	rec = api.do(http.MethodPost, "/api/services", master.AccessToken, CreateServiceRequest{Title: "Bad", DurationQuanta: 0, Price: 1, MasterID: master.User.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/services", master.AccessToken, CreateServiceRequest{Title: "Orphan", DurationQuanta: 1, Price: 1, MasterID: 999})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/users/masters", client.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	masters := decode[[]MasterResponse](t, rec)
	require.Len(t, masters, 1)
	assert.Equal(t, 1, masters[0].ServicesCount)

	rec = api.do(http.MethodDelete, fmt.Sprintf("/api/services/%d", svc.ID), master.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, fmt.Sprintf("/api/services/%d", svc.ID), master.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingFlow(t *testing.T) {
	api := newTestAPI(t)
	master, client, svc := api.salon()

	book := func(quarter int) *httptest.ResponseRecorder {
		return api.do(http.MethodPost, "/api/appointments", client.AccessToken, CreateAppointmentRequest{
			ServiceID: svc.ID,
			Date:      "2025-03-01",
			Quarter:   quarter,
		})
	}

	rec := book(5)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[AppointmentResponse](t, rec)
	assert.Equal(t, "10:00", created.Time)
	assert.Equal(t, "booked", created.Status)
	assert.Equal(t, "CLIENT", created.ClientFullName)

	rec = book(6)
	assert.Equal(t, http.StatusConflict, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "overlap", errResp.Error)
	assert.Contains(t, errResp.Details, "busy from quarter 5 to 6")

	rec = book(20)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "out_of_bounds", decode[ErrorResponse](t, rec).Error)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/services/%d/free_quarters?date=2025-03-01", svc.ID), client.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	free := decode[FreeQuartersResponse](t, rec).FreeQuarters
	assert.NotContains(t, free, 4)
	assert.Contains(t, free, 3)
	assert.Contains(t, free, 7)

	rec = api.do(http.MethodGet, "/api/services/999/free_quarters?date=2025-03-01", client.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/services/%d/free_quarters?date=tomorrow", svc.ID), client.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/appointments/client", client.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]AppointmentResponse](t, rec), 1)

	rec = api.do(http.MethodGet, "/api/appointments/master", master.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]AppointmentResponse](t, rec), 1)

	rec = api.do(http.MethodPatch, fmt.Sprintf("/api/appointments/%d", created.ID), master.AccessToken, map[string]any{"status": "in_progress", "is_paid": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode[AppointmentResponse](t, rec)
	assert.Equal(t, "in_progress", patched.Status)
	assert.True(t, patched.IsPaid)

	rec = api.do(http.MethodPatch, fmt.Sprintf("/api/appointments/%d", created.ID), master.AccessToken, map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/payments", client.AccessToken, CreatePaymentRequest{AppointmentID: created.ID, Amount: 25})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pay := decode[PaymentResponse](t, rec)
	assert.Equal(t, "2025-03-01", pay.Date)
	assert.Equal(t, "10:00", pay.Time)

	rec = api.do(http.MethodPost, "/api/payments", client.AccessToken, CreatePaymentRequest{AppointmentID: 999, Amount: 25})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/payments/me", master.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]PaymentResponse](t, rec), 1)

	rec = api.do(http.MethodDelete, fmt.Sprintf("/api/appointments/%d", created.ID), client.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, fmt.Sprintf("/api/appointments/%d", created.ID), client.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConcurrentBookingsCreateOne(t *testing.T) {
	api := newTestAPI(t)
	_, client, svc := api.salon()

	const n = 20
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var buf bytes.Buffer
			_ = json.NewEncoder(&buf).Encode(CreateAppointmentRequest{ServiceID: svc.ID, Date: "2025-03-02", Quarter: 3})
			req := httptest.NewRequest(http.MethodPost, "/api/appointments", &buf)
			req.Header.Set("Authorization", "Bearer "+client.AccessToken)
			rec := httptest.NewRecorder()
			api.handler.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 1, created)
}

func TestScheduleDescription(t *testing.T) {
	api := newTestAPI(t)
	client := api.register("c", "CLIENT")

	rec := api.do(http.MethodGet, "/api/schedule", client.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sc := decode[ScheduleResponse](t, rec)
	assert.Equal(t, 20, sc.DayQuanta)
	assert.Equal(t, "08:00", sc.DayStart)
	require.Len(t, sc.Labels, 20)
	assert.Equal(t, "17:30", sc.Labels[19])
}

func TestRateLimit(t *testing.T) {
	h := RateLimitMiddleware(1, 1, false, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitForwardedFor(t *testing.T) {
	send := func(h http.Handler, fwd string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	// without a trusted proxy a rotating header does not buy new buckets
	direct := RateLimitMiddleware(1, 1, false, zap.NewNop())(ok)
	assert.Equal(t, http.StatusOK, send(direct, "1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, send(direct, "2.2.2.2"))

	proxied := RateLimitMiddleware(1, 1, true, zap.NewNop())(ok)
	assert.Equal(t, http.StatusOK, send(proxied, "1.1.1.1, 10.0.0.1"))
	assert.Equal(t, http.StatusOK, send(proxied, "2.2.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, send(proxied, "1.1.1.1"))
}

func TestIPLimiterEvictsIdleEntries(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(1, 1, time.Minute)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	l.get("10.0.0.1")
	l.get("10.0.0.2")
	require.Len(t, l.entries, 2)

	now = now.Add(30 * time.Second)
	l.get("10.0.0.2")
	require.Len(t, l.entries, 2)

	now = now.Add(40 * time.Second)
	l.get("10.0.0.3")
	assert.Len(t, l.entries, 2)
	assert.NotContains(t, l.entries, "10.0.0.1")
	assert.Contains(t, l.entries, "10.0.0.2")
}

func TestBookingRejectsHugeAndZeroQuarter(t *testing.T) {
	api := newTestAPI(t)
	_, client, svc := api.salon()

	rec := api.do(http.MethodPost, "/api/appointments", client.AccessToken, CreateAppointmentRequest{
		ServiceID: svc.ID,
		Date:      "2025-03-01",
		Quarter:   math.MaxInt,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "out_of_bounds", decode[ErrorResponse](t, rec).Error)

	rec = api.do(http.MethodPost, "/api/appointments", client.AccessToken, CreateAppointmentRequest{
		ServiceID: svc.ID,
		Date:      "2025-03-01",
		Quarter:   0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decode[ErrorResponse](t, rec).Error)

	rec = api.do(http.MethodGet, "/api/appointments/client", client.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]AppointmentResponse](t, rec))
}

func TestInternalErrorHidesDetails(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	rec := httptest.NewRecorder()
	handleError(rec, fmt.Errorf("list appointments: %w", errors.New("dial tcp 10.1.2.3:5432: connection refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "internal_error", resp.Error)
	assert.Equal(t, internalErrorDetails, resp.Details)
	assert.NotContains(t, rec.Body.String(), "10.1.2.3")

	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "connection refused")
}
