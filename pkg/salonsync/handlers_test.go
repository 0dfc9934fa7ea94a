package salonsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonsync/salonsync/pkg/auth"
	"github.com/salonsync/salonsync/pkg/models"
	"github.com/salonsync/salonsync/pkg/store"
	"github.com/salonsync/salonsync/pkg/store/dualstore"
)

// The handler tests run the real router, credential service, and adapters
// against in-memory store clients, so a test request exercises the same
// code path as a production one short of the database drivers.

type memPrimary[T models.Record] struct {
	nextID int64
	recs   map[int64]T
	setID  func(*T, int64)
	field  func(T, string) string
	apply  func(*T, map[string]any)

	insertErr error
}

func (m *memPrimary[T]) Insert(ctx context.Context, rec *T) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.nextID++
	m.setID(rec, m.nextID)
	m.recs[m.nextID] = *rec
	return nil
}

func (m *memPrimary[T]) FindAll(ctx context.Context) ([]T, error) {
	var out []T
	for _, rec := range m.recs {
		out = append(out, rec)
	}
	return out, nil
}

func (m *memPrimary[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	rec, ok := m.recs[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memPrimary[T]) UpdateByID(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	rec, ok := m.recs[id]
	if !ok {
		return 0, nil
	}
	m.apply(&rec, patch)
	m.recs[id] = rec
	return 1, nil
}

func (m *memPrimary[T]) DeleteByID(ctx context.Context, id int64) (int64, error) {
	if _, ok := m.recs[id]; !ok {
		return 0, nil
	}
	delete(m.recs, id)
	return 1, nil
}

func (m *memPrimary[T]) FindWhere(ctx context.Context, f store.Filter) ([]T, error) {
	var out []T
	for _, rec := range m.recs {
		matched := true
		for field, match := range f {
			v := strings.ToLower(m.field(rec, field))
			if !strings.Contains(v, strings.ToLower(match.Value)) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, rec)
		}
	}
	return out, nil
}

type memMirror[T models.Record] struct {
	recs  map[int64]T
	field func(T, string) string

	insertErr  error
	replaceErr error
}

func (m *memMirror[T]) SelectByID(ctx context.Context, id int64) (*T, error) {
	rec, ok := m.recs[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memMirror[T]) Insert(ctx context.Context, id int64, rec *T) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.recs[id]; ok {
		return fmt.Errorf("record %d: %w", id, store.ErrDuplicate)
	}
	m.recs[id] = *rec
	return nil
}

func (m *memMirror[T]) Replace(ctx context.Context, id int64, rec *T) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.recs[id] = *rec
	return nil
}

func (m *memMirror[T]) Delete(ctx context.Context, id int64) error {
	delete(m.recs, id)
	return nil
}

func (m *memMirror[T]) SelectAll(ctx context.Context) ([]T, error) {
	var out []T
	for _, rec := range m.recs {
		out = append(out, rec)
	}
	return out, nil
}

func (m *memMirror[T]) MatchWhere(ctx context.Context, f store.Filter) ([]T, error) {
	var out []T
	for _, rec := range m.recs {
		matched := true
		for field, match := range f {
			if m.field(rec, field) != match.Value {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, rec)
		}
	}
	return out, nil
}

func memAdapter[T models.Record](
	setID func(*T, int64),
	field func(T, string) string,
	apply func(*T, map[string]any),
) (*memPrimary[T], *memMirror[T], *dualstore.Adapter[T]) {
	primary := &memPrimary[T]{recs: map[int64]T{}, setID: setID, field: field, apply: apply}
	mirror := &memMirror[T]{recs: map[int64]T{}, field: field}
	return primary, mirror, dualstore.New[T](primary, mirror)
}

func noField[T models.Record](T, string) string   { return "" }
func noApply[T models.Record](*T, map[string]any) {}

// memUsers backs the credential service in handler tests.
type memUsers struct {
	nextID int64
	byName map[string]*models.User
}

func (m *memUsers) CountUsers(ctx context.Context) (int64, error) {
	return int64(len(m.byName)), nil
}

func (m *memUsers) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, ok := m.byName[username]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *memUsers) CreateUser(ctx context.Context, u *models.User) error {
	m.nextID++
	u.ID = m.nextID
	copied := *u
	m.byName[u.Username] = &copied
	return nil
}

type testApp struct {
	app             *App
	customerPrimary *memPrimary[models.Customer]
	customerMirror  *memMirror[models.Customer]
	users           *memUsers
}

func newTestApp() *testApp {
	customerField := func(c models.Customer, field string) string {
		switch field {
		case "name":
			return c.Name
		case "email":
			return c.Email
		}
		return ""
	}
	customerApply := func(c *models.Customer, patch map[string]any) {
		if v, ok := patch["name"].(string); ok {
			c.Name = v
		}
		if v, ok := patch["email"].(string); ok {
			c.Email = v
		}
	}

	cp, cm, customers := memAdapter[models.Customer](
		func(c *models.Customer, id int64) { c.ID = id }, customerField, customerApply)
	_, _, users := memAdapter[models.User](
		func(u *models.User, id int64) { u.ID = id }, noField[models.User], noApply[models.User])
	_, _, stylists := memAdapter[models.Stylist](
		func(s *models.Stylist, id int64) { s.ID = id }, noField[models.Stylist], noApply[models.Stylist])
	_, _, profiles := memAdapter[models.Profile](
		func(p *models.Profile, id int64) { p.ID = id }, noField[models.Profile], noApply[models.Profile])
	_, _, appointments := memAdapter[models.Appointment](
		func(a *models.Appointment, id int64) { a.ID = id }, noField[models.Appointment], noApply[models.Appointment])
	_, _, earnings := memAdapter[models.Earning](
		func(e *models.Earning, id int64) { e.ID = id }, noField[models.Earning], noApply[models.Earning])
	_, _, services := memAdapter[models.ServiceOffering](
		func(s *models.ServiceOffering, id int64) { s.ID = id }, noField[models.ServiceOffering], noApply[models.ServiceOffering])

	accounts := &memUsers{byName: map[string]*models.User{}}
	app := &App{
		config:       &Config{ServerPort: "0"},
		log:          zerolog.Nop(),
		creds:        auth.NewService(accounts, auth.NewMemoryRevocationList(), "test-secret"),
		customers:    customers,
		users:        users,
		stylists:     stylists,
		profiles:     profiles,
		appointments: appointments,
		earnings:     earnings,
		services:     services,
	}
	return &testApp{app: app, customerPrimary: cp, customerMirror: cm, users: accounts}
}

func (ta *testApp) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ta.app.router().ServeHTTP(rec, req)

	// Unmatched routes return mux's plain-text 404; everything the app
	// writes itself is JSON.
	var decoded map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func (ta *testApp) login(t *testing.T) string {
	t.Helper()

	creds := map[string]any{"username": "ana", "password": "hunter22"}
	rec, _ := ta.do(t, "POST", "/api/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := ta.do(t, "POST", "/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthIsOpen(t *testing.T) {
	ta := newTestApp()

	rec, body := ta.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestResourceRoutesRequireAuth(t *testing.T) {
	ta := newTestApp()

	rec, body := ta.do(t, "GET", "/api/customers/list", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["ok"])
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	ta := newTestApp()
	token := ta.login(t)

	rec, _ := ta.do(t, "GET", "/api/customers/list", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := ta.do(t, "POST", "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])

	rec, _ = ta.do(t, "GET", "/api/customers/list", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeIdentifiesCaller(t *testing.T) {
	ta := newTestApp()
	token := ta.login(t)

	rec, body := ta.do(t, "GET", "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", body["username"])
	assert.Equal(t, float64(1), body["id"])
}

func TestLoginDisabledAccountForbidden(t *testing.T) {
	ta := newTestApp()

	rec, _ := ta.do(t, "POST", "/api/auth/register", "", map[string]any{
		"username": "ana",
		"password": "hunter22",
		"enabled":  false,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := ta.do(t, "POST", "/api/auth/login", "", map[string]any{
		"username": "ana",
		"password": "hunter22",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, false, body["ok"])
}

func TestRegisterAccountCapRejected(t *testing.T) {
	ta := newTestApp()

	for i := 0; i < auth.MaxUsers; i++ {
		rec, _ := ta.do(t, "POST", "/api/auth/register", "", map[string]any{
			"username": fmt.Sprintf("staff%d", i),
			"password": "hunter22",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, _ := ta.do(t, "POST", "/api/auth/register", "", map[string]any{
		"username": "onetoomany",
		"password": "hunter22",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterSignsCallerIn(t *testing.T) {
	ta := newTestApp()

	rec, body := ta.do(t, "POST", "/api/auth/register", "", map[string]any{
		"username": "ana",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	// The issued token authorizes requests without a separate login.
	rec, _ = ta.do(t, "GET", "/api/customers/list", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginWrongPasswordBadRequest(t *testing.T) {
	ta := newTestApp()
	ta.login(t)

	rec, body := ta.do(t, "POST", "/api/auth/login", "", map[string]any{
		"username": "ana",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["ok"])
}

func TestCustomerLifecycle(t *testing.T) {
	ta := newTestApp()
	token := ta.login(t)

	rec, body := ta.do(t, "POST", "/api/customers/create", token, map[string]any{
		"name":  "Ana Torres",
		"email": "ana@salon.example",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "synced", body["sync"])
	created := body["local_result"].(map[string]any)
	assert.Equal(t, float64(1), created["id"])

	rec, body = ta.do(t, "GET", "/api/customers/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana Torres", body["name"])

	rec, body = ta.do(t, "PUT", "/api/customers/1", token, map[string]any{"name": "Ana Ruiz"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "synced", body["sync"])
	assert.Equal(t, "Ana Ruiz", ta.customerMirror.recs[1].Name)

	rec, body = ta.do(t, "GET", "/api/customers/search?name=ruiz", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["local_results"], 1)

	rec, body = ta.do(t, "DELETE", "/api/customers/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "synced", body["sync"])

	rec, _ = ta.do(t, "GET", "/api/customers/1", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateWithMirrorDownIsPrimaryOnly(t *testing.T) {
	ta := newTestApp()
	token := ta.login(t)
	ta.customerMirror.insertErr = errors.New("websocket closed")

	rec, body := ta.do(t, "POST", "/api/customers/create", token, map[string]any{
		"name": "Ana Torres",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "primary_only", body["sync"])
	assert.Contains(t, body["mirror_error"], "websocket closed")

	// The primary record exists and remains readable.
	rec, _ = ta.do(t, "GET", "/api/customers/1", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchWithoutRecognizedParams(t *testing.T) {
	ta := newTestApp()
	token := ta.login(t)

	rec, body := ta.do(t, "GET", "/api/customers/search?phone=555", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "name or email")
}

func TestUpdateMissingRecord(t *testing.T) {
	ta := newTestApp()
	token := ta.login(t)

	rec, body := ta.do(t, "PUT", "/api/customers/99", token, map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Record not found", body["error"])
}

func TestUpdateCannotReassignID(t *testing.T) {
	ta := newTestApp()
	token := ta.login(t)

	rec, _ := ta.do(t, "POST", "/api/customers/create", token, map[string]any{"name": "Ana"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := ta.do(t, "PUT", "/api/customers/1", token, map[string]any{"id": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Empty patch", body["error"])
}

func TestStatsRequiresDateRange(t *testing.T) {
	ta := newTestApp()
	token := ta.login(t)

	rec, body := ta.do(t, "GET", "/api/appointments/stats?from=2026-01-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "from and to")
}

func TestNonNumericIDFallsThrough(t *testing.T) {
	ta := newTestApp()
	token := ta.login(t)

	// The id routes only match digit segments; anything else is an
	// unknown path.
	rec, _ := ta.do(t, "GET", "/api/customers/abc", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
