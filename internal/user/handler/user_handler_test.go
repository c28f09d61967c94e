package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okovalenko/hotel-microservice/internal/user/dto"
	"github.com/okovalenko/hotel-microservice/internal/user/models"
	"github.com/okovalenko/hotel-microservice/internal/user/service"
	"github.com/okovalenko/hotel-microservice/pkg/session"
)

// --- Mock UserService ---

type mockUserService struct {
	registerFn     func(ctx context.Context, input service.RegisterInput) (*models.User, error)
	authenticateFn func(ctx context.Context, login, password string) (*models.User, error)
	getFn          func(ctx context.Context, id uint) (*models.User, error)
	listFn         func(ctx context.Context) ([]models.User, error)
	updateFn       func(ctx context.Context, id uint, input service.UpdateUserInput) (*models.User, error)
}

func (m *mockUserService) Register(ctx context.Context, input service.RegisterInput) (*models.User, error) {
	return m.registerFn(ctx, input)
}
func (m *mockUserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	return m.authenticateFn(ctx, login, password)
}
func (m *mockUserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return m.getFn(ctx, id)
}
func (m *mockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return m.listFn(ctx)
}
func (m *mockUserService) UpdateUser(ctx context.Context, id uint, input service.UpdateUserInput) (*models.User, error) {
	return m.updateFn(ctx, id, input)
}
func (m *mockUserService) ApplyCompletion(ctx context.Context, userID uint, completedCount int64) error {
	return nil
}

// --- Fake session store ---

type fakeSessionStore struct {
	saved   map[string]*session.Session
	deleted []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{saved: map[string]*session.Session{}}
}

func (f *fakeSessionStore) Save(ctx context.Context, s *session.Session) error {
	f.saved[s.ID] = s
	return nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// --- UserHandler ---

func TestGetUser(t *testing.T) {
	phone := "+15550100"
	svc := &mockUserService{
		getFn: func(ctx context.Context, id uint) (*models.User, error) {
			assert.Equal(t, uint(1), id)
			return &models.User{
				ID:                       1,
				Login:                    "anna",
				Role:                     models.RoleUser,
				PhoneNumber:              &phone,
				TrustLevel:               2,
				ConsecutiveCancellations: 1,
			}, nil
		},
	}
	h := NewUserHandler(svc)

	c, rec := newTestContext(t, http.MethodGet, "/users/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.GetUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "anna", resp.Login)
	assert.Equal(t, 2, resp.TrustLevel)
	assert.Equal(t, 1, resp.ConsecutiveCancellations)
}

func TestGetUser_NotFound(t *testing.T) {
	svc := &mockUserService{
		getFn: func(ctx context.Context, id uint) (*models.User, error) {
			return nil, service.ErrUserNotFound
		},
	}
	h := NewUserHandler(svc)

	c, _ := newTestContext(t, http.MethodGet, "/users/99", "")
	c.SetParamNames("id")
	c.SetParamValues("99")

	err := h.GetUser(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestUpdateUser_EmptyBody(t *testing.T) {
	svc := &mockUserService{
		updateFn: func(ctx context.Context, id uint, input service.UpdateUserInput) (*models.User, error) {
			return nil, service.ErrEmptyUpdate
		},
	}
	h := NewUserHandler(svc)

	c, _ := newTestContext(t, http.MethodPatch, "/users/1", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := h.UpdateUser(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestUpdateUser_Patch(t *testing.T) {
	svc := &mockUserService{
		updateFn: func(ctx context.Context, id uint, input service.UpdateUserInput) (*models.User, error) {
			require.NotNil(t, input.TrustLevel)
			assert.Equal(t, 1, *input.TrustLevel)
			return &models.User{ID: id, Login: "anna", TrustLevel: 1}, nil
		},
	}
	h := NewUserHandler(svc)

	c, rec := newTestContext(t, http.MethodPatch, "/users/1", `{"trust_level":1}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.UpdateUser(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- AuthHandler ---

func TestLogin_SetsSessionAndCookie(t *testing.T) {
	phone := "+15550100"
	svc := &mockUserService{
		authenticateFn: func(ctx context.Context, login, password string) (*models.User, error) {
			assert.Equal(t, "anna", login)
			return &models.User{ID: 1, Login: "anna", Role: models.RoleUser, TrustLevel: 2, PhoneNumber: &phone}, nil
		},
	}
	store := newFakeSessionStore()
	h := NewAuthHandler(svc, store)

	c, rec := newTestContext(t, http.MethodPost, "/login", `{"login":"anna","password":"secret"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, store.saved, 1)
	for _, sess := range store.saved {
		id, ok := sess.UserID()
		assert.True(t, ok)
		assert.Equal(t, uint(1), id)
		assert.Equal(t, 2, sess.TrustLevel())
		assert.Equal(t, phone, sess.PhoneNumber())
	}

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := &mockUserService{
		authenticateFn: func(ctx context.Context, login, password string) (*models.User, error) {
			return nil, service.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(svc, newFakeSessionStore())

	c, _ := newTestContext(t, http.MethodPost, "/login", `{"login":"anna","password":"wrong"}`)
	err := h.Login(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRegister_Conflict(t *testing.T) {
	svc := &mockUserService{
		registerFn: func(ctx context.Context, input service.RegisterInput) (*models.User, error) {
			return nil, service.ErrLoginTaken
		},
	}
	h := NewAuthHandler(svc, newFakeSessionStore())

	c, _ := newTestContext(t, http.MethodPost, "/registration", `{"login":"anna","password":"secret"}`)
	err := h.Register(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Code)
}

func TestRegister_MissingFields(t *testing.T) {
	h := NewAuthHandler(&mockUserService{}, newFakeSessionStore())

	c, _ := newTestContext(t, http.MethodPost, "/registration", `{"login":"anna"}`)
	err := h.Register(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestLogout_ExpiresCookie(t *testing.T) {
	h := NewAuthHandler(&mockUserService{}, newFakeSessionStore())

	c, rec := newTestContext(t, http.MethodGet, "/logout", "")
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
