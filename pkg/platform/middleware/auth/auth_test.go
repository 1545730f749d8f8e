package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "dashgate/pkg/domain"
	"dashgate/pkg/requestcontext"
)

const cookieName = "__session"

type MockSessionResolver struct {
	mock.Mock
}

func (m *MockSessionResolver) Resolve(tokenString string) (requestcontext.Session, error) {
	args := m.Called(tokenString)
	return args.Get(0).(requestcontext.Session), args.Error(1)
}

type MockRevocationChecker struct {
	mock.Mock
}

func (m *MockRevocationChecker) IsSessionRevoked(ctx context.Context, sessionID id.SessionID) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

// mockHandler captures whether it was called and the context it saw.
type mockHandler struct {
	called  bool
	context context.Context
}

func (m *mockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.called = true
	m.context = r.Context()
	w.WriteHeader(http.StatusOK)
}

type AuthMiddlewareTestSuite struct {
	suite.Suite
	resolver    *MockSessionResolver
	revoker     *MockRevocationChecker
	logger      *slog.Logger
	nextHandler *mockHandler
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareTestSuite))
}

func (s *AuthMiddlewareTestSuite) SetupTest() {
	s.resolver = new(MockSessionResolver)
	s.revoker = new(MockRevocationChecker)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.nextHandler = &mockHandler{}
}

func (s *AuthMiddlewareTestSuite) TearDownTest() {
	s.resolver.AssertExpectations(s.T())
	s.revoker.AssertExpectations(s.T())
}

func (s *AuthMiddlewareTestSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	handler := ResolveSession(s.resolver, s.revoker, cookieName, s.logger)(s.nextHandler)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func validSession() requestcontext.Session {
	return requestcontext.Session{PrincipalID: "user_1", SessionID: "sess_1", Role: "admin"}
}

func (s *AuthMiddlewareTestSuite) TestBearerToken() {
	s.resolver.On("Resolve", "valid-token").Return(validSession(), nil)
	s.revoker.On("IsSessionRevoked", mock.Anything, id.SessionID("sess_1")).Return(false, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := s.serve(req)

	require.True(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	session, ok := requestcontext.SessionFrom(s.nextHandler.context)
	require.True(s.T(), ok)
	assert.Equal(s.T(), "user_1", session.PrincipalID.String())
	assert.True(s.T(), session.IsAdmin())
}

func (s *AuthMiddlewareTestSuite) TestSessionCookie() {
	s.resolver.On("Resolve", "cookie-token").Return(validSession(), nil)
	s.revoker.On("IsSessionRevoked", mock.Anything, id.SessionID("sess_1")).Return(false, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "cookie-token"})
	s.serve(req)

	_, ok := requestcontext.SessionFrom(s.nextHandler.context)
	assert.True(s.T(), ok)
}

func (s *AuthMiddlewareTestSuite) TestNoTokenPassesAnonymous() {
	s.serve(httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(s.T(), s.nextHandler.called)
	_, ok := requestcontext.SessionFrom(s.nextHandler.context)
	assert.False(s.T(), ok)
}

func (s *AuthMiddlewareTestSuite) TestInvalidTokenPassesAnonymous() {
	s.resolver.On("Resolve", "bad").Return(requestcontext.Session{}, errors.New("invalid token"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	s.serve(req)

	require.True(s.T(), s.nextHandler.called)
	_, ok := requestcontext.SessionFrom(s.nextHandler.context)
	assert.False(s.T(), ok)
}

func (s *AuthMiddlewareTestSuite) TestRevokedSessionIsDropped() {
	s.resolver.On("Resolve", "valid-token").Return(validSession(), nil)
	s.revoker.On("IsSessionRevoked", mock.Anything, id.SessionID("sess_1")).Return(true, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	s.serve(req)

	_, ok := requestcontext.SessionFrom(s.nextHandler.context)
	assert.False(s.T(), ok)
}

func (s *AuthMiddlewareTestSuite) TestRevocationErrorFailsClosed() {
	s.resolver.On("Resolve", "valid-token").Return(validSession(), nil)
	s.revoker.On("IsSessionRevoked", mock.Anything, id.SessionID("sess_1")).Return(false, errors.New("redis down"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	s.serve(req)

	_, ok := requestcontext.SessionFrom(s.nextHandler.context)
	assert.False(s.T(), ok)
}

func (s *AuthMiddlewareTestSuite) TestRequireSession() {
	handler := RequireSession(s.logger)(s.nextHandler)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/account", nil))
	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.JSONEq(s.T(), `{"error":"unauthorized","error_description":"Sign in required"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/admin/account", nil)
	req = req.WithContext(requestcontext.WithSession(req.Context(), validSession()))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.True(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusOK, w.Code)
}
