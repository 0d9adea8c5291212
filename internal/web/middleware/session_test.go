package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/workflow"
)

func testPageFactory(mounted *int) PageFactory {
	return func(ctx context.Context) *workflow.Page {
		*mounted++
		return workflow.Mount(ctx, nil, nil, workflow.PageOptions{})
	}
}

func TestSessionManager_CreateSession(t *testing.T) {
	mounted := 0
	sm := NewSessionManager("test-secret", testPageFactory(&mounted))
	defer sm.Stop()

	session, err := sm.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if session.ID == "" {
		t.Error("session ID is empty")
	}
	if session.Page == nil {
		t.Error("session page not mounted")
	}
	if mounted != 1 {
		t.Errorf("expected 1 mount, got %d", mounted)
	}
	if session.ExpiresAt.Before(time.Now()) {
		t.Error("session expires in the past")
	}
	if sm.Count() != 1 {
		t.Errorf("Count() = %d, want 1", sm.Count())
	}
}

func TestSessionManager_GetAndDeleteSession(t *testing.T) {
	mounted := 0
	sm := NewSessionManager("test-secret", testPageFactory(&mounted))
	defer sm.Stop()

	session, _ := sm.CreateSession(context.Background())
	session.Page.UI.SetStudentID("S1")

	if got := sm.GetSession(session.ID); got != session {
		t.Fatal("GetSession() did not return the created session")
	}
	if sm.GetSession("nonexistent-id") != nil {
		t.Error("GetSession() should return nil for unknown id")
	}

	sm.DeleteSession(session.ID)
	if sm.GetSession(session.ID) != nil {
		t.Error("GetSession() should return nil after deletion")
	}
	if session.Page.UI.StudentID() != "" {
		t.Error("expected page state cleared on delete")
	}
}

func TestSessionManager_ExpiredSession(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	session, _ := sm.CreateSession(context.Background())
	sm.mu.Lock()
	session.ExpiresAt = time.Now().Add(-time.Minute)
	sm.mu.Unlock()

	if sm.GetSession(session.ID) != nil {
		t.Error("expected expired session to be ignored")
	}

	sm.cleanupExpired()
	if sm.Count() != 0 {
		t.Errorf("expected expired session removed, got %d", sm.Count())
	}
}

func TestSessionManager_SetAndGetSessionCookie(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()
	session, _ := sm.CreateSession(context.Background())

	recorder := httptest.NewRecorder()
	sm.SetSessionCookie(recorder, session)

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].Name != sessionCookieName {
		t.Errorf("cookie name = %s, want %s", cookies[0].Name, sessionCookieName)
	}
	if !cookies[0].HttpOnly {
		t.Error("cookie should be HttpOnly")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	if got := sm.GetSessionFromRequest(req); got == nil || got.ID != session.ID {
		t.Errorf("GetSessionFromRequest() = %v, want session %s", got, session.ID)
	}
}

func TestSessionManager_InvalidCookie(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()
	session, _ := sm.CreateSession(context.Background())

	for _, value := range []string{"garbage", session.ID + ".bad-signature", session.ID} {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: value})
		if sm.GetSessionFromRequest(req) != nil {
			t.Errorf("cookie %q should not resolve to a session", value)
		}
	}

	// A cookie signed with another secret is rejected.
	other := NewSessionManager("other-secret", nil)
	defer other.Stop()
	recorder := httptest.NewRecorder()
	other.SetSessionCookie(recorder, session)
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(recorder.Result().Cookies()[0])
	if sm.GetSessionFromRequest(req) != nil {
		t.Error("cookie signed with a different secret should be rejected")
	}
}

func TestSessionManager_ClearSessionCookie(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	recorder := httptest.NewRecorder()
	sm.ClearSessionCookie(recorder)

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1", cookies[0].MaxAge)
	}
}

func TestWithSession(t *testing.T) {
	mounted := 0
	sm := NewSessionManager("test-secret", testPageFactory(&mounted))
	defer sm.Stop()

	var seen *Session
	handler := WithSession(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// First visit creates a session and sets the cookie.
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))
	if seen == nil {
		t.Fatal("expected session in context")
	}
	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected session cookie, got %d cookies", len(cookies))
	}
	first := seen

	// Second visit with the cookie reuses it.
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if seen != first {
		t.Error("expected the same session on the second visit")
	}
	if len(recorder.Result().Cookies()) != 0 {
		t.Error("expected no new cookie for an existing session")
	}
	if mounted != 1 {
		t.Errorf("expected 1 mounted page, got %d", mounted)
	}
}

func TestGetSessionFromContext(t *testing.T) {
	if GetSessionFromContext(context.Background()) != nil {
		t.Error("expected nil without a session")
	}
	session := &Session{ID: "abc"}
	ctx := SetSessionInContext(context.Background(), session)
	if GetSessionFromContext(ctx) != session {
		t.Error("expected session from context")
	}
}
