package usecase

import (
	"context"
	"testing"
	"time"

	"room-booking/internal/data/entity"
	"room-booking/pkg/apperr"
	"room-booking/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestSessionValidate(t *testing.T) {
	st := newStore()
	mock := newMockDB(t)
	issuer := newIssuer()
	svc := NewSessionService(mock, st.repository(), issuer, zap.NewNop())
	user := st.addUser("openid-1")

	pair, err := issuer.Issue(user.ID, user.OpenID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := svc.CreateSession(context.Background(), mock, user.ID, pair, SessionMeta{IPAddress: "10.0.0.1"}); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	orphan, _ := issuer.Issue(user.ID, user.OpenID)
	foreign := token.NewIssuer("other-secret", "room-booking", time.Hour, time.Hour)
	forged, _ := foreign.Issue(user.ID, user.OpenID)

	tests := []struct {
		name   string
		userID uuid.UUID
		token  string
		want   bool
	}{
		{name: "live session", userID: user.ID, token: pair.AccessToken, want: true},
		{name: "refresh token as access", userID: user.ID, token: pair.RefreshToken, want: false},
		{name: "other user", userID: uuid.New(), token: pair.AccessToken, want: false},
		{name: "valid token without row", userID: user.ID, token: orphan.AccessToken, want: false},
		{name: "bad signature", userID: user.ID, token: forged.AccessToken, want: false},
		{name: "garbage", userID: user.ID, token: "not-a-jwt", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.Validate(context.Background(), tt.userID, tt.token); got != tt.want {
				t.Errorf("Validate() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestSessionCreatePurgesExpired(t *testing.T) {
	st := newStore()
	mock := newMockDB(t)
	svc := NewSessionService(mock, st.repository(), newIssuer(), zap.NewNop())
	userID := uuid.New()

	stale := &entity.Session{
		BaseSimple: entity.NewBaseSimple(time.Now().Add(-3 * time.Hour)),
		UserID:     userID,
		Token:      "old",
		ExpiresAt:  time.Now().Add(-time.Hour),
		IsActive:   true,
	}
	st.sessions[stale.ID] = stale

	pair, _ := newIssuer().Issue(userID, "o")
	if _, err := svc.CreateSession(context.Background(), mock, userID, pair, SessionMeta{}); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if _, ok := st.sessions[stale.ID]; ok {
		t.Error("expired session not purged")
	}
	if len(st.sessions) != 1 {
		t.Errorf("sessions = %d; want 1", len(st.sessions))
	}
}

func TestSessionCreateKeepsRefreshableSessions(t *testing.T) {
	st := newStore()
	mock := newMockDB(t)
	issuer := newIssuer()
	svc := NewSessionService(mock, st.repository(), issuer, zap.NewNop())
	user := st.addUser("openid-1")

	first, _ := issuer.Issue(user.ID, user.OpenID)
	session, err := svc.CreateSession(context.Background(), mock, user.ID, first, SessionMeta{})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	// access token lapsed, refresh token still valid
	st.sessions[session.ID].ExpiresAt = time.Now().Add(-time.Minute)

	second, _ := issuer.Issue(user.ID, user.OpenID)
	if _, err := svc.CreateSession(context.Background(), mock, user.ID, second, SessionMeta{}); err != nil {
		t.Fatalf("second CreateSession() error = %v", err)
	}
	if _, ok := st.sessions[session.ID]; !ok {
		t.Fatal("refreshable session purged by a later login")
	}

	expectTx(mock, true)
	if _, err := svc.Refresh(context.Background(), first.RefreshToken); err != nil {
		t.Errorf("Refresh() of the first device error = %v; want rotated tokens", err)
	}
}

func TestSessionLogout(t *testing.T) {
	st := newStore()
	mock := newMockDB(t)
	issuer := newIssuer()
	svc := NewSessionService(mock, st.repository(), issuer, zap.NewNop())
	user := st.addUser("openid-1")

	pair, _ := issuer.Issue(user.ID, user.OpenID)
	session, err := svc.CreateSession(context.Background(), mock, user.ID, pair, SessionMeta{})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	for i, want := range []bool{true, false} {
		got, err := svc.Logout(context.Background(), user.ID, pair.AccessToken)
		if err != nil {
			t.Fatalf("Logout() #%d error = %v", i+1, err)
		}
		if got != want {
			t.Errorf("Logout() #%d = %v; want %v", i+1, got, want)
		}
	}

	stored := st.sessions[session.ID]
	if stored.IsActive || stored.RefreshToken != nil {
		t.Errorf("session after logout = active %v refresh %v; want cleared", stored.IsActive, stored.RefreshToken)
	}
	if svc.Validate(context.Background(), user.ID, pair.AccessToken) {
		t.Error("Validate() = true after logout")
	}
}

func TestSessionRefreshRotates(t *testing.T) {
	st := newStore()
	mock := newMockDB(t)
	issuer := newIssuer()
	svc := NewSessionService(mock, st.repository(), issuer, zap.NewNop())
	user := st.addUser("openid-1")

	pair, _ := issuer.Issue(user.ID, user.OpenID)
	if _, err := svc.CreateSession(context.Background(), mock, user.ID, pair, SessionMeta{}); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	expectTx(mock, true)
	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if rotated.AccessToken == pair.AccessToken || rotated.RefreshToken == pair.RefreshToken {
		t.Error("Refresh() returned the old tokens")
	}
	if !svc.Validate(context.Background(), user.ID, rotated.AccessToken) {
		t.Error("rotated access token does not validate")
	}
	if svc.Validate(context.Background(), user.ID, pair.AccessToken) {
		t.Error("old access token still validates")
	}

	expectTx(mock, false)
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !apperr.Is(err, apperr.KindInvalidToken) {
		t.Errorf("reused refresh token error = %v; want invalid_token", err)
	}

	if _, err := svc.Refresh(context.Background(), rotated.AccessToken); !apperr.Is(err, apperr.KindInvalidToken) {
		t.Errorf("access token as refresh error = %v; want invalid_token", err)
	}
}

func TestAuthenticate(t *testing.T) {
	st := newStore()
	mock := newMockDB(t)
	issuer := newIssuer()
	svc := NewSessionService(mock, st.repository(), issuer, zap.NewNop())
	user := st.addUser("openid-1")
	st.users[user.ID].Role = entity.RoleAdmin

	pair, _ := issuer.Issue(user.ID, user.OpenID)
	if _, err := svc.CreateSession(context.Background(), mock, user.ID, pair, SessionMeta{}); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	p, err := svc.Authenticate(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if p.UserID != user.ID || p.Role != entity.RoleAdmin {
		t.Errorf("principal = %+v; want admin %s", p, user.ID)
	}

	st.users[user.ID].IsActive = false
	if _, err := svc.Authenticate(context.Background(), pair.AccessToken); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Errorf("Authenticate(inactive) error = %v; want unauthorized", err)
	}
	if _, err := svc.Authenticate(context.Background(), "junk"); !apperr.Is(err, apperr.KindInvalidToken) {
		t.Errorf("Authenticate(junk) error = %v; want invalid_token", err)
	}
}
