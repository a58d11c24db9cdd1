package usecase

import (
	"context"
	"testing"

	"room-booking/internal/data/entity"
	"room-booking/internal/dto/request"
	"room-booking/internal/gateway/wechat"
	"room-booking/pkg/apperr"

	"github.com/pashagolub/pgxmock/v4"
	"go.uber.org/zap"
)

type accountFixture struct {
	st       *store
	mock     pgxmock.PgxPoolIface
	identity *fakeIdentity
	accounts AccountService
	sessions SessionService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	st := newStore()
	mock := newMockDB(t)
	repo := st.repository()
	issuer := newIssuer()
	identity := &fakeIdentity{session: &wechat.Session{OpenID: "openid-42", UnionID: "union-42"}}

	sessions := NewSessionService(mock, repo, issuer, zap.NewNop())
	return &accountFixture{
		st:       st,
		mock:     mock,
		identity: identity,
		accounts: NewAccountService(mock, repo, identity, issuer, sessions, zap.NewNop()),
		sessions: sessions,
	}
}

func loginRequest(nickname string) *request.LoginRequest {
	return &request.LoginRequest{
		Code:      "0a3Xyz",
		Nickname:  nickname,
		AvatarURL: "https://thirdwx.qlogo.cn/a.png",
		Gender:    1,
	}
}

func TestLoginCreatesThenUpdates(t *testing.T) {
	f := newAccountFixture(t)
	meta := SessionMeta{IPAddress: "10.0.0.1", UserAgent: "miniprogram"}

	expectTx(f.mock, true)
	first, err := f.accounts.Login(context.Background(), loginRequest("Mei"), meta)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if first.Action != ActionCreated {
		t.Errorf("Action = %q; want %q", first.Action, ActionCreated)
	}
	if first.User.OpenID != "openid-42" || first.User.UnionID == nil || *first.User.UnionID != "union-42" {
		t.Errorf("user keys = %q/%v; want openid-42/union-42", first.User.OpenID, first.User.UnionID)
	}

	expectTx(f.mock, true)
	second, err := f.accounts.Login(context.Background(), loginRequest("Mei Lin"), meta)
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}
	if second.Action != ActionUpdated {
		t.Errorf("Action = %q; want %q", second.Action, ActionUpdated)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("second login resolved %s; want %s", second.User.ID, first.User.ID)
	}
	if second.User.Nickname != "Mei Lin" {
		t.Errorf("Nickname = %q; want updated profile", second.User.Nickname)
	}

	if n := len(f.st.users); n != 1 {
		t.Errorf("stored users = %d; want 1", n)
	}
	if n := len(f.st.sessions); n != 2 {
		t.Errorf("stored sessions = %d; want 2", n)
	}
	if len(f.st.audits) != 2 || f.st.audits[0].Action != entity.AuditActionLoginCreated || f.st.audits[1].Action != entity.AuditActionLoginUpdated {
		t.Errorf("audit trail = %+v; want created then updated", f.st.audits)
	}

	if !f.sessions.Validate(context.Background(), second.User.ID, second.Tokens.AccessToken) {
		t.Error("Validate() = false for a fresh login token")
	}
}

func TestResolveOrCreateValidatesBeforeStorage(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		profile  entity.Profile
		field    string
	}{
		{name: "no openid", identity: Identity{}, profile: entity.Profile{Nickname: "Mei", AvatarURL: "a"}, field: "openid"},
		{name: "no nickname", identity: Identity{OpenID: "o"}, profile: entity.Profile{Nickname: "  ", AvatarURL: "a"}, field: "nickname"},
		{name: "no avatar", identity: Identity{OpenID: "o"}, profile: entity.Profile{Nickname: "Mei"}, field: "avatar_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccountFixture(t)
			_, err := f.accounts.ResolveOrCreate(context.Background(), tt.identity, tt.profile, SessionMeta{})
			e, ok := apperr.As(err)
			if !ok || e.Kind != apperr.KindValidation {
				t.Fatalf("error = %v; want validation_error", err)
			}
			if _, ok := e.Fields[tt.field]; !ok {
				t.Errorf("Fields = %v; want entry for %s", e.Fields, tt.field)
			}
		})
	}
}

func TestResolveOrCreateRejectsDisabledAccount(t *testing.T) {
	f := newAccountFixture(t)
	user := f.st.addUser("openid-42")
	f.st.users[user.ID].IsDeleted = true

	expectTx(f.mock, false)
	_, err := f.accounts.ResolveOrCreate(context.Background(), Identity{OpenID: "openid-42"},
		entity.Profile{Nickname: "Mei", AvatarURL: "a"}, SessionMeta{})
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Errorf("error = %v; want invalid_state", err)
	}
}

func TestLoginIdentityFailure(t *testing.T) {
	f := newAccountFixture(t)
	f.identity.err = apperr.New(apperr.KindIdentityProvider, "WeChat login failed: 40029 invalid code")

	_, err := f.accounts.Login(context.Background(), loginRequest("Mei"), SessionMeta{})
	if !apperr.Is(err, apperr.KindIdentityProvider) {
		t.Errorf("error = %v; want identity_provider_error", err)
	}
	if len(f.st.users) != 0 {
		t.Error("user stored despite failed identity exchange")
	}
}

func TestDeleteUser(t *testing.T) {
	f := newAccountFixture(t)

	expectTx(f.mock, true)
	res, err := f.accounts.Login(context.Background(), loginRequest("Mei"), SessionMeta{})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	expectTx(f.mock, true)
	if err := f.accounts.DeleteUser(context.Background(), res.User.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if u := f.st.users[res.User.ID]; !u.IsDeleted || u.IsActive {
		t.Errorf("user flags deleted=%v active=%v; want soft-deleted", u.IsDeleted, u.IsActive)
	}
	if f.sessions.Validate(context.Background(), res.User.ID, res.Tokens.AccessToken) {
		t.Error("session still valid after delete")
	}

	expectTx(f.mock, false)
	if err := f.accounts.DeleteUser(context.Background(), res.User.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("second DeleteUser() error = %v; want not_found", err)
	}
}
