package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/lessonrunner/internal/rbac"
)

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

func TestLoginRole(t *testing.T) {
	l := Login{
		LearnerPassHash: mustHash(t, "class-7"),
		AuthorUser:      "author",
		AuthorPassHash:  mustHash(t, "s3cret"),
	}
	cases := []struct {
		user, pw, want string
	}{
		{"alice", "class-7", rbac.RoleLearner},
		{"alice", "wrong", ""},
		{"author", "s3cret", rbac.RoleAuthor},
		{"author", "class-7", ""},
		{"_content", "class-7", ""},
		{"  ", "class-7", ""},
	}
	for _, tc := range cases {
		if got := l.Role(tc.user, tc.pw); got != tc.want {
			t.Errorf("Role(%q, %q) = %q, want %q", tc.user, tc.pw, got, tc.want)
		}
	}

	open := Login{AuthorUser: "author"}
	if got := open.Role("bob", ""); got != rbac.RoleLearner {
		t.Fatalf("open learner login = %q", got)
	}
	if got := open.Role("author", ""); got != "" {
		t.Fatalf("author without hash must be rejected, got %q", got)
	}
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("test-secret")
	tok, err := a.IssueJWT("alice", rbac.RoleLearner)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := a.Parse(tok)
	if err != nil || c.Sub != "alice" || c.Role != rbac.RoleLearner {
		t.Fatalf("parse: %+v %v", c, err)
	}

	if _, err := NewAuthService("other").Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign secret: %v", err)
	}

	a.now = func() time.Time { return time.Now().Add(9 * time.Hour) }
	if _, err := a.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}
}

func TestJWTMiddlewareAndAttachRole(t *testing.T) {
	a := NewAuthService("test-secret")
	var gotSub, gotRole string
	h := JWTMiddleware(a)(AttachRole([]string{"root"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attempt", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no bearer: %d", rec.Code)
	}

	for sub, want := range map[string]string{"alice": rbac.RoleLearner, "root": rbac.RoleAdmin} {
		tok, _ := a.IssueJWT(sub, rbac.RoleLearner)
		req := httptest.NewRequest(http.MethodGet, "/attempt", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || gotSub != sub || gotRole != want {
			t.Fatalf("%s: code=%d sub=%q role=%q", sub, rec.Code, gotSub, gotRole)
		}
	}
}

func TestLoginHandler(t *testing.T) {
	a := NewAuthService("test-secret")
	h := LoginHandler(a, Login{AuthorUser: "author"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice"}`)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "access_token") {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", rec.Code)
	}
}
