package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is the lifetime of ID tokens minted by IDToken and FakeIdentity.
const TokenTTL = time.Hour

// IDToken mints an HS256 ID token carrying the given profile claims. The
// signature is not meant to be verified.
func IDToken(t *testing.T, email, name, picture string, issuedAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   uuid.NewString(),
		"email": email,
		"iat":   issuedAt.Unix(),
		"exp":   issuedAt.Add(TokenTTL).Unix(),
	}
	if name != "" {
		claims["name"] = name
	}
	if picture != "" {
		claims["picture"] = picture
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("testutil.IDToken: %v", err)
	}
	return s
}

type identityAccount struct {
	password string
	name     string
	photo    string
}

// FakeIdentity is an httptest identity provider speaking the accounts:*
// endpoints used by auth.HTTPProvider.
type FakeIdentity struct {
	Server *httptest.Server
	Now    func() time.Time

	t        *testing.T
	mu       sync.Mutex
	accounts map[string]*identityAccount
	apiKeys  []string
}

// NewFakeIdentity starts a fake identity provider closed at test cleanup.
func NewFakeIdentity(t *testing.T) *FakeIdentity {
	t.Helper()
	f := &FakeIdentity{
		Now:      time.Now,
		t:        t,
		accounts: make(map[string]*identityAccount),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /accounts:signUp", f.handleSignUp)
	mux.HandleFunc("POST /accounts:signIn", f.handleSignIn)
	mux.HandleFunc("POST /accounts:update", f.handleUpdate)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the provider base URL.
func (f *FakeIdentity) URL() string {
	return f.Server.URL
}

// AddAccount registers an account directly.
func (f *FakeIdentity) AddAccount(email, password, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = &identityAccount{password: password, name: name}
}

// APIKeys returns the key query parameter of every request.
func (f *FakeIdentity) APIKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.apiKeys...)
}

type identityRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	IDToken     string `json:"idToken"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
}

func (f *FakeIdentity) decode(w http.ResponseWriter, r *http.Request) (identityRequest, bool) {
	f.mu.Lock()
	f.apiKeys = append(f.apiKeys, r.URL.Query().Get("key"))
	f.mu.Unlock()

	var req identityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		identityError(w, "INVALID_REQUEST")
		return req, false
	}
	return req, true
}

func (f *FakeIdentity) handleSignUp(w http.ResponseWriter, r *http.Request) {
	req, ok := f.decode(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	_, exists := f.accounts[req.Email]
	if !exists {
		f.accounts[req.Email] = &identityAccount{password: req.Password}
	}
	f.mu.Unlock()
	if exists {
		identityError(w, "EMAIL_EXISTS")
		return
	}
	f.respond(w, req.Email)
}

func (f *FakeIdentity) handleSignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := f.decode(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	acct, exists := f.accounts[req.Email]
	f.mu.Unlock()
	if !exists || acct.password != req.Password {
		identityError(w, "INVALID_LOGIN_CREDENTIALS")
		return
	}
	f.respond(w, req.Email)
}

func (f *FakeIdentity) handleUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := f.decode(w, r)
	if !ok {
		return
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(req.IDToken, claims); err != nil {
		identityError(w, "INVALID_ID_TOKEN")
		return
	}
	email, _ := claims["email"].(string)

	f.mu.Lock()
	acct, exists := f.accounts[email]
	if exists {
		acct.name = req.DisplayName
		acct.photo = req.PhotoURL
	}
	f.mu.Unlock()
	if !exists {
		identityError(w, "USER_NOT_FOUND")
		return
	}
	f.respond(w, email)
}

func (f *FakeIdentity) respond(w http.ResponseWriter, email string) {
	f.mu.Lock()
	acct := f.accounts[email]
	name, photo := acct.name, acct.photo
	f.mu.Unlock()

	writeFakeJSON(w, http.StatusOK, map[string]string{
		"localId":      strings.ReplaceAll(email, "@", "_"),
		"email":        email,
		"idToken":      IDToken(f.t, email, name, photo, f.Now()),
		"refreshToken": "refresh-" + email,
		"expiresIn":    "3600",
	})
}

func identityError(w http.ResponseWriter, code string) {
	writeFakeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{"code": http.StatusBadRequest, "message": code},
	})
}
