package creatorgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tipfinity/crypto"
)

type fixedPrice float64

func (p fixedPrice) NativeUSD(context.Context) float64 { return float64(p) }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func newTestServer(t *testing.T) (*Server, *Store) {
	t.Helper()
	store, err := NewStore(setupTestDB(t))
	require.NoError(t, err)
	sessions := NewSessions(SessionConfig{Secret: strings.Repeat("s", 32), Issuer: "test", TTL: time.Hour})
	srv, err := NewServer(store, sessions, fixedPrice(142.5), nil)
	require.NoError(t, err)
	return srv, store
}

func testWallet(t *testing.T) string {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	return key.PubKey().Address().String()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}, headers map[string]string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestLinkWalletOnboardingFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	wallet := testWallet(t)

	status, env := do(t, h, http.MethodPost, "/wallet/link", map[string]string{"wallet_address": wallet}, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Email required for new wallet onboarding", env.Error)

	status, env = do(t, h, http.MethodPost, "/wallet/link", map[string]string{
		"wallet_address": wallet,
		"email":          "  Alice@Example.COM ",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	var created linkWalletResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "New creator registered successfully", created.Message)
	require.Regexp(t, `^user\d+$`, created.Username)
	require.Equal(t, wallet, created.WalletAddress)
	require.NotEmpty(t, created.SessionToken)

	status, env = do(t, h, http.MethodPost, "/wallet/link", map[string]string{"wallet_address": wallet}, nil)
	require.Equal(t, http.StatusOK, status)
	var login linkWalletResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.Equal(t, "Wallet login successful", login.Message)
	require.Equal(t, created.CreatorID, login.CreatorID)
	require.Equal(t, "alice@example.com", login.Email)

	upper := strings.ToUpper(wallet)
	status, env = do(t, h, http.MethodPost, "/wallet/link", map[string]string{"wallet_address": "  " + upper + " "}, nil)
	require.Equal(t, http.StatusOK, status)
	var relogin linkWalletResponse
	require.NoError(t, json.Unmarshal(env.Data, &relogin))
	require.Equal(t, created.CreatorID, relogin.CreatorID)
	require.Equal(t, wallet, relogin.WalletAddress)

	status, _ = do(t, h, http.MethodPost, "/wallet/link", map[string]string{"wallet_address": upper, "email": "b@example.com"}, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = do(t, h, http.MethodGet, "/profile", nil, map[string]string{"Authorization": "Bearer " + login.SessionToken})
	require.Equal(t, http.StatusOK, status)
	var profile Profile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	require.Equal(t, created.Username, profile.Username)
}

func TestLinkWalletRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	status, env := do(t, h, http.MethodPost, "/wallet/link", map[string]string{"wallet_address": "0xdeadbeef", "email": "a@b.co"}, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid wallet address", env.Error)

	status, env = do(t, h, http.MethodPost, "/wallet/link", map[string]string{"wallet_address": testWallet(t), "email": "not-an-email"}, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, env.Error, "invalid email")

	first := testWallet(t)
	status, _ = do(t, h, http.MethodPost, "/wallet/link", map[string]string{"wallet_address": first, "email": "dup@example.com"}, nil)
	require.Equal(t, http.StatusCreated, status)
	status, env = do(t, h, http.MethodPost, "/wallet/link", map[string]string{"wallet_address": testWallet(t), "email": "DUP@example.com"}, nil)
	require.Equal(t, http.StatusConflict, status)
	require.False(t, env.Success)
}

func TestCreateProfileRetriesUsernameCollision(t *testing.T) {
	_, store := newTestServer(t)
	names := []string{"user7", "user7", "user8"}
	store.usernameFn = func() (string, error) {
		name := names[0]
		names = names[1:]
		return name, nil
	}
	ctx := context.Background()
	first, err := store.CreateProfile(ctx, testWallet(t), "one@example.com")
	require.NoError(t, err)
	require.Equal(t, "user7", first.Username)
	second, err := store.CreateProfile(ctx, testWallet(t), "two@example.com")
	require.NoError(t, err)
	require.Equal(t, "user8", second.Username)
}

func TestNativePrice(t *testing.T) {
	srv, _ := newTestServer(t)
	status, env := do(t, srv.Handler(), http.MethodGet, "/price/native", nil, nil)
	require.Equal(t, http.StatusOK, status)
	var body map[string]float64
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Equal(t, 142.5, body["usd"])
}

func TestProfileRequiresValidSession(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	status, _ := do(t, h, http.MethodGet, "/profile", nil, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	other := NewSessions(SessionConfig{Secret: strings.Repeat("x", 32), Issuer: "test", TTL: time.Hour})
	token, _, err := other.Issue(&Profile{ID: uuid.New(), WalletAddress: testWallet(t)})
	require.NoError(t, err)
	status, _ = do(t, h, http.MethodGet, "/profile", nil, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestSessionExpiry(t *testing.T) {
	sessions := NewSessions(SessionConfig{Secret: strings.Repeat("s", 32), Issuer: "test", TTL: time.Minute})
	now := time.Unix(1_700_000_000, 0)
	sessions.nowFn = func() time.Time { return now }
	profile := &Profile{ID: uuid.New(), WalletAddress: "tip1wallet"}
	token, _, err := sessions.Issue(profile)
	require.NoError(t, err)

	id, claims, err := sessions.Verify(token)
	require.NoError(t, err)
	require.Equal(t, profile.ID, id)
	require.Equal(t, "tip1wallet", claims.Wallet)

	now = now.Add(2 * time.Minute)
	_, _, err = sessions.Verify(token)
	require.Error(t, err)
}

func TestNormalizeEmail(t *testing.T) {
	// "é" as e + combining acute composes to U+00E9 under NFC.
	got, err := normalizeEmail("  René@Example.com")
	require.NoError(t, err)
	require.Equal(t, "rené@example.com", got)

	_, err = normalizeEmail("   ")
	require.Error(t, err)
	_, err = normalizeEmail("Bob <bob@example.com>")
	require.Error(t, err)
}
