package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pliu/nexuschat/internal/accounts"
	"github.com/pliu/nexuschat/internal/auth"
	"github.com/pliu/nexuschat/internal/chats"
	"github.com/pliu/nexuschat/internal/profile"
	"github.com/pliu/nexuschat/internal/store"
	"github.com/pliu/nexuschat/internal/store/sqlstore"
)

// newTestDeps builds the services over a seeded in-memory store.
func newTestDeps(t *testing.T) Deps {
	t.Helper()
	s, err := sqlstore.New("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = store.Init(s)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	seq := store.NewSequence(s, time.Now)
	dir := accounts.NewDirectory(s, seq, log)

	return Deps{
		Accounts: dir,
		Ledger:   chats.NewLedger(s, dir, seq, time.Now, log),
		Profile:  profile.NewService(dir, s),
		Signer:   auth.NewSigner("test-secret"),
		Log:      log,
	}
}

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	return NewRouter(newTestDeps(t))
}

func do(t *testing.T, h http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatalf("response set no %s cookie", auth.CookieName)
	return nil
}

// login authenticates a seeded account and returns its cookie.
func login(t *testing.T, h http.Handler, handle string) *http.Cookie {
	t.Helper()
	rr := do(t, h, "POST", "/login", Credentials{Handle: handle, Credential: "password123"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return sessionCookie(t, rr)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v))
}
