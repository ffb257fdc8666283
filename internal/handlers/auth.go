package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pliu/nexuschat/internal/accounts"
	"github.com/pliu/nexuschat/internal/apperr"
	"github.com/pliu/nexuschat/internal/auth"
	"github.com/pliu/nexuschat/internal/middleware"
	"github.com/pliu/nexuschat/internal/models"
	"github.com/pliu/nexuschat/internal/ws"
)

type Credentials struct {
	Handle     string `json:"handle"`
	Credential string `json:"credential"`
}

type AuthHandler struct {
	Accounts *accounts.Directory
	Signer   *auth.Signer
	Hub      *ws.Hub
	Log      *zap.Logger
}

func (c Credentials) validate() error {
	if c.Handle == "" || c.Credential == "" {
		return apperr.InvalidArg("handle and password are required")
	}
	return nil
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := decode(r, &creds); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := creds.validate(); err != nil {
		writeError(w, h.Log, err)
		return
	}

	prev, err := h.Accounts.SessionAccount()
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	acct, err := h.Accounts.Register(creds.Handle, creds.Credential)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.startSession(w, prev, acct)
	writeJSON(w, http.StatusCreated, acct.Public())
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := decode(r, &creds); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := creds.validate(); err != nil {
		writeError(w, h.Log, err)
		return
	}

	prev, err := h.Accounts.SessionAccount()
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	acct, err := h.Accounts.Authenticate(creds.Handle, creds.Credential)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	h.startSession(w, prev, acct)
	writeJSON(w, http.StatusOK, acct.Public())
}

// startSession hands the cookie to acct and closes the sockets of the
// account it took the session from.
func (h *AuthHandler) startSession(w http.ResponseWriter, prev, acct *models.Account) {
	if prev != nil && prev.ID != acct.ID && h.Hub != nil {
		h.Hub.Disconnect(prev.ID)
	}
	h.Signer.SetSession(w, acct.ID)
}

// Logout ends the session only when the cookie belongs to the session
// account. The cookie is cleared either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if accountID, err := h.Signer.AccountID(r); err == nil {
		current, err := h.Accounts.SessionAccount()
		if err != nil {
			writeError(w, h.Log, err)
			return
		}
		if current != nil && current.ID == accountID {
			if err := h.Accounts.EndSession(); err != nil {
				writeError(w, h.Log, err)
				return
			}
			if h.Hub != nil {
				h.Hub.Disconnect(accountID)
			}
		}
	}

	h.Signer.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	me := middleware.Account(r.Context())

	found, err := h.Accounts.Search(r.URL.Query().Get("q"), me.ID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, publicAccounts(found))
}
