package middleware

import (
	"context"
	"net/http"

	"github.com/pliu/nexuschat/internal/auth"
	"github.com/pliu/nexuschat/internal/models"
)

type contextKey string

const AccountKey contextKey = "account"

// SessionSource reports the account currently logged in, nil if none.
type SessionSource interface {
	SessionAccount() (*models.Account, error)
}

// RequireSession lets a request through only when its cookie names the
// account that holds the session pointer.
func RequireSession(signer *auth.Signer, sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, err := signer.AccountID(r)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			current, err := sessions.SessionAccount()
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if current == nil || current.ID != accountID {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AccountKey, current)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Account returns the session account stored by RequireSession.
func Account(ctx context.Context) *models.Account {
	acct, _ := ctx.Value(AccountKey).(*models.Account)
	return acct
}
