package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pliu/nexuschat/internal/accounts"
	"github.com/pliu/nexuschat/internal/auth"
	"github.com/pliu/nexuschat/internal/chats"
	"github.com/pliu/nexuschat/internal/middleware"
	"github.com/pliu/nexuschat/internal/profile"
	"github.com/pliu/nexuschat/internal/ws"
)

type Deps struct {
	Accounts  *accounts.Directory
	Ledger    *chats.Ledger
	Profile   *profile.Service
	Hub       *ws.Hub
	Signer    *auth.Signer
	Log       *zap.Logger
	StaticDir string
}

func NewRouter(d Deps) *mux.Router {
	authHandler := &AuthHandler{Accounts: d.Accounts, Signer: d.Signer, Hub: d.Hub, Log: d.Log}
	chatHandler := &ChatHandler{Ledger: d.Ledger, Hub: d.Hub, Log: d.Log}
	profileHandler := &ProfileHandler{Profile: d.Profile, Log: d.Log}

	r := mux.NewRouter()
	r.Use(middleware.Logging(d.Log))

	// Public endpoints
	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	r.HandleFunc("/theme", profileHandler.GetTheme).Methods("GET")

	// Session endpoints
	api := r.NewRoute().Subrouter()
	api.Use(middleware.RequireSession(d.Signer, d.Accounts))

	api.HandleFunc("/users/search", authHandler.SearchUsers).Methods("GET")
	api.HandleFunc("/me", profileHandler.Me).Methods("GET")
	api.HandleFunc("/me", profileHandler.UpdateMe).Methods("PATCH")
	api.HandleFunc("/me/avatar", profileHandler.UpdateAvatar).Methods("PUT")
	api.HandleFunc("/me/banner", profileHandler.UpdateBanner).Methods("PUT")
	api.HandleFunc("/theme", profileHandler.SetTheme).Methods("PUT")
	api.HandleFunc("/chats", chatHandler.GetChats).Methods("GET")
	api.HandleFunc("/chats", chatHandler.CreateChat).Methods("POST")
	api.HandleFunc("/chats/{partnerId:[0-9]+}/messages", chatHandler.GetChatMessages).Methods("GET")
	api.HandleFunc("/chats/{partnerId:[0-9]+}/messages", chatHandler.SendMessage).Methods("POST")
	api.HandleFunc("/chats/{partnerId:[0-9]+}/messages", chatHandler.ClearHistory).Methods("DELETE")
	api.HandleFunc("/chats/{partnerId:[0-9]+}/read", chatHandler.MarkRead).Methods("POST")

	if d.Hub != nil {
		api.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWs(d.Hub, w, r, middleware.Account(r.Context()).ID)
		})
	}

	if d.StaticDir != "" {
		r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, d.StaticDir+"/index.html")
		})

		// Serve static files with cache-busting headers for development
		r.PathPrefix("/").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, ".css") || strings.HasSuffix(r.URL.Path, ".js") {
				w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
				w.Header().Set("Pragma", "no-cache")
				w.Header().Set("Expires", "0")
			}
			http.FileServer(http.Dir(d.StaticDir)).ServeHTTP(w, r)
		}))
	}

	return r
}
