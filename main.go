package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pliu/nexuschat/internal/accounts"
	"github.com/pliu/nexuschat/internal/auth"
	"github.com/pliu/nexuschat/internal/chats"
	"github.com/pliu/nexuschat/internal/config"
	"github.com/pliu/nexuschat/internal/handlers"
	"github.com/pliu/nexuschat/internal/logger"
	"github.com/pliu/nexuschat/internal/profile"
	"github.com/pliu/nexuschat/internal/store"
	"github.com/pliu/nexuschat/internal/store/sqlstore"
	"github.com/pliu/nexuschat/internal/ws"
)

var configPath = flag.String("config", "", "path to a YAML config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Initialize Database
	// sqlite3 by default; set NEXUS_DB_DRIVER=postgres and NEXUS_DB_DSN for Postgres
	st, err := sqlstore.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}
	defer st.Close()

	theme, err := store.Init(st)
	if err != nil {
		log.Fatal("seed store", zap.Error(err))
	}
	log.Info("store ready", zap.String("driver", cfg.DB.Driver), zap.String("theme", string(theme)))

	seq := store.NewSequence(st, time.Now)
	directory := accounts.NewDirectory(st, seq, log.Named("accounts"))
	ledger := chats.NewLedger(st, directory, seq, time.Now, log.Named("chats"))

	// Initialize WebSocket Hub
	hub := ws.NewHub(ledger, log.Named("ws"))
	go hub.Run()

	r := handlers.NewRouter(handlers.Deps{
		Accounts:  directory,
		Ledger:    ledger,
		Profile:   profile.NewService(directory, st),
		Hub:       hub,
		Signer:    auth.NewSigner(cfg.Auth.CookieSecret),
		Log:       log.Named("http"),
		StaticDir: cfg.Server.StaticDir,
	})

	log.Info("starting server", zap.String("addr", cfg.Server.Addr))
	if err := http.ListenAndServe(cfg.Server.Addr, r); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
