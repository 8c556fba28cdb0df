// Command console serves the server-rendered school administration console.
package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers the /debug/pprof handlers on the debug server
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	console "github.com/trezcool/masomo-console/apps/console/echo"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/core/user"
	emailsvc "github.com/trezcool/masomo-console/services/email"
	logsvc "github.com/trezcool/masomo-console/services/logger"
	"github.com/trezcool/masomo-console/services/schoolapi"
	"github.com/trezcool/masomo-console/storage/database"
	inmemstore "github.com/trezcool/masomo-console/storage/inmem"
	redisstore "github.com/trezcool/masomo-console/storage/redis"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New("CONSOLE", conf)
	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	go func() {
		logger.Info(fmt.Sprintf("Debug server listening on %s", conf.Server.DebugHost))
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("Debug server closed: %v", err), err)
		}
	}()

	ctx := context.Background()
	sessions, closeSessions, err := openSessions(ctx, conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening %s session storage: %v", conf.Session.Backend, err), err)
	}
	defer closeSessions()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)

	var mailer core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailer = emailsvc.NewConsoleService(conf)
	} else {
		mailer = emailsvc.NewSendgridService(conf, logger)
	}

	server, err := console.NewServer(&console.Options{
		Address:              conf.Server.Address,
		AppName:              conf.AppName,
		Build:                conf.Build,
		Debug:                conf.Debug,
		DisableReqLogs:       conf.Server.DisableReqLogs,
		DisableCSRF:          conf.Server.DisableCSRF,
		SecureCookies:        !conf.Debug,
		SecretKey:            conf.Server.SecretKey,
		SessionCookie:        conf.Server.SessionCookie,
		SessionTTL:           conf.Session.TTL,
		LogoutOnUnauthorized: conf.Session.LogoutOnUnauthorized,
		API: schoolapi.New(conf.Backend.BaseURL, nil,
			schoolapi.WithTimeout(conf.Backend.Timeout),
			schoolapi.WithMetrics(schoolapi.NewMetrics(reg)),
		),
		Sessions:   sessions,
		Logger:     logger,
		Mailer:     mailer,
		Support:    conf.SupportAddress(),
		Validate:   validate,
		Translator: translator,
		Registry:   reg,
	})
	if err != nil {
		logger.Fatal(fmt.Sprintf("creating server: %v", err), err)
	}

	go server.Start()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

// openSessions returns the configured session provider and a func releasing it.
func openSessions(ctx context.Context, conf *core.Config, logger core.Logger) (session.Provider, func(), error) {
	switch conf.Session.Backend {
	case core.SessionBackendMemory:
		return inmemstore.New(), func() {}, nil

	case core.SessionBackendRedis:
		rdb, err := redisstore.Open(ctx, conf.Redis)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(rdb, conf.Session.TTL), func() { _ = rdb.Close() }, nil

	case core.SessionBackendDatabase:
		db, err := database.Open(database.DSN(conf.Database))
		if err != nil {
			return nil, nil, err
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		stop := make(chan struct{})
		go purgeSessions(db, conf.Session.TTL, stop, logger)
		return database.NewStore(db), func() {
			close(stop)
			_ = db.Close()
		}, nil

	case core.SessionBackendFile:
		return nil, nil, fmt.Errorf("the %q backend holds a single session; use it from the cli", conf.Session.Backend)
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", conf.Session.Backend)
}

// purgeSessions drops the sessions idle for longer than ttl, once an hour.
func purgeSessions(db *sqlx.DB, ttl time.Duration, stop <-chan struct{}, logger core.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			n, err := database.Purge(db, now.Add(-ttl))
			if err != nil {
				logger.Error(err.Error(), err)
				continue
			}
			if n > 0 {
				logger.Info(fmt.Sprintf("purged %d stale session values", n))
			}
		}
	}
}
