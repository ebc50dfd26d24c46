// Package server wires the daemon: COMMS intake, the orchestrator, host state,
// notification publishers, the optional journal and the HTTP health endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/morezero/intent-dispatch/internal/config"
	"github.com/morezero/intent-dispatch/pkg/bootstrap"
	"github.com/morezero/intent-dispatch/pkg/commsutil"
	"github.com/morezero/intent-dispatch/pkg/db"
	"github.com/morezero/intent-dispatch/pkg/events"
	"github.com/morezero/intent-dispatch/pkg/orchestrator"
)

const logPrefix = "server:server"

// Server is the intentd daemon.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	pool       *pgxpool.Pool
	journal    pinger
	client     *commsutil.Client
	orch       *orchestrator.Orchestrator
	store      *hostStore
	limiter    *rate.Limiter
	httpServer *http.Server

	subs []*comms.Subscription
	wg   sync.WaitGroup

	mu       sync.Mutex
	stopping bool
}

// newServer builds the transport client, orchestrator and host store on an
// open connection. Nothing is subscribed until start.
func newServer(cfg *config.Config, nc *comms.Conn, publisher events.Publisher) (*Server, error) {
	client := commsutil.NewClient(nc, &commsutil.ClientOpts{
		Name:           cfg.COMMSName,
		RequestSubject: cfg.RequestSubject,
		EventPrefix:    cfg.EventPrefix,
		Timeout:        cfg.RequestTimeout,
	})

	orch, err := orchestrator.New(orchestrator.Config{
		BaseURL: cfg.BaseURL,
		Options: cfg.TransportOptions,
	}, client)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		nc:     nc,
		client: client,
		orch:   orch,
		store:  newHostStore(publisher),
	}
	if cfg.IntakeRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.IntakeRate), cfg.IntakeBurst)
	}
	return s, nil
}

// start subscribes to the state and intake subjects.
func (s *Server) start(ctx context.Context) error {
	stateSubject := orDefault(s.cfg.StateSubject, commsutil.SubjectState)
	stateSub, err := s.nc.Subscribe(stateSubject, func(msg *comms.Msg) {
		if err := s.store.setState(msg.Data); err != nil {
			slog.Warn(err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, stateSubject, err)
	}
	s.subs = append(s.subs, stateSub)
	slog.Info(fmt.Sprintf("%s - Tracking host state on %s", logPrefix, stateSubject))

	intakeSubject := orDefault(s.cfg.IntakeSubject, commsutil.SubjectIntake)
	intakeSub, err := s.nc.Subscribe(intakeSubject, func(msg *comms.Msg) {
		s.handleIntake(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, intakeSubject, err)
	}
	s.subs = append(s.subs, intakeSub)
	slog.Info(fmt.Sprintf("%s - Accepting intents on %s", logPrefix, intakeSubject))

	return s.nc.Flush()
}

// applyListenConfig feeds every bootstrap entry through the orchestrator.
// Entries already registered are ignored by the orchestrator.
func (s *Server) applyListenConfig(ctx context.Context, cfg *bootstrap.ListenConfig) {
	for _, in := range cfg.Intents() {
		s.orch.Handle(ctx, s.store, s.forward, in)
	}
}

// stop unsubscribes intake, waits for in-flight intents and detaches listeners.
func (s *Server) stop() {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn(fmt.Sprintf("%s - unsubscribe %s: %v", logPrefix, sub.Subject, err))
		}
	}
	s.subs = nil
	s.wg.Wait()
	if err := s.orch.Close(); err != nil {
		slog.Warn(fmt.Sprintf("%s - closing listeners: %v", logPrefix, err))
	}
}

// Run starts the daemon, blocks until shutdown signal, then cleans up.
func Run() error {
	var logLevel slog.Level
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting intentd", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Connect to COMMS
	nc, err := commsutil.Connect(cfg.COMMSURL, &commsutil.ConnectOpts{
		Name:          cfg.COMMSName,
		ReconnectWait: cfg.COMMSReconnectWait,
		OnReconnect: func(url string) {
			slog.Info(fmt.Sprintf("%s - Intake resumed on %s", logPrefix, url))
		},
	})
	if err != nil {
		return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}

	// Step 2: Optional journal
	var pool *pgxpool.Pool
	var repo *db.Repository
	if cfg.JournalEnabled() {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			nc.Close()
			return fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
		}
		if cfg.RunMigrations {
			migrationSQL, err := db.LoadMigrations(cfg.MigrationPath)
			if err == nil {
				err = db.RunMigrations(ctx, pool, migrationSQL)
			}
			if err != nil {
				pool.Close()
				nc.Close()
				return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
		}
		repo = db.NewRepository(pool)
	}

	// Step 3: Publishers
	publisher := events.MultiPublisher{
		events.NewCommsPublisher(nc, &events.CommsPublisherOpts{NotifySubject: cfg.NotifySubject}),
	}
	if repo != nil {
		publisher = append(publisher, events.NewJournalPublisher(repo, cfg.COMMSName))
	}

	closeAll := func() {
		if pool != nil {
			pool.Close()
		}
		nc.Close()
	}

	// Step 4: Orchestrator and protocol handshake
	s, err := newServer(cfg, nc, publisher)
	if err != nil {
		closeAll()
		return fmt.Errorf("%s - failed to create orchestrator: %w", logPrefix, err)
	}
	s.pool = pool
	if repo != nil {
		s.journal = repo
	}

	if cfg.HandshakeEnabled() {
		version, err := s.client.Handshake(ctx, cfg.HandshakeSubject, cfg.ProtocolConstraint)
		if err != nil {
			closeAll()
			return fmt.Errorf("%s - protocol handshake failed: %w", logPrefix, err)
		}
		slog.Info(fmt.Sprintf("%s - Remote protocol %s", logPrefix, version))
	}

	// Step 5: Intake and state
	if err := s.start(ctx); err != nil {
		s.stop()
		closeAll()
		return err
	}

	// Step 6: Listen bootstrap
	listenCfg, err := bootstrap.LoadListenConfig(cfg.ListenFile)
	if err != nil {
		s.stop()
		closeAll()
		return fmt.Errorf("%s - failed to load listen file: %w", logPrefix, err)
	}
	s.applyListenConfig(ctx, listenCfg)
	if cfg.ListenWatch {
		go func() {
			err := bootstrap.Watch(ctx, cfg.ListenFile, func(c *bootstrap.ListenConfig) {
				s.applyListenConfig(ctx, c)
			})
			if err != nil {
				slog.Error(fmt.Sprintf("%s - listen watch stopped: %v", logPrefix, err))
			}
		}()
	}

	// Step 7: HTTP health server
	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = fmt.Sprintf(":%d", cfg.HTTPPort)
	}
	s.httpServer = &http.Server{Addr: httpAddr, Handler: s.routes()}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP health server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - intentd is ready", logPrefix))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown
	s.stop()
	cancel()
	s.httpServer.Shutdown(context.Background())
	nc.Drain()
	if pool != nil {
		pool.Close()
	}

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
