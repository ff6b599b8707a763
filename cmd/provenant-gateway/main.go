package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/davidahmann/provenant/internal/api"
	"github.com/davidahmann/provenant/internal/audit"
	"github.com/davidahmann/provenant/internal/auth"
	"github.com/davidahmann/provenant/internal/config"
	"github.com/davidahmann/provenant/internal/crypto"
	"github.com/davidahmann/provenant/internal/decision"
	"github.com/davidahmann/provenant/internal/ledger"
	"github.com/davidahmann/provenant/internal/ledger/pgstore"
	"github.com/davidahmann/provenant/internal/ledger/sqlstore"
	"github.com/davidahmann/provenant/internal/notify"
	"github.com/davidahmann/provenant/internal/policy"
	"github.com/davidahmann/provenant/internal/veto"
)

func main() {
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

type envFn func(string) string
type listenFn func(*http.Server) error

func run(args []string, getenv envFn, listen listenFn) error {
	fs := flag.NewFlagSet("provenant-gateway", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to provenant config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = getenv("PROVENANT_CONFIG_PATH")
	}

	var cfg config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	addr := firstNonEmpty(getenv("PROVENANT_LISTEN_ADDR"), cfg.ListenAddr, ":8080")
	policyPath := firstNonEmpty(getenv("PROVENANT_POLICY_PATH"), cfg.PolicyPath, "policies/provenant.yaml")

	snapshots, closeStore, err := openSnapshots(cfg, logger)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	var attestor ledger.Attestor
	if cfg.SigningKey.PrivateKeyPath != "" {
		priv, _, err := crypto.LoadEd25519PrivateKey(cfg.SigningKey.PrivateKeyPath)
		if err != nil {
			return err
		}
		attestor = crypto.NewAttestor(cfg.SigningKey.KeyID, priv)
	}

	store := ledger.New(ledger.Options{
		Snapshots:   snapshots,
		SnapshotKey: cfg.Snapshot.Key,
		Attestor:    attestor,
		Logger:      logger.Named("ledger"),
	})

	registry := policy.NewRegistry()
	var policyBytes []byte
	if _, err := os.Stat(policyPath); err == nil {
		if _, err := registry.LoadFile(policyPath); err != nil {
			return err
		}
		// #nosec G304 -- path is operator-configured policy path.
		policyBytes, _ = os.ReadFile(policyPath)
		logger.Info("policies loaded", zap.String("path", policyPath))
	} else {
		logger.Warn("no policy file, running with the risk-role floor only", zap.String("path", policyPath))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outbox := notify.NewOutbox(notify.OutboxOptions{Logger: logger.Named("notify")})
	if cfg.Escalation.Enabled {
		poster := notify.NewWebhookPoster(cfg.Escalation.WebhookURL)
		go outbox.RunWorker(ctx, poster, 2*time.Second)
	}

	engine := veto.NewEngine(veto.Options{
		Store:     store,
		Policies:  registry,
		Reviewer:  &veto.AnalysisReviewer{Log: logger.Named("veto")},
		Escalator: outbox,
		Logger:    logger.Named("veto"),
	})

	h := &api.Handler{
		Auth:        auth.NewAuthenticatorFromEnv(),
		Store:       store,
		Decisions:   decision.NewService(store),
		Audits:      audit.NewService(store),
		Policies:    registry,
		Veto:        engine,
		PolicyBytes: policyBytes,
		BaseURL:     cfg.BaseURL,
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("provenant-gateway listening", zap.String("addr", addr))
	errCh := make(chan error, 1)
	go func() { errCh <- listen(server) }()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func openSnapshots(cfg config.Config, logger *zap.Logger) (ledger.SnapshotStore, func(), error) {
	switch cfg.DB.Driver {
	case "sqlite":
		s, err := sqlstore.OpenSQLite(cfg.DB.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		s, err := pgstore.OpenPostgres(cfg.DB.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		logger.Warn("no db driver configured, ledger is memory only")
		return ledger.NewMemorySnapshots(), nil, nil
	}
}

func listenAndServe(server *http.Server) error {
	return server.ListenAndServe()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
