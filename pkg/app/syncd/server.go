// Package syncd implements app.Runner for the chain sync daemon.
package syncd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nepalipay/chain-middleware/pkg/admin"
	apphttp "github.com/nepalipay/chain-middleware/pkg/app/http"
	"github.com/nepalipay/chain-middleware/pkg/chain"
	"github.com/nepalipay/chain-middleware/pkg/config"
	"github.com/nepalipay/chain-middleware/pkg/keys"
	"github.com/nepalipay/chain-middleware/pkg/listener"
	"github.com/nepalipay/chain-middleware/pkg/pgutil"
	reconcilerpkg "github.com/nepalipay/chain-middleware/pkg/reconciler"
	"github.com/nepalipay/chain-middleware/pkg/retryqueue"
	"github.com/nepalipay/chain-middleware/pkg/store"
	"github.com/nepalipay/chain-middleware/pkg/wallet"
)

const defaultRequestTimeout = 60

// Server holds cfg to init the sync daemon.
type Server struct {
	cfg *config.Config

	// AdminAuth and UserAuth protect the operational and wallet route
	// groups. They are injected by the embedding application; nil leaves
	// the group unprotected.
	AdminAuth func(http.Handler) http.Handler
	UserAuth  func(http.Handler) http.Handler
}

// NewServer initializes a new sync daemon.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("syncd config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting chain sync daemon",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	st := store.NewStore(db)
	keyStore := keys.NewStore(db)

	cipher, err := s.newCipher()
	if err != nil {
		return err
	}

	chainClient, err := chain.NewClient(&cfg.Chain, logger)
	if err != nil {
		return fmt.Errorf("create chain client: %w", err)
	}
	defer chainClient.Close()

	queue := retryqueue.New(&cfg.RetryQueue, logger)
	registerExecutors(queue, chainClient)
	queue.Start()
	defer queue.Stop()

	walletSvc := wallet.NewService(&cfg.Wallet, st, keyStore, cipher, chainClient, queue, logger)

	lst := listener.New(chainClient, st, logger)
	if cfg.Listener.Enabled {
		lst.Start()
	}
	defer lst.Stop()

	rec := reconcilerpkg.New(st, chainClient, logger)
	s.runInitialReconcile(ctx, rec, logger)

	stopReconcile := s.startPeriodicReconcile(rec, logger)
	defer stopReconcile()

	router := s.setupRouter(chainClient, lst, queue, rec, walletSvc, st, logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server, cfg.Shutdown.Timeout)

	// Stop background work before deferred DB/client closes kick in.
	lst.Stop()
	queue.Stop()
	stopReconcile()
	walletSvc.Wait()

	return err
}

func (s *Server) newCipher() (*keys.Cipher, error) {
	keyMaterial := os.Getenv(s.cfg.Wallet.EncryptionKeyEnv)
	if keyMaterial == "" {
		return nil, fmt.Errorf(
			"wallet encryption key not set: env=%s (hint: openssl rand -hex 32)",
			s.cfg.Wallet.EncryptionKeyEnv,
		)
	}
	return keys.NewCipher(keyMaterial)
}

func registerExecutors(queue *retryqueue.Queue, chainClient *chain.Client) {
	queue.RegisterExecutor(retryqueue.JobRegisterUser, func(ctx context.Context, payload any) error {
		p, ok := payload.(retryqueue.RegisterUserPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", payload)
		}
		// A skipped write (no hash, no error) counts as done: the chain
		// is unconfigured or the user is already registered.
		_, err := chainClient.RegisterUser(ctx, p.UserID, p.WalletAddress)
		return err
	})

	queue.RegisterExecutor(retryqueue.JobTransfer, func(ctx context.Context, payload any) error {
		p, ok := payload.(retryqueue.TransferPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", payload)
		}
		_, err := chainClient.Transfer(ctx, p.To, p.Amount)
		return err
	})

	queue.RegisterExecutor(retryqueue.JobMint, func(ctx context.Context, payload any) error {
		p, ok := payload.(retryqueue.MintPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", payload)
		}
		_, err := chainClient.Mint(ctx, p.To, p.Amount)
		return err
	})

	queue.RegisterExecutor(retryqueue.JobBurn, func(ctx context.Context, payload any) error {
		p, ok := payload.(retryqueue.BurnPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", payload)
		}
		_, err := chainClient.Burn(ctx, p.From, p.Amount)
		return err
	})
}

func (s *Server) runInitialReconcile(
	ctx context.Context,
	rec *reconcilerpkg.Reconciler,
	logger *zap.Logger,
) {
	if s.cfg.Reconciliation.InitialTimeout <= 0 {
		return
	}

	logger.Info("Running initial balance reconciliation",
		zap.Duration("timeout", s.cfg.Reconciliation.InitialTimeout),
	)

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.Reconciliation.InitialTimeout)
	defer cancel()

	if err := rec.ReconcileAll(startupCtx); err != nil {
		logger.Warn("Initial reconciliation failed (will retry periodically)", zap.Error(err))
		return
	}

	logger.Info("Initial balance reconciliation completed")
}

func (s *Server) startPeriodicReconcile(
	rec *reconcilerpkg.Reconciler,
	logger *zap.Logger,
) func() {
	if s.cfg.Reconciliation.Interval <= 0 {
		return func() {}
	}

	logger.Info("Starting periodic reconciliation", zap.Duration("interval", s.cfg.Reconciliation.Interval))
	rec.StartPeriodic(s.cfg.Reconciliation.Interval)

	return func() { rec.Stop() }
}

func (s *Server) setupRouter(
	chainClient *chain.Client,
	lst *listener.Listener,
	queue *retryqueue.Queue,
	rec *reconcilerpkg.Reconciler,
	walletSvc *wallet.Service,
	st store.Store,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Second * defaultRequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.Handler())

	handler := admin.NewHandler(chainClient, lst, queue, rec, walletSvc, st, logger)
	handler.RegisterRoutes(r, s.AdminAuth, s.UserAuth)

	return r
}
