// Package admin exposes the operational HTTP surface of the sync
// subsystem: chain status, manual registration, retry queue inspection,
// and per-user wallet views. Authentication middleware is injected by the
// embedding application.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/nepalipay/chain-middleware/pkg/app/errors"
	apphttp "github.com/nepalipay/chain-middleware/pkg/app/http"
	"github.com/nepalipay/chain-middleware/pkg/auth"
	"github.com/nepalipay/chain-middleware/pkg/chain"
	"github.com/nepalipay/chain-middleware/pkg/core"
	"github.com/nepalipay/chain-middleware/pkg/listener"
	"github.com/nepalipay/chain-middleware/pkg/retryqueue"
	"github.com/nepalipay/chain-middleware/pkg/store"
)

// ChainService is the chain surface used by admin handlers.
type ChainService interface {
	GetNetworkStatus(ctx context.Context) chain.NetworkStatus
	ValidateConfiguration() chain.ConfigurationStatus
	IsRegistered(ctx context.Context, address string) bool
	RegisterUser(ctx context.Context, userID int64, walletAddress string) (string, error)
}

// ListenerService controls the event listener.
type ListenerService interface {
	GetStatus() listener.Status
	Restart()
}

// RetryQueueService exposes retry queue inspection and control.
type RetryQueueService interface {
	Stats() retryqueue.Stats
	Jobs() []retryqueue.Job
	RemoveJob(jobID string) bool
	AddJob(jobType retryqueue.JobType, payload any) string
}

// BalanceRefresher refreshes a user's cached balances from chain state.
type BalanceRefresher interface {
	UpdateWalletBalances(ctx context.Context, userID int64) (*core.Wallet, error)
}

// WalletProvisioner creates custodial wallets.
type WalletProvisioner interface {
	CreateUserWallet(ctx context.Context, userID int64) (*core.Wallet, error)
}

// Handler serves the admin and wallet endpoints.
type Handler struct {
	chain       ChainService
	listener    ListenerService
	queue       RetryQueueService
	reconciler  BalanceRefresher
	provisioner WalletProvisioner
	store       store.Store
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewHandler creates the admin handler.
func NewHandler(
	chainService ChainService,
	listenerService ListenerService,
	queue RetryQueueService,
	reconciler BalanceRefresher,
	provisioner WalletProvisioner,
	st store.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		chain:       chainService,
		listener:    listenerService,
		queue:       queue,
		reconciler:  reconciler,
		provisioner: provisioner,
		store:       st,
		validate:    validator.New(),
		logger:      logger,
	}
}

// RegisterRoutes mounts the admin and wallet endpoints. adminAuth and
// userAuth are injected middlewares; either may be nil (routes are then
// unprotected, for tests).
func (h *Handler) RegisterRoutes(r chi.Router, adminAuth, userAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if adminAuth != nil {
			r.Use(adminAuth)
		}
		r.Get("/admin/status", apphttp.HandleError(h.status))
		r.Post("/admin/blockchain/register-user", apphttp.HandleError(h.registerUser))
		r.Get("/admin/blockchain/check-registration/{address}", apphttp.HandleError(h.checkRegistration))
		r.Post("/admin/blockchain/restart-listener", apphttp.HandleError(h.restartListener))
		r.Get("/admin/retry-queue", apphttp.HandleError(h.retryQueue))
		r.Delete("/admin/retry-queue/{jobID}", apphttp.HandleError(h.removeRetryJob))
	})

	r.Group(func(r chi.Router) {
		if userAuth != nil {
			r.Use(userAuth)
		}
		r.Get("/wallet", apphttp.HandleError(h.getWallet))
		r.Post("/wallet", apphttp.HandleError(h.createWallet))
		r.Post("/wallet/refresh", apphttp.HandleError(h.refreshWallet))
	})
}

type statusResponse struct {
	Network       chain.NetworkStatus       `json:"network"`
	Configuration chain.ConfigurationStatus `json:"configuration"`
	Listener      listener.Status           `json:"listener"`
	RetryQueue    retryqueue.Stats          `json:"retryQueue"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) error {
	resp := statusResponse{
		Network:       h.chain.GetNetworkStatus(r.Context()),
		Configuration: h.chain.ValidateConfiguration(),
		Listener:      h.listener.GetStatus(),
		RetryQueue:    h.queue.Stats(),
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

type registerUserRequest struct {
	UserID        int64  `json:"userId" validate:"required,gt=0"`
	WalletAddress string `json:"walletAddress" validate:"required"`
}

type registerUserResponse struct {
	TxHash  string `json:"txHash,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Queued  bool   `json:"queued,omitempty"`
	JobID   string `json:"jobId,omitempty"`
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) error {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequestError(err, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return apperrors.BadRequestError(err, "userId and walletAddress are required")
	}
	if !chain.IsValidAddress(req.WalletAddress) {
		return apperrors.BadRequestError(nil, "invalid wallet address")
	}

	txHash, err := h.chain.RegisterUser(r.Context(), req.UserID, req.WalletAddress)
	if err != nil {
		jobID := h.queue.AddJob(retryqueue.JobRegisterUser, retryqueue.RegisterUserPayload{
			UserID:        req.UserID,
			WalletAddress: req.WalletAddress,
		})
		h.logger.Warn("Manual registration failed, queued retry",
			zap.Int64("user_id", req.UserID),
			zap.String("job_id", jobID),
			zap.Error(err))
		return apphttp.WriteJSON(w, http.StatusAccepted, registerUserResponse{Queued: true, JobID: jobID})
	}

	if txHash == "" {
		return apphttp.WriteJSON(w, http.StatusOK, registerUserResponse{Skipped: true})
	}
	return apphttp.WriteJSON(w, http.StatusOK, registerUserResponse{TxHash: txHash})
}

type registrationStatusResponse struct {
	Address    string `json:"address"`
	Registered bool   `json:"registered"`
}

func (h *Handler) checkRegistration(w http.ResponseWriter, r *http.Request) error {
	address := chi.URLParam(r, "address")
	if !chain.IsValidAddress(address) {
		return apperrors.BadRequestError(nil, "invalid wallet address")
	}

	return apphttp.WriteJSON(w, http.StatusOK, registrationStatusResponse{
		Address:    address,
		Registered: h.chain.IsRegistered(r.Context(), address),
	})
}

func (h *Handler) restartListener(w http.ResponseWriter, _ *http.Request) error {
	h.listener.Restart()
	return apphttp.WriteJSON(w, http.StatusOK, map[string]any{
		"restarted": true,
		"listener":  h.listener.GetStatus(),
	})
}

type retryQueueResponse struct {
	Stats retryqueue.Stats `json:"stats"`
	Jobs  []retryqueue.Job `json:"jobs"`
}

func (h *Handler) retryQueue(w http.ResponseWriter, _ *http.Request) error {
	return apphttp.WriteJSON(w, http.StatusOK, retryQueueResponse{
		Stats: h.queue.Stats(),
		Jobs:  h.queue.Jobs(),
	})
}

func (h *Handler) removeRetryJob(w http.ResponseWriter, r *http.Request) error {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		return apperrors.BadRequestError(nil, "missing job id")
	}

	if !h.queue.RemoveJob(jobID) {
		return apperrors.ResourceNotFoundError(nil, "job not found")
	}
	return apphttp.WriteJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

type walletResponse struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"userId"`
	Address     string `json:"address"`
	NPTBalance  string `json:"nptBalance"`
	BNBBalance  string `json:"bnbBalance"`
	Currency    string `json:"currency"`
	IsPrimary   bool   `json:"isPrimary"`
	LastUpdated string `json:"lastUpdated"`
}

func toWalletResponse(w *core.Wallet) walletResponse {
	return walletResponse{
		ID:          w.ID,
		UserID:      w.UserID,
		Address:     w.Address,
		NPTBalance:  w.NPTBalance,
		BNBBalance:  w.BNBBalance,
		Currency:    w.Currency,
		IsPrimary:   w.IsPrimary,
		LastUpdated: w.LastUpdated.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) getWallet(w http.ResponseWriter, r *http.Request) error {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "authentication required")
	}

	wallet, err := h.store.GetWalletByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrWalletNotFound) {
			return apperrors.ResourceNotFoundError(err, "wallet not found")
		}
		return apperrors.GeneralError(err)
	}

	return apphttp.WriteJSON(w, http.StatusOK, toWalletResponse(wallet))
}

func (h *Handler) createWallet(w http.ResponseWriter, r *http.Request) error {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "authentication required")
	}

	wallet, err := h.provisioner.CreateUserWallet(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return apperrors.ResourceNotFoundError(err, "user not found")
		}
		return apperrors.GeneralError(err)
	}

	return apphttp.WriteJSON(w, http.StatusCreated, toWalletResponse(wallet))
}

func (h *Handler) refreshWallet(w http.ResponseWriter, r *http.Request) error {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "authentication required")
	}

	wallet, err := h.reconciler.UpdateWalletBalances(r.Context(), userID)
	if err != nil {
		return apperrors.GeneralError(err)
	}
	if wallet == nil {
		return apperrors.ResourceNotFoundError(nil, "wallet not found")
	}

	return apphttp.WriteJSON(w, http.StatusOK, toWalletResponse(wallet))
}
