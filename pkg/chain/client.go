// Package chain wraps the NepaliPay token contract on BSC. Reads degrade
// to safe defaults when the node or contract is unreachable; writes return
// an error so callers can schedule a retry. An unconfigured client (no RPC
// URL, no contract, or no admin key) is valid and simply skips writes.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/nepalipay/chain-middleware/internal/metrics"
	"github.com/nepalipay/chain-middleware/pkg/config"
)

// Backend is the subset of ethclient.Client the chain client relies on.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Client talks to the token contract.
type Client struct {
	cfg          *config.ChainConfig
	rpc          *ethclient.Client
	backend      Backend
	abi          abi.ABI
	contract     *bind.BoundContract
	contractAddr common.Address
	privateKey   *ecdsa.PrivateKey
	adminAddr    common.Address
	logger       *zap.Logger

	transferEventID       common.Hash
	userRegisteredEventID common.Hash

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
	watchWG     sync.WaitGroup
}

// NewClient dials the configured RPC endpoint and binds the token
// contract. With no RPC URL configured the client starts in degraded mode.
func NewClient(cfg *config.ChainConfig, logger *zap.Logger) (*Client, error) {
	var rpc *ethclient.Client
	var backend Backend

	if cfg.RPCURL != "" {
		ec, err := ethclient.Dial(cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
		}
		rpc = ec
		backend = ec
	} else {
		logger.Warn("No chain RPC URL configured, running in degraded mode")
	}

	c, err := newClient(cfg, backend, logger)
	if err != nil {
		if rpc != nil {
			rpc.Close()
		}
		return nil, err
	}
	c.rpc = rpc

	if rpc != nil {
		logger.Info("Connected to chain",
			zap.Int64("chain_id", cfg.ChainID),
			zap.String("rpc_url", cfg.RPCURL),
			zap.String("contract", cfg.ContractAddress))
	}

	return c, nil
}

// newClient wires a client over an arbitrary backend.
func newClient(cfg *config.ChainConfig, backend Backend, logger *zap.Logger) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}

	c := &Client{
		cfg:                   cfg,
		backend:               backend,
		abi:                   parsed,
		logger:                logger,
		transferEventID:       parsed.Events["Transfer"].ID,
		userRegisteredEventID: parsed.Events["UserRegistered"].ID,
	}

	if backend != nil && cfg.ContractAddress != "" {
		c.contractAddr = common.HexToAddress(cfg.ContractAddress)
		c.contract = bind.NewBoundContract(c.contractAddr, parsed, backend, backend, backend)
	}

	if cfg.AdminPrivateKey != "" {
		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.AdminPrivateKey, "0x"))
		if err != nil {
			logger.Warn("Invalid admin private key, chain writes disabled", zap.Error(err))
		} else {
			c.privateKey = privateKey
			c.adminAddr = crypto.PubkeyToAddress(privateKey.PublicKey)
		}
	} else {
		logger.Info("No admin private key configured, chain writes disabled")
	}

	return c, nil
}

// Close stops the watcher and closes the RPC connection.
func (c *Client) Close() {
	c.StopEventListener()
	if c.rpc != nil {
		c.rpc.Close()
	}
}

// ValidateConfiguration reports which settings are missing for full
// read-write operation. It performs no network calls.
func (c *Client) ValidateConfiguration() ConfigurationStatus {
	var errs []string

	if c.cfg.RPCURL == "" {
		errs = append(errs, "chain.rpc_url not configured")
	}
	if c.cfg.ContractAddress == "" {
		errs = append(errs, "chain.contract_address not configured")
	}
	if c.cfg.AdminPrivateKey == "" {
		errs = append(errs, "chain.admin_private_key not configured")
	} else if c.privateKey == nil {
		errs = append(errs, "chain.admin_private_key is not a valid private key")
	}

	return ConfigurationStatus{Valid: len(errs) == 0, Errors: errs}
}

func (c *Client) canWrite() bool {
	return c.contract != nil && c.privateKey != nil
}

// callCtx derives a per-call deadline so a stalled node cannot hang
// background loops.
func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.CallTimeout)
}

// GetBalance returns the token balance of an address in whole token
// units, or "0" when the read fails.
func (c *Client) GetBalance(ctx context.Context, address string) string {
	if c.contract == nil {
		return "0"
	}

	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", common.HexToAddress(address))
	if err != nil || len(out) == 0 {
		c.logger.Warn("Failed to get token balance", zap.String("address", address), zap.Error(err))
		metrics.ChainReadFailures.WithLabelValues("balanceOf").Inc()
		return "0"
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return "0"
	}
	return FormatAmount(balance)
}

// GetNativeBalance returns the BNB balance of an address in whole units,
// or "0" when the read fails.
func (c *Client) GetNativeBalance(ctx context.Context, address string) string {
	if c.backend == nil {
		return "0"
	}

	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	balance, err := c.backend.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		c.logger.Warn("Failed to get native balance", zap.String("address", address), zap.Error(err))
		metrics.ChainReadFailures.WithLabelValues("getBalance").Inc()
		return "0"
	}
	return FormatAmount(balance)
}

// IsRegistered reports whether an address is registered on the contract.
// Read failures report false.
func (c *Client) IsRegistered(ctx context.Context, address string) bool {
	if c.contract == nil {
		return false
	}

	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isRegistered", common.HexToAddress(address))
	if err != nil || len(out) == 0 {
		c.logger.Warn("Failed to check registration status", zap.String("address", address), zap.Error(err))
		metrics.ChainReadFailures.WithLabelValues("isRegistered").Inc()
		return false
	}

	registered, ok := out[0].(bool)
	return ok && registered
}

// GetNetworkStatus probes the node for connectivity, block height and
// chain ID. Any failure reports Connected false.
func (c *Client) GetNetworkStatus(ctx context.Context) NetworkStatus {
	if c.backend == nil {
		return NetworkStatus{Connected: false}
	}

	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	blockNumber, err := c.backend.BlockNumber(ctx)
	if err != nil {
		c.logger.Warn("Failed to get network status", zap.Error(err))
		return NetworkStatus{Connected: false}
	}

	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		c.logger.Warn("Failed to get chain ID", zap.Error(err))
		return NetworkStatus{Connected: false}
	}

	return NetworkStatus{
		Connected:   true,
		BlockNumber: blockNumber,
		ChainID:     chainID.Int64(),
	}
}

// RegisterUser registers a user's wallet address on the contract. Returns
// an empty hash with nil error when skipped: admin wallet unconfigured or
// address already registered.
func (c *Client) RegisterUser(ctx context.Context, userID int64, walletAddress string) (string, error) {
	if !c.canWrite() {
		c.logger.Info("Admin wallet not configured, skipping chain registration",
			zap.Int64("user_id", userID))
		return "", nil
	}

	if c.IsRegistered(ctx, walletAddress) {
		c.logger.Info("User already registered on chain",
			zap.Int64("user_id", userID),
			zap.String("address", walletAddress))
		return "", nil
	}

	c.logger.Info("Registering user on chain",
		zap.Int64("user_id", userID),
		zap.String("address", walletAddress))

	txHash, err := c.submit(ctx, "registerUser", new(big.Int).SetInt64(userID), common.HexToAddress(walletAddress))
	if err != nil {
		return "", fmt.Errorf("register user %d: %w", userID, err)
	}

	c.logger.Info("User registered on chain",
		zap.Int64("user_id", userID),
		zap.String("tx_hash", txHash))
	return txHash, nil
}

// Transfer sends tokens from the admin wallet. Amount is a decimal string
// in whole token units.
func (c *Client) Transfer(ctx context.Context, to, amount string) (string, error) {
	wei, err := ParseAmount(amount)
	if err != nil {
		return "", err
	}

	if !c.canWrite() {
		c.logger.Info("Admin wallet not configured, skipping transfer", zap.String("to", to))
		return "", nil
	}

	txHash, err := c.submit(ctx, "transfer", common.HexToAddress(to), wei)
	if err != nil {
		return "", fmt.Errorf("transfer to %s: %w", to, err)
	}
	return txHash, nil
}

// Mint creates new tokens for an address (admin only).
func (c *Client) Mint(ctx context.Context, to, amount string) (string, error) {
	wei, err := ParseAmount(amount)
	if err != nil {
		return "", err
	}

	if !c.canWrite() {
		c.logger.Info("Admin wallet not configured, skipping mint", zap.String("to", to))
		return "", nil
	}

	txHash, err := c.submit(ctx, "mint", common.HexToAddress(to), wei)
	if err != nil {
		return "", fmt.Errorf("mint to %s: %w", to, err)
	}
	return txHash, nil
}

// Burn destroys tokens held by an address (admin only).
func (c *Client) Burn(ctx context.Context, from, amount string) (string, error) {
	wei, err := ParseAmount(amount)
	if err != nil {
		return "", err
	}

	if !c.canWrite() {
		c.logger.Info("Admin wallet not configured, skipping burn", zap.String("from", from))
		return "", nil
	}

	txHash, err := c.submit(ctx, "burn", common.HexToAddress(from), wei)
	if err != nil {
		return "", fmt.Errorf("burn from %s: %w", from, err)
	}
	return txHash, nil
}

// ExecuteTransaction runs a custodial transfer between two addresses via
// the contract's delegated execution entry point.
func (c *Client) ExecuteTransaction(ctx context.Context, from, to, amount string, data []byte) (string, error) {
	wei, err := ParseAmount(amount)
	if err != nil {
		return "", err
	}
	if data == nil {
		data = []byte{}
	}

	if !c.canWrite() {
		c.logger.Info("Admin wallet not configured, skipping transaction execution",
			zap.String("from", from),
			zap.String("to", to))
		return "", nil
	}

	txHash, err := c.submit(ctx, "executeTransaction",
		common.HexToAddress(from), common.HexToAddress(to), wei, data)
	if err != nil {
		return "", fmt.Errorf("execute transaction %s -> %s: %w", from, to, err)
	}
	return txHash, nil
}

// submit packs, estimates, signs, sends and waits for one confirmation of
// a contract write. The gas estimate is buffered by 20%.
func (c *Client) submit(ctx context.Context, method string, params ...interface{}) (string, error) {
	auth, err := c.transactor(ctx)
	if err != nil {
		metrics.ChainWrites.WithLabelValues(method, "failed").Inc()
		return "", err
	}

	input, err := c.abi.Pack(method, params...)
	if err != nil {
		metrics.ChainWrites.WithLabelValues(method, "failed").Inc()
		return "", fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	estCtx, cancel := c.callCtx(ctx)
	gas, err := c.backend.EstimateGas(estCtx, ethereum.CallMsg{
		From: c.adminAddr,
		To:   &c.contractAddr,
		Data: input,
	})
	cancel()
	if err != nil {
		metrics.ChainWrites.WithLabelValues(method, "failed").Inc()
		return "", fmt.Errorf("failed to estimate gas for %s: %w", method, err)
	}
	auth.GasLimit = gas * 120 / 100

	tx, err := c.contract.Transact(auth, method, params...)
	if err != nil {
		metrics.ChainWrites.WithLabelValues(method, "failed").Inc()
		return "", fmt.Errorf("failed to send %s transaction: %w", method, err)
	}

	c.logger.Info("Transaction sent",
		zap.String("method", method),
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Uint64("gas_limit", auth.GasLimit))

	waitCtx, cancel := c.callCtx(ctx)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.backend, tx)
	if err != nil {
		metrics.ChainWrites.WithLabelValues(method, "failed").Inc()
		return "", fmt.Errorf("failed to confirm %s transaction %s: %w", method, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		metrics.ChainWrites.WithLabelValues(method, "reverted").Inc()
		return "", fmt.Errorf("%s transaction %s reverted", method, tx.Hash().Hex())
	}

	metrics.ChainWrites.WithLabelValues(method, "success").Inc()
	return tx.Hash().Hex(), nil
}

// transactor builds signed transact options with a fresh pending nonce.
func (c *Client) transactor(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, big.NewInt(c.cfg.ChainID))
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	nonceCtx, cancel := c.callCtx(ctx)
	defer cancel()

	nonce, err := c.backend.PendingNonceAt(nonceCtx, c.adminAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	auth.Nonce = new(big.Int).SetUint64(nonce)
	auth.Context = ctx
	return auth, nil
}
