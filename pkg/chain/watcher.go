package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const defaultPollingInterval = 5 * time.Second

// StartEventListener begins polling for Transfer and UserRegistered
// events, dispatching them to handler. Calling it while a watcher is
// already running is a no-op, as is calling it on an unconfigured client.
func (c *Client) StartEventListener(handler EventHandler) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	if c.watchCancel != nil {
		c.logger.Info("Chain event listener already running")
		return
	}
	if c.contract == nil {
		c.logger.Warn("Chain not configured, event listener not started")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.watchCancel = cancel
	c.watchWG.Add(1)
	go func() {
		defer c.watchWG.Done()
		c.watch(ctx, handler)
	}()

	c.logger.Info("Chain event listener started",
		zap.String("contract", c.contractAddr.Hex()))
}

// StopEventListener stops the watcher and waits for the polling loop to
// exit. Safe to call when no watcher is running.
func (c *Client) StopEventListener() {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	if c.watchCancel == nil {
		return
	}
	c.watchCancel()
	c.watchWG.Wait()
	c.watchCancel = nil

	c.logger.Info("Chain event listener stopped")
}

// watch polls for new blocks and filters contract events. The first
// successful height read primes the cursor so only events after startup
// are delivered.
func (c *Client) watch(ctx context.Context, handler EventHandler) {
	interval := c.cfg.PollingInterval
	if interval <= 0 {
		interval = defaultPollingInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var current uint64
	var primed bool

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			callCtx, cancel := c.callCtx(ctx)
			latest, err := c.backend.BlockNumber(callCtx)
			cancel()
			if err != nil {
				c.logger.Warn("Failed to get latest block", zap.Error(err))
				continue
			}

			if !primed {
				current = latest
				primed = true
				continue
			}
			if latest <= current {
				continue
			}

			query := ethereum.FilterQuery{
				FromBlock: new(big.Int).SetUint64(current + 1),
				ToBlock:   new(big.Int).SetUint64(latest),
				Addresses: []common.Address{c.contractAddr},
				Topics:    [][]common.Hash{{c.transferEventID, c.userRegisteredEventID}},
			}

			callCtx, cancel = c.callCtx(ctx)
			logs, err := c.backend.FilterLogs(callCtx, query)
			cancel()
			if err != nil {
				c.logger.Warn("Failed to filter contract events", zap.Error(err))
				continue
			}

			for _, lg := range logs {
				c.dispatch(handler, lg)
			}
			current = latest
		}
	}
}

// dispatch decodes one log and invokes the matching handler callback.
// Malformed logs are dropped with a warning.
func (c *Client) dispatch(handler EventHandler, lg types.Log) {
	if lg.Removed || len(lg.Topics) == 0 {
		return
	}

	switch lg.Topics[0] {
	case c.transferEventID:
		if len(lg.Topics) < 3 || len(lg.Data) == 0 {
			c.logger.Warn("Malformed Transfer log", zap.String("tx_hash", lg.TxHash.Hex()))
			return
		}
		from := common.BytesToAddress(lg.Topics[1].Bytes()).Hex()
		to := common.BytesToAddress(lg.Topics[2].Bytes()).Hex()
		amount := FormatAmount(new(big.Int).SetBytes(lg.Data))
		handler.HandleTransfer(from, to, amount, lg.TxHash.Hex())

	case c.userRegisteredEventID:
		if len(lg.Topics) < 3 {
			c.logger.Warn("Malformed UserRegistered log", zap.String("tx_hash", lg.TxHash.Hex()))
			return
		}
		userID := new(big.Int).SetBytes(lg.Topics[1].Bytes()).Int64()
		walletAddress := common.BytesToAddress(lg.Topics[2].Bytes()).Hex()
		handler.HandleUserRegistered(userID, walletAddress, lg.TxHash.Hex())
	}
}
