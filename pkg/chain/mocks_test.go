package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var errNotImplemented = errors.New("not implemented")

// MockBackend is a func-field implementation of Backend.
type MockBackend struct {
	CodeAtFunc              func(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)
	CallContractFunc        func(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	HeaderByNumberFunc      func(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingCodeAtFunc       func(ctx context.Context, account common.Address) ([]byte, error)
	PendingNonceAtFunc      func(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPriceFunc     func(ctx context.Context) (*big.Int, error)
	SuggestGasTipCapFunc    func(ctx context.Context) (*big.Int, error)
	EstimateGasFunc         func(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransactionFunc     func(ctx context.Context, tx *types.Transaction) error
	FilterLogsFunc          func(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogsFunc func(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
	TransactionReceiptFunc  func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumberFunc         func(ctx context.Context) (uint64, error)
	ChainIDFunc             func(ctx context.Context) (*big.Int, error)
	BalanceAtFunc           func(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

func (m *MockBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	if m.CodeAtFunc != nil {
		return m.CodeAtFunc(ctx, contract, blockNumber)
	}
	return []byte{0x01}, nil
}

func (m *MockBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if m.CallContractFunc != nil {
		return m.CallContractFunc(ctx, call, blockNumber)
	}
	return nil, errNotImplemented
}

func (m *MockBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if m.HeaderByNumberFunc != nil {
		return m.HeaderByNumberFunc(ctx, number)
	}
	return &types.Header{}, nil
}

func (m *MockBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	if m.PendingCodeAtFunc != nil {
		return m.PendingCodeAtFunc(ctx, account)
	}
	return []byte{0x01}, nil
}

func (m *MockBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if m.PendingNonceAtFunc != nil {
		return m.PendingNonceAtFunc(ctx, account)
	}
	return 0, nil
}

func (m *MockBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if m.SuggestGasPriceFunc != nil {
		return m.SuggestGasPriceFunc(ctx)
	}
	return big.NewInt(1_000_000_000), nil
}

func (m *MockBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	if m.SuggestGasTipCapFunc != nil {
		return m.SuggestGasTipCapFunc(ctx)
	}
	return big.NewInt(1_000_000_000), nil
}

func (m *MockBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if m.EstimateGasFunc != nil {
		return m.EstimateGasFunc(ctx, call)
	}
	return 50000, nil
}

func (m *MockBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if m.SendTransactionFunc != nil {
		return m.SendTransactionFunc(ctx, tx)
	}
	return nil
}

func (m *MockBackend) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	if m.FilterLogsFunc != nil {
		return m.FilterLogsFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockBackend) SubscribeFilterLogs(
	ctx context.Context,
	query ethereum.FilterQuery,
	ch chan<- types.Log,
) (ethereum.Subscription, error) {
	if m.SubscribeFilterLogsFunc != nil {
		return m.SubscribeFilterLogsFunc(ctx, query, ch)
	}
	return nil, errNotImplemented
}

func (m *MockBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if m.TransactionReceiptFunc != nil {
		return m.TransactionReceiptFunc(ctx, txHash)
	}
	return nil, ethereum.NotFound
}

func (m *MockBackend) BlockNumber(ctx context.Context) (uint64, error) {
	if m.BlockNumberFunc != nil {
		return m.BlockNumberFunc(ctx)
	}
	return 0, errNotImplemented
}

func (m *MockBackend) ChainID(ctx context.Context) (*big.Int, error) {
	if m.ChainIDFunc != nil {
		return m.ChainIDFunc(ctx)
	}
	return big.NewInt(97), nil
}

func (m *MockBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if m.BalanceAtFunc != nil {
		return m.BalanceAtFunc(ctx, account, blockNumber)
	}
	return nil, errNotImplemented
}

// MockEventHandler records dispatched events.
type MockEventHandler struct {
	Transfers  []TransferEvent
	Registered []RegisteredEvent
}

type TransferEvent struct {
	From, To, Amount, TxHash string
}

type RegisteredEvent struct {
	UserID        int64
	WalletAddress string
	TxHash        string
}

func (m *MockEventHandler) HandleTransfer(from, to, amount, txHash string) {
	m.Transfers = append(m.Transfers, TransferEvent{From: from, To: to, Amount: amount, TxHash: txHash})
}

func (m *MockEventHandler) HandleUserRegistered(userID int64, walletAddress, txHash string) {
	m.Registered = append(m.Registered, RegisteredEvent{UserID: userID, WalletAddress: walletAddress, TxHash: txHash})
}
