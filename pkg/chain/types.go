package chain

// NetworkStatus is a snapshot of RPC connectivity. Connected false means
// the node could not be reached; the other fields are then zero.
type NetworkStatus struct {
	Connected   bool   `json:"connected"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	ChainID     int64  `json:"chainId,omitempty"`
}

// ConfigurationStatus reports whether the client has everything it needs
// for full (read-write) operation.
type ConfigurationStatus struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// EventHandler receives decoded contract events from the watcher. Amounts
// are decimal strings in whole token units. Implementations must not
// block for long; the watcher dispatches sequentially.
type EventHandler interface {
	HandleTransfer(from, to, amount, txHash string)
	HandleUserRegistered(userID int64, walletAddress, txHash string)
}
