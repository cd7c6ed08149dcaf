package ton

import "time"

// NanoTON is the smallest TON unit (1 TON = 10^9 nanoTON)
const NanoTON = 1_000_000_000

// Network represents TON network type
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

// TON Center v3 endpoints
const (
	TonCenterMainnet = "https://toncenter.com/api/v3"
	TonCenterTestnet = "https://testnet.toncenter.com/api/v3"
)

const (
	// RecentTransactions is how many receiver transactions are scanned per confirmation
	RecentTransactions = 25

	requestTimeout = 15 * time.Second
)

// ParseNetwork defaults to testnet for anything that is not "mainnet".
func ParseNetwork(s string) Network {
	if Network(s) == NetworkMainnet {
		return NetworkMainnet
	}
	return NetworkTestnet
}

// BaseURL returns the TON Center v3 endpoint of the network
func (n Network) BaseURL() string {
	if n == NetworkMainnet {
		return TonCenterMainnet
	}
	return TonCenterTestnet
}
