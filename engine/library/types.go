package library

import (
	"strings"
)

// Account is a lower case hex address, 0x followed by 40 hex digits.
type Account = string

type Sha256 = string

const ZeroAccount Account = "0x0000000000000000000000000000000000000000"

// Reserved ledger accounts. They hold tokens on behalf of the engine and are never
// controlled by a caller.
const (
	StakingVault     Account = "0x000000000000000000000000000000004b505856"
	EcosystemReserve Account = "0x000000000000000000000000000000004b505845"
	LiquidityReserve Account = "0x000000000000000000000000000000004b50584c"
)

// NormalizeAccount lower cases a hex address and reports whether it is well formed.
func NormalizeAccount(s string) (Account, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return "", false
	}
	for _, c := range s[2:] {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", false
		}
	}
	return s, true
}

// Wallet is the key the engine signs its notification events with.
type Wallet struct {
	PrivateKey string
	SeedWords  string
	PubKey     string
}
