// Package access holds the founder capability check.
package access

import (
	"fmt"

	"keeperx/engine/library"
)

// Founder is the fixed privileged identity. There is no way to transfer it.
const Founder library.Account = "0x35e6a761f7e7fe74117a5e099ecaf0e6f0a58a1f"

type Control struct {
	founder library.Account
}

func New(founder library.Account) Control {
	return Control{founder: founder}
}

func (c Control) Founder() library.Account {
	return c.founder
}

// IsFounder reports whether caller holds the founder capability.
func (c Control) IsFounder(caller library.Account) bool {
	n, ok := library.NormalizeAccount(caller)
	return ok && n == c.founder
}

// Authorize rejects every caller except the founder.
func (c Control) Authorize(caller library.Account) error {
	if !c.IsFounder(caller) {
		return fmt.Errorf("%w: caller %s", library.ErrUnauthorized, caller)
	}
	return nil
}

// ValidateAddress normalises a counterparty address, rejecting malformed and zero addresses.
func ValidateAddress(a string) (library.Account, error) {
	n, ok := library.NormalizeAccount(a)
	if !ok || n == library.ZeroAccount {
		return "", fmt.Errorf("%w: %q", library.ErrInvalidAddress, a)
	}
	return n, nil
}
