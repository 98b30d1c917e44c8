// Package journal chains every committed operation per account into a hash, so two engines
// that processed the same operations agree on StateHash.
package journal

import (
	"bytes"
	"encoding/hex"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"keeperx/engine/library"
)

// Genesis is the head of every account that has not committed an operation yet.
const Genesis library.Sha256 = "84eb548df62076a875e559bca4c2dc56d9ad4a794720e31bf78f89174171034a"

type Journal struct {
	data map[library.Account]library.Sha256
}

func New() *Journal {
	return &Journal{data: make(map[library.Account]library.Sha256)}
}

// Record appends op and its arguments to the account's chain and returns the new head.
func (j *Journal) Record(account library.Account, op string, args ...string) library.Sha256 {
	next := library.ChainHash(j.Head(account), append([]string{op}, args...)...)
	j.data[account] = next
	return next
}

func (j *Journal) Head(account library.Account) library.Sha256 {
	if hash, ok := j.data[account]; ok {
		return hash
	}
	return Genesis
}

// StateHash hashes every account head in account order.
func (j *Journal) StateHash() library.Sha256 {
	accounts := maps.Keys(j.data)
	slices.Sort(accounts)
	b := bytes.Buffer{}
	for _, account := range accounts {
		b.WriteString(account)
		decoded, err := hex.DecodeString(j.data[account])
		if err != nil {
			library.LogCLI(err, 1)
			continue
		}
		b.Write(decoded)
	}
	return library.Sha256Sum(b.Bytes())
}

type Mapped map[library.Account]library.Sha256

func (j *Journal) GetMapped() Mapped {
	m := make(Mapped, len(j.data))
	for account, hash := range j.data {
		m[account] = hash
	}
	return m
}

func FromMapped(m Mapped) *Journal {
	j := New()
	for account, hash := range m {
		j.data[account] = hash
	}
	return j
}
