package actors

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nbd-wtf/go-nostr/nip06"
	"github.com/sasha-s/go-deadlock"
	"keeperx/engine/library"
)

var currentWallet library.Wallet
var currentWalletMutex = &deadlock.Mutex{}

// MyWallet returns the engine's signing wallet, restoring it from rootDir or creating a new one.
func MyWallet() (library.Wallet, error) {
	currentWalletMutex.Lock()
	defer currentWalletMutex.Unlock()
	if len(currentWallet.PrivateKey) > 0 {
		return currentWallet, nil
	}
	if w, ok := getWalletFromDisk(); ok {
		currentWallet = w
		return currentWallet, nil
	}
	library.LogCLI("Generating a new notification signing wallet", 4)
	w, err := NewWallet()
	if err != nil {
		return library.Wallet{}, err
	}
	currentWallet = w
	if err = persistCurrentWallet(); err != nil {
		return library.Wallet{}, err
	}
	return currentWallet, nil
}

// NewWallet derives a fresh key from newly generated seed words.
func NewWallet() (library.Wallet, error) {
	seedWords, err := nip06.GenerateSeedWords()
	if err != nil {
		return library.Wallet{}, err
	}
	seed := nip06.SeedFromWords(seedWords)
	sk, err := nip06.PrivateKeyFromSeed(seed)
	if err != nil {
		return library.Wallet{}, err
	}
	pub, err := PubKey(sk)
	if err != nil {
		return library.Wallet{}, err
	}
	return library.Wallet{
		PrivateKey: sk,
		SeedWords:  seedWords,
		PubKey:     pub,
	}, nil
}

// PubKey returns the x-only public key for a hex private key.
func PubKey(privateKey string) (string, error) {
	keyb, err := hex.DecodeString(privateKey)
	if err != nil {
		return "", fmt.Errorf("decoding key from hex: %w", err)
	}
	_, pubkey := btcec.PrivKeyFromBytes(keyb)
	return hex.EncodeToString(pubkey.SerializeCompressed()[1:]), nil
}

func walletPath() string {
	return filepath.Join(MakeOrGetConfig().GetString("rootDir"), "wallet.dat")
}

func persistCurrentWallet() error {
	b, err := json.Marshal(currentWallet)
	if err != nil {
		return err
	}
	return os.WriteFile(walletPath(), b, 0600)
}

func getWalletFromDisk() (w library.Wallet, ok bool) {
	file, err := os.ReadFile(walletPath())
	if err != nil {
		library.LogCLI(fmt.Sprintf("Error getting wallet file: %s", err.Error()), 3)
		return library.Wallet{}, false
	}
	err = json.Unmarshal(file, &w)
	if err != nil {
		library.LogCLI(fmt.Sprintf("Error parsing wallet file: %s", err.Error()), 2)
		return library.Wallet{}, false
	}
	return w, len(w.PrivateKey) > 0
}
