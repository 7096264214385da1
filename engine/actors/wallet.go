package actors

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip06"
	"github.com/sasha-s/go-deadlock"

	"collective/engine/library"
)

var currentWallet library.Wallet
var currentWalletMutex = &deadlock.Mutex{}

// MyWallet returns the current Wallet or creates a new one if there isn't one already
func MyWallet() library.Wallet {
	currentWalletMutex.Lock()
	defer currentWalletMutex.Unlock()
	if len(currentWallet.PrivateKey) == 0 {
		//try to restore wallet from disk
		if w, ok := getWalletFromDisk(); ok {
			currentWallet = w
		} else {
			library.LogCLI("Generating a new wallet, write down the seed words if you want to keep it", 4)
			currentWallet = makeNewWallet()
			fmt.Printf("\n\n~NEW WALLET~\nPublic Key: %s\nPrivate Key: %s\nSeed Words: %s\n\n", currentWallet.Account, currentWallet.PrivateKey, currentWallet.SeedWords)
			if err := persistCurrentWallet(); err != nil {
				library.LogCLI(err.Error(), 0)
			}
		}
	}
	return currentWallet
}

// UseWallet replaces the current wallet with one built from a hex private key. It is not
// written to disk.
func UseWallet(privateKey string) (library.Wallet, error) {
	account, err := getPubKey(privateKey)
	if err != nil {
		return library.Wallet{}, err
	}
	currentWalletMutex.Lock()
	defer currentWalletMutex.Unlock()
	currentWallet = library.Wallet{PrivateKey: privateKey, Account: account}
	return currentWallet, nil
}

// SignEvent sets the event's pubkey to our account, then its ID and signature.
func SignEvent(e *nostr.Event) error {
	w := MyWallet()
	e.PubKey = w.Account
	e.ID = e.GetID()
	return e.Sign(w.PrivateKey)
}

func makeNewWallet() library.Wallet {
	seedWords, err := nip06.GenerateSeedWords()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	seed := nip06.SeedFromWords(seedWords)
	sk, err := nip06.PrivateKeyFromSeed(seed)
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	account, err := getPubKey(sk)
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	return library.Wallet{
		PrivateKey: sk,
		SeedWords:  seedWords,
		Account:    account,
	}
}

func getPubKey(privateKey string) (string, error) {
	keyb, err := hex.DecodeString(privateKey)
	if err != nil {
		return "", fmt.Errorf("decoding key from hex: %w", err)
	}
	if len(keyb) != 32 {
		return "", fmt.Errorf("private key must be 32 bytes, got %d", len(keyb))
	}
	_, pubkey := btcec.PrivKeyFromBytes(keyb)
	return hex.EncodeToString(pubkey.SerializeCompressed()[1:]), nil
}

func walletPath() string {
	return MakeOrGetConfig().GetString("rootDir") + "wallet.dat"
}

func persistCurrentWallet() error {
	bytes, err := json.Marshal(currentWallet)
	if err != nil {
		return err
	}
	return os.WriteFile(walletPath(), bytes, 0600)
}

func getWalletFromDisk() (w library.Wallet, ok bool) {
	file, err := os.ReadFile(walletPath())
	if err != nil {
		library.LogCLI(fmt.Sprintf("Error getting wallet file: %s", err.Error()), 2)
		return library.Wallet{}, false
	}
	err = json.Unmarshal(file, &w)
	if err != nil {
		library.LogCLI(fmt.Sprintf("Error parsing wallet file: %s", err.Error()), 3)
		return library.Wallet{}, false
	}
	return w, true
}
