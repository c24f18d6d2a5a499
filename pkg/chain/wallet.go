package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet holds the signing key for the launch transaction and knows which
// network it expects to sign for.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
}

// NewWallet parses a hex-encoded private key and binds it to the expected
// chain ID.
func NewWallet(privateKeyHex string, chainID int64) (*Wallet, error) {
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key not configured")
	}
	if chainID <= 0 {
		return nil, fmt.Errorf("invalid chain ID: %d", chainID)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to derive public key")
	}

	return &Wallet{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*publicKey),
		chainID:    big.NewInt(chainID),
	}, nil
}

// Address returns the wallet's account address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// ChainID returns the chain the wallet is configured to sign for.
func (w *Wallet) ChainID() *big.Int {
	return new(big.Int).Set(w.chainID)
}

// SignTx signs a transaction with the wallet's key under EIP-155.
func (w *Wallet) SignTx(tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(w.chainID), w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signedTx, nil
}

// networkChecker is the slice of Reader the wallet needs to verify the
// connected network.
type networkChecker interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// EnsureNetwork verifies that the RPC endpoint serves the chain this wallet
// is configured for. Packing and submission both require a match before any
// other network call.
func (w *Wallet) EnsureNetwork(ctx context.Context, reader networkChecker) error {
	actual, err := reader.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to query chain ID: %w", err)
	}
	if actual.Cmp(w.chainID) != 0 {
		return fmt.Errorf("wrong network: connected to chain %s, expected %s", actual, w.chainID)
	}
	return nil
}
