package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"mon-launch/pkg/types"
)

const (
	defaultCreateGasLimit = 3_000_000
	receiptPollInterval   = 2 * time.Second
)

// createParams mirrors the tuple accepted by the curve's create function, in
// the shape go-ethereum's ABI packer expects.
type createParams struct {
	Name      string
	Symbol    string
	TokenURI  string
	AmountOut *big.Int
	Salt      [32]byte
	ActionId  uint8
}

// Submitter signs and sends the creation transaction and reconciles the
// receipt against the creation event.
type Submitter struct {
	client *ethclient.Client
	wallet *Wallet
	curve  common.Address
}

// NewSubmitter builds a submitter over an existing RPC client.
func NewSubmitter(client *ethclient.Client, wallet *Wallet, curveAddr string) (*Submitter, error) {
	if !common.IsHexAddress(curveAddr) {
		return nil, fmt.Errorf("invalid curve contract address: %s", curveAddr)
	}
	return &Submitter{
		client: client,
		wallet: wallet,
		curve:  common.HexToAddress(curveAddr),
	}, nil
}

// SubmitCreate packs, signs and broadcasts the creation transaction described
// by the intent. The intent's value string is reconstructed with big.Int so
// no precision is lost.
func (s *Submitter) SubmitCreate(ctx context.Context, intent types.TxIntent) (common.Hash, error) {
	c, err := loadContracts()
	if err != nil {
		return common.Hash{}, err
	}

	value, ok := new(big.Int).SetString(intent.Value, 10)
	if !ok {
		return common.Hash{}, fmt.Errorf("invalid transaction value: %s", intent.Value)
	}

	amountOut, ok := new(big.Int).SetString(intent.Args.AmountOut, 10)
	if !ok {
		return common.Hash{}, fmt.Errorf("invalid minimum amount out: %s", intent.Args.AmountOut)
	}

	salt, err := parseSalt(intent.Args.Salt)
	if err != nil {
		return common.Hash{}, err
	}

	params := createParams{
		Name:      intent.Args.Name,
		Symbol:    intent.Args.Symbol,
		TokenURI:  intent.Args.TokenURI,
		AmountOut: amountOut,
		Salt:      salt,
		ActionId:  intent.Args.ActionID,
	}

	data, err := c.curve.Pack("create", params)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack create call: %w", err)
	}

	from := s.wallet.Address()

	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit := uint64(defaultCreateGasLimit)
	msg := ethereum.CallMsg{
		From:  from,
		To:    &s.curve,
		Value: value,
		Data:  data,
	}
	if estimated, err := s.client.EstimateGas(ctx, msg); err == nil {
		gasLimit = estimated * 120 / 100
	}

	tx := ethtypes.NewTransaction(nonce, s.curve, value, gasLimit, gasPrice, data)

	signedTx, err := s.wallet.SignTx(tx)
	if err != nil {
		return common.Hash{}, err
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx.Hash(), nil
}

// parseSalt decodes a 0x-prefixed 32-byte hex salt. A malformed salt is an
// error, never silently padded or truncated into a different value than the
// mining service produced.
func parseSalt(s string) ([32]byte, error) {
	var salt [32]byte
	if !strings.HasPrefix(s, "0x") || len(s) != 66 {
		return salt, fmt.Errorf("invalid salt %q: want 0x-prefixed 32-byte hex", s)
	}
	decoded, err := hex.DecodeString(s[2:])
	if err != nil {
		return salt, fmt.Errorf("invalid salt %q: %w", s, err)
	}
	copy(salt[:], decoded)
	return salt, nil
}

// WaitMined polls for the transaction receipt until the context expires. A
// receipt with a failed status is an error; the hash is kept in the message
// so the caller can surface it.
func (s *Submitter) WaitMined(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			if receipt.Status != ethtypes.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("transaction %s reverted", txHash.Hex())
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for transaction %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// ParseCreateFromReceipt scans the receipt's logs for the creation event. The
// topic signature is matched against the precomputed event ID before any
// structured decode, so unrelated logs are skipped without error. A receipt
// with no matching event returns found=false, which callers treat as a
// non-fatal "address not found" outcome.
func ParseCreateFromReceipt(receipt *ethtypes.Receipt) (*types.CreateEvent, bool, error) {
	c, err := loadContracts()
	if err != nil {
		return nil, false, err
	}

	createEvent := c.curve.Events["Create"]

	for _, log := range receipt.Logs {
		if len(log.Topics) != 4 || log.Topics[0] != c.createEventID {
			continue
		}

		values, err := createEvent.Inputs.NonIndexed().Unpack(log.Data)
		if err != nil || len(values) != 6 {
			// Topic collision with malformed data; keep scanning.
			continue
		}

		name, ok1 := values[0].(string)
		symbol, ok2 := values[1].(string)
		tokenURI, ok3 := values[2].(string)
		virtualMon, ok4 := values[3].(*big.Int)
		virtualToken, ok5 := values[4].(*big.Int)
		targetTokenAmount, ok6 := values[5].(*big.Int)
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
			continue
		}

		return &types.CreateEvent{
			Creator:           common.HexToAddress(log.Topics[1].Hex()).Hex(),
			Token:             common.HexToAddress(log.Topics[2].Hex()).Hex(),
			Pool:              common.HexToAddress(log.Topics[3].Hex()).Hex(),
			Name:              name,
			Symbol:            symbol,
			TokenURI:          tokenURI,
			VirtualMon:        virtualMon.String(),
			VirtualToken:      virtualToken.String(),
			TargetTokenAmount: targetTokenAmount.String(),
		}, true, nil
	}

	return nil, false, nil
}
