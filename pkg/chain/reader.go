package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"mon-launch/pkg/types"
)

// Reader performs the read-only contract calls the packer needs: the curve's
// fee configuration and the lens quote for an initial buy.
type Reader struct {
	client *ethclient.Client
	curve  common.Address
	lens   common.Address
}

// NewReader connects to the RPC endpoint and validates the contract addresses.
func NewReader(rpcURL, curveAddr, lensAddr string) (*Reader, error) {
	if !common.IsHexAddress(curveAddr) {
		return nil, fmt.Errorf("invalid curve contract address: %s", curveAddr)
	}
	if !common.IsHexAddress(lensAddr) {
		return nil, fmt.Errorf("invalid lens contract address: %s", lensAddr)
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	return &Reader{
		client: client,
		curve:  common.HexToAddress(curveAddr),
		lens:   common.HexToAddress(lensAddr),
	}, nil
}

// Client exposes the underlying RPC client for the submitter.
func (r *Reader) Client() *ethclient.Client {
	return r.client
}

// ChainID queries the connected network's chain identifier.
func (r *Reader) ChainID(ctx context.Context) (*big.Int, error) {
	return r.client.ChainID(ctx)
}

// FeeConfig reads the current deploy and graduation fees from the curve
// contract. Fees are mutable on-chain state, so the result is re-read for
// every packing attempt and never cached.
func (r *Reader) FeeConfig(ctx context.Context) (types.FeeConfig, error) {
	c, err := loadContracts()
	if err != nil {
		return types.FeeConfig{}, err
	}

	data, err := c.curve.Pack("feeConfig")
	if err != nil {
		return types.FeeConfig{}, fmt.Errorf("failed to pack feeConfig call: %w", err)
	}

	result, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &r.curve, Data: data}, nil)
	if err != nil {
		return types.FeeConfig{}, fmt.Errorf("feeConfig call failed: %w", err)
	}

	values, err := c.curve.Unpack("feeConfig", result)
	if err != nil {
		return types.FeeConfig{}, fmt.Errorf("failed to decode feeConfig result: %w", err)
	}
	if len(values) != 3 {
		return types.FeeConfig{}, fmt.Errorf("unexpected feeConfig result arity: %d", len(values))
	}

	deploy, ok1 := values[0].(*big.Int)
	graduate, ok2 := values[1].(*big.Int)
	protocol, ok3 := values[2].(*big.Int)
	if !ok1 || !ok2 || !ok3 {
		return types.FeeConfig{}, fmt.Errorf("unexpected feeConfig result types")
	}

	return types.FeeConfig{
		DeployFeeAmount:   deploy.String(),
		GraduateFeeAmount: graduate.String(),
		ProtocolFee:       protocol.String(),
	}, nil
}

// InitialBuyAmountOut quotes the token amount an initial buy of amountIn
// native units would currently receive from the bonding curve. Callers skip
// this for a zero initial buy.
func (r *Reader) InitialBuyAmountOut(ctx context.Context, amountIn *big.Int) (*big.Int, error) {
	c, err := loadContracts()
	if err != nil {
		return nil, err
	}

	data, err := c.lens.Pack("getInitialBuyAmountOut", amountIn)
	if err != nil {
		return nil, fmt.Errorf("failed to pack quote call: %w", err)
	}

	result, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &r.lens, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("quote call failed: %w", err)
	}

	values, err := c.lens.Unpack("getInitialBuyAmountOut", result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode quote result: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected quote result arity: %d", len(values))
	}

	amountOut, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected quote result type")
	}

	return amountOut, nil
}

// Close closes the underlying RPC connection.
func (r *Reader) Close() {
	if r.client != nil {
		r.client.Close()
	}
}
