// Package launch assembles the creation-transaction payload and submits it.
// Packing runs a fixed stage order (image upload, metadata upload, salt
// mining, fee read, quote read, intent assembly) where each stage depends on
// the previous one's output; submission signs the packed intent, waits for
// confirmation and reconciles the receipt against the creation event.
package launch

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"mon-launch/pkg/chain"
	"mon-launch/pkg/client"
	"mon-launch/pkg/logo"
	"mon-launch/pkg/types"
)

const (
	// MaxNameLength and MaxSymbolLength mirror the curve contract's limits.
	MaxNameLength   = 20
	MaxSymbolLength = 10

	// DefaultActionID selects the plain-create action on the curve.
	DefaultActionID uint8 = 1
)

// In-flight invocations are dropped, not queued; callers get a sentinel so
// they can tell a dropped call apart from a produced result.
var (
	ErrPackInProgress   = errors.New("pack already in progress")
	ErrSubmitInProgress = errors.New("submission already in progress")
)

// Uploader is the slice of the content API the packer uses for assets.
type Uploader interface {
	UploadImage(ctx context.Context, data []byte, contentType string) (client.ImageUploadResult, error)
	UploadMetadata(ctx context.Context, params client.MetadataParams) (client.MetadataUploadResult, error)
}

// SaltMiner requests a deployment salt from the mining service.
type SaltMiner interface {
	MineSalt(ctx context.Context, params client.SaltParams) (client.SaltResult, error)
}

// ChainReader covers the read-only contract calls packing needs.
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	FeeConfig(ctx context.Context) (types.FeeConfig, error)
	InitialBuyAmountOut(ctx context.Context, amountIn *big.Int) (*big.Int, error)
}

// Signer identifies the wallet without exposing its key.
type Signer interface {
	Address() common.Address
	ChainID() *big.Int
}

// TxSubmitter signs, broadcasts and confirms the creation transaction.
type TxSubmitter interface {
	SubmitCreate(ctx context.Context, intent types.TxIntent) (common.Hash, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// Pipeline owns one builder session's packing and submission state. Both
// operations hold a per-session guard: a second invocation while one is in
// flight is dropped, not queued.
type Pipeline struct {
	uploader     Uploader
	miner        SaltMiner
	reader       ChainReader
	submitter    TxSubmitter
	wallet       Signer
	curveAddress string
	logf         func(format string, args ...any)

	mu             sync.Mutex
	packInFlight   bool
	submitInFlight bool
	packed         *types.PackedLaunch
}

// NewPipeline wires the pipeline's collaborators. The log sink receives the
// human-readable progress lines; a nil sink discards them.
func NewPipeline(uploader Uploader, miner SaltMiner, reader ChainReader, submitter TxSubmitter, wallet Signer, curveAddress string, logf func(format string, args ...any)) *Pipeline {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Pipeline{
		uploader:     uploader,
		miner:        miner,
		reader:       reader,
		submitter:    submitter,
		wallet:       wallet,
		curveAddress: curveAddress,
		logf:         logf,
	}
}

// Packed returns the current packed launch, or nil when none exists.
func (p *Pipeline) Packed() *types.PackedLaunch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.packed
}

// RestorePacked seeds the pipeline with a pack persisted by an earlier
// session.
func (p *Pipeline) RestorePacked(packed *types.PackedLaunch) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.packed = packed
}

// Pack freezes the form into a PackedLaunch. Validation runs before the
// first network call; any stage failure aborts the rest and leaves a prior
// pack untouched. While a pack is in flight, further calls return
// ErrPackInProgress.
func (p *Pipeline) Pack(ctx context.Context, form types.TokenForm, logoData []byte) (*types.PackedLaunch, error) {
	p.mu.Lock()
	if p.packInFlight {
		p.mu.Unlock()
		p.logf("Pack already in progress, ignoring")
		return nil, ErrPackInProgress
	}
	p.packInFlight = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.packInFlight = false
		p.mu.Unlock()
	}()

	packed, err := p.pack(ctx, form, logoData)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.packed = packed
	p.mu.Unlock()

	return packed, nil
}

func (p *Pipeline) pack(ctx context.Context, form types.TokenForm, logoData []byte) (*types.PackedLaunch, error) {
	if err := p.checkPreconditions(ctx); err != nil {
		return nil, err
	}

	p.logf("Preparing logo")
	imageData, imageType, err := logo.Normalize(logoData)
	if err != nil {
		return nil, p.fail("logo preparation", err)
	}

	// Limits count characters, not bytes, so multi-byte names are not
	// penalized.
	name := strings.TrimSpace(form.Name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return nil, p.fail("validation", fmt.Errorf("name must be 1-%d characters", MaxNameLength))
	}
	symbol := strings.TrimSpace(form.Symbol)
	if symbol == "" || utf8.RuneCountInString(symbol) > MaxSymbolLength {
		return nil, p.fail("validation", fmt.Errorf("symbol must be 1-%d characters", MaxSymbolLength))
	}

	initialBuy, err := chain.ParseAmount(form.InitialBuyMon)
	if err != nil {
		return nil, p.fail("validation", fmt.Errorf("invalid initial buy amount: %w", err))
	}

	creator := p.wallet.Address().Hex()

	p.logf("Uploading logo image")
	imageResult, err := p.uploader.UploadImage(ctx, imageData, imageType)
	if err != nil {
		return nil, p.fail("image upload", err)
	}

	p.logf("Uploading token metadata")
	metadataResult, err := p.uploader.UploadMetadata(ctx, client.MetadataParams{
		ImageURI:    imageResult.ImageURI,
		Name:        name,
		Symbol:      symbol,
		Description: form.Description,
		Website:     client.OptionalLink(form.Website),
		Twitter:     client.OptionalLink(form.Twitter),
		Telegram:    client.OptionalLink(form.Telegram),
	})
	if err != nil {
		return nil, p.fail("metadata upload", err)
	}

	p.logf("Mining deployment salt")
	saltResult, err := p.miner.MineSalt(ctx, client.SaltParams{
		Creator:     creator,
		Name:        name,
		Symbol:      symbol,
		MetadataURI: metadataResult.MetadataURI,
	})
	if err != nil {
		return nil, p.fail("salt mining", err)
	}

	p.logf("Reading fee configuration")
	fees, err := p.reader.FeeConfig(ctx)
	if err != nil {
		return nil, p.fail("fee read", err)
	}

	deployFee, ok := new(big.Int).SetString(fees.DeployFeeAmount, 10)
	if !ok {
		return nil, p.fail("fee read", fmt.Errorf("unparseable deploy fee: %s", fees.DeployFeeAmount))
	}

	minAmountOut := new(big.Int)
	if initialBuy.Sign() > 0 {
		p.logf("Quoting initial buy of %s MON", chain.FormatAmount(initialBuy))
		minAmountOut, err = p.reader.InitialBuyAmountOut(ctx, initialBuy)
		if err != nil {
			return nil, p.fail("initial buy quote", err)
		}
	}

	totalValue := new(big.Int).Add(deployFee, initialBuy)

	packed := &types.PackedLaunch{
		ChainID:          p.wallet.ChainID().Int64(),
		CurveAddress:     p.curveAddress,
		Creator:          creator,
		ImageURI:         imageResult.ImageURI,
		ImageNsfw:        imageResult.IsNsfw,
		MetadataURI:      metadataResult.MetadataURI,
		MetadataNsfw:     metadataResult.Metadata.IsNsfw,
		Salt:             saltResult.Salt,
		PredictedAddress: saltResult.Address,
		Fees:             fees,
		DeployFeeMon:     chain.FormatAmount(deployFee),
		InitialBuy:       initialBuy.String(),
		MinAmountOut:     minAmountOut.String(),
		Intent: types.TxIntent{
			To:       p.curveAddress,
			Function: "create",
			Args: types.TxArgs{
				Name:      name,
				Symbol:    symbol,
				TokenURI:  metadataResult.MetadataURI,
				AmountOut: minAmountOut.String(),
				Salt:      saltResult.Salt,
				ActionID:  DefaultActionID,
			},
			Value: totalValue.String(),
		},
		DryRun: form.DryRun,
	}

	p.logf("Launch packed: deploy fee %s MON, total value %s MON, predicted address %s",
		packed.DeployFeeMon, chain.FormatAmount(totalValue), packed.PredictedAddress)

	return packed, nil
}

// Submit sends the packed launch. Dry-run packs short-circuit with a log
// line; a confirmed submission clears the pack so it cannot be sent twice.
func (p *Pipeline) Submit(ctx context.Context) (*types.LaunchResult, error) {
	p.mu.Lock()
	if p.submitInFlight {
		p.mu.Unlock()
		p.logf("Submission already in progress, ignoring")
		return nil, ErrSubmitInProgress
	}
	p.submitInFlight = true
	packed := p.packed
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.submitInFlight = false
		p.mu.Unlock()
	}()

	if packed == nil {
		return nil, p.fail("submission", fmt.Errorf("nothing packed: run pack first"))
	}

	if packed.DryRun {
		p.logf("Dry run: skipping transaction submission")
		return nil, nil
	}

	if err := p.checkPreconditions(ctx); err != nil {
		return nil, err
	}

	p.logf("Submitting launch transaction")
	txHash, err := p.submitter.SubmitCreate(ctx, packed.Intent)
	if err != nil {
		return nil, p.fail("submission", err)
	}
	p.logf("Transaction sent: %s", txHash.Hex())

	p.logf("Waiting for confirmation")
	receipt, err := p.submitter.WaitMined(ctx, txHash)
	if err != nil {
		return nil, p.fail("confirmation", err)
	}

	result := &types.LaunchResult{TxHash: txHash.Hex()}

	event, found, err := chain.ParseCreateFromReceipt(receipt)
	if err != nil {
		return nil, p.fail("event decode", err)
	}
	if found {
		result.Event = event
		p.logf("Token deployed at %s, pool %s", event.Token, event.Pool)
	} else {
		// Confirmed, but no creation event in the receipt. Not a failure.
		p.logf("Transaction confirmed but no creation event found; addresses unknown")
	}

	p.mu.Lock()
	p.packed = nil
	p.mu.Unlock()

	return result, nil
}

// checkPreconditions verifies wallet, reader and network agreement before any
// pipeline stage runs.
func (p *Pipeline) checkPreconditions(ctx context.Context) error {
	if p.wallet == nil {
		return p.fail("precondition", fmt.Errorf("wallet not configured"))
	}
	if p.reader == nil {
		return p.fail("precondition", fmt.Errorf("no network read client available"))
	}

	actual, err := p.reader.ChainID(ctx)
	if err != nil {
		return p.fail("precondition", fmt.Errorf("failed to query chain ID: %w", err))
	}
	if actual.Cmp(p.wallet.ChainID()) != 0 {
		return p.fail("precondition", fmt.Errorf("wrong network: connected to chain %s, expected %s", actual, p.wallet.ChainID()))
	}

	return nil
}

// fail logs a stage failure and returns the error for the caller.
func (p *Pipeline) fail(stage string, err error) error {
	p.logf("%s failed: %v", stage, err)
	return fmt.Errorf("%s failed: %w", stage, err)
}
