package chain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Curve contract surface used by the pipeline: the fee accessor, the payable
// create function and the creation event.
const curveABI = `[
	{"type":"function","name":"feeConfig","stateMutability":"view","inputs":[],"outputs":[{"name":"deployFeeAmount","type":"uint256"},{"name":"graduateFeeAmount","type":"uint256"},{"name":"protocolFee","type":"uint256"}]},
	{"type":"function","name":"create","stateMutability":"payable","inputs":[{"name":"params","type":"tuple","components":[{"name":"name","type":"string"},{"name":"symbol","type":"string"},{"name":"tokenURI","type":"string"},{"name":"amountOut","type":"uint256"},{"name":"salt","type":"bytes32"},{"name":"actionId","type":"uint8"}]}],"outputs":[{"name":"token","type":"address"},{"name":"pool","type":"address"}]},
	{"type":"event","name":"Create","anonymous":false,"inputs":[{"name":"creator","type":"address","indexed":true},{"name":"token","type":"address","indexed":true},{"name":"pool","type":"address","indexed":true},{"name":"name","type":"string","indexed":false},{"name":"symbol","type":"string","indexed":false},{"name":"tokenURI","type":"string","indexed":false},{"name":"virtualMon","type":"uint256","indexed":false},{"name":"virtualToken","type":"uint256","indexed":false},{"name":"targetTokenAmount","type":"uint256","indexed":false}]}
]`

// Lens contract surface: the bonding-curve quote function.
const lensABI = `[
	{"type":"function","name":"getInitialBuyAmountOut","stateMutability":"view","inputs":[{"name":"amountIn","type":"uint256"}],"outputs":[{"name":"amountOut","type":"uint256"}]}
]`

// contracts owns the parsed ABI handles. The ABIs are constants, so they are
// parsed once and reused across every reader and submitter in the process.
type contracts struct {
	curve         abi.ABI
	lens          abi.ABI
	createEventID common.Hash
}

var (
	loadOnce sync.Once
	loaded   *contracts
	loadErr  error
)

// loadContracts parses the embedded ABIs on first use.
func loadContracts() (*contracts, error) {
	loadOnce.Do(func() {
		curve, err := abi.JSON(strings.NewReader(curveABI))
		if err != nil {
			loadErr = fmt.Errorf("failed to parse curve ABI: %w", err)
			return
		}
		lens, err := abi.JSON(strings.NewReader(lensABI))
		if err != nil {
			loadErr = fmt.Errorf("failed to parse lens ABI: %w", err)
			return
		}
		loaded = &contracts{
			curve:         curve,
			lens:          lens,
			createEventID: curve.Events["Create"].ID,
		}
	})
	return loaded, loadErr
}
