package chain

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"mon-launch/pkg/types"
)

var (
	testCreator = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testToken   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testPool    = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

// createLog builds a well-formed creation-event log.
func createLog(t *testing.T) *ethtypes.Log {
	t.Helper()

	c, err := loadContracts()
	if err != nil {
		t.Fatalf("failed to load contracts: %v", err)
	}

	data, err := c.curve.Events["Create"].Inputs.NonIndexed().Pack(
		"Moon Cat",
		"MCAT",
		"ipfs://metadata",
		big.NewInt(1_000_000),
		big.NewInt(2_000_000),
		big.NewInt(3_000_000),
	)
	if err != nil {
		t.Fatalf("failed to pack event data: %v", err)
	}

	return &ethtypes.Log{
		Topics: []common.Hash{
			c.createEventID,
			common.BytesToHash(common.LeftPadBytes(testCreator.Bytes(), 32)),
			common.BytesToHash(common.LeftPadBytes(testToken.Bytes(), 32)),
			common.BytesToHash(common.LeftPadBytes(testPool.Bytes(), 32)),
		},
		Data: data,
	}
}

func junkLogs() []*ethtypes.Log {
	return []*ethtypes.Log{
		// Unrelated event signature.
		{Topics: []common.Hash{common.HexToHash("0xdead")}, Data: []byte{0x01, 0x02}},
		// No topics at all.
		{Data: []byte{0x03}},
		// Right arity, wrong signature.
		{Topics: []common.Hash{
			common.HexToHash("0xbeef"),
			common.HexToHash("0x01"),
			common.HexToHash("0x02"),
			common.HexToHash("0x03"),
		}},
	}
}

func TestParseSalt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "0x" + strings.Repeat("ab", 32)},
		{name: "missing prefix", input: strings.Repeat("ab", 32), wantErr: true},
		{name: "too short", input: "0xab", wantErr: true},
		{name: "too long", input: "0x" + strings.Repeat("ab", 33), wantErr: true},
		{name: "not hex", input: "0x" + strings.Repeat("zz", 32), wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			salt, err := parseSalt(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseSalt(%q) = %x, expected error", tt.input, salt)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSalt(%q) failed: %v", tt.input, err)
			}
			if common.Hash(salt) != common.HexToHash(tt.input) {
				t.Errorf("parseSalt(%q) = %x", tt.input, salt)
			}
		})
	}
}

func TestSubmitCreate_RejectsMalformedSalt(t *testing.T) {
	// Salt validation runs before any wallet or RPC interaction, so a
	// zero-value submitter is enough to exercise it.
	s := &Submitter{}
	_, err := s.SubmitCreate(context.Background(), types.TxIntent{
		Value: "0",
		Args: types.TxArgs{
			Name:      "Moon Cat",
			Symbol:    "MCAT",
			TokenURI:  "ipfs://metadata",
			AmountOut: "0",
			Salt:      "0xdead",
		},
	})
	if err == nil {
		t.Fatal("expected an error for a malformed salt")
	}
	if !strings.Contains(err.Error(), "salt") {
		t.Errorf("error %q does not mention the salt", err)
	}
}

func TestParseCreateFromReceipt(t *testing.T) {
	logs := junkLogs()
	logs = append(logs, createLog(t))

	receipt := &ethtypes.Receipt{
		Status: ethtypes.ReceiptStatusSuccessful,
		Logs:   logs,
	}

	event, found, err := ParseCreateFromReceipt(receipt)
	if err != nil {
		t.Fatalf("ParseCreateFromReceipt failed: %v", err)
	}
	if !found {
		t.Fatal("expected creation event to be found")
	}

	if event.Creator != testCreator.Hex() {
		t.Errorf("creator = %s, want %s", event.Creator, testCreator.Hex())
	}
	if event.Token != testToken.Hex() {
		t.Errorf("token = %s, want %s", event.Token, testToken.Hex())
	}
	if event.Pool != testPool.Hex() {
		t.Errorf("pool = %s, want %s", event.Pool, testPool.Hex())
	}
	if event.Name != "Moon Cat" || event.Symbol != "MCAT" || event.TokenURI != "ipfs://metadata" {
		t.Errorf("unexpected identity fields: %+v", event)
	}
	if event.VirtualMon != "1000000" || event.VirtualToken != "2000000" || event.TargetTokenAmount != "3000000" {
		t.Errorf("unexpected curve fields: %+v", event)
	}
}

func TestParseCreateFromReceipt_NoMatchingEvent(t *testing.T) {
	receipt := &ethtypes.Receipt{
		Status: ethtypes.ReceiptStatusSuccessful,
		Logs:   junkLogs(),
	}

	event, found, err := ParseCreateFromReceipt(receipt)
	if err != nil {
		t.Fatalf("ParseCreateFromReceipt failed: %v", err)
	}
	if found || event != nil {
		t.Fatalf("expected no event, got found=%v event=%+v", found, event)
	}
}

func TestParseCreateFromReceipt_MalformedDataSkipped(t *testing.T) {
	c, err := loadContracts()
	if err != nil {
		t.Fatalf("failed to load contracts: %v", err)
	}

	// Correct topic signature and arity, but data that cannot decode.
	malformed := &ethtypes.Log{
		Topics: []common.Hash{
			c.createEventID,
			common.BytesToHash(common.LeftPadBytes(testCreator.Bytes(), 32)),
			common.BytesToHash(common.LeftPadBytes(testToken.Bytes(), 32)),
			common.BytesToHash(common.LeftPadBytes(testPool.Bytes(), 32)),
		},
		Data: []byte{0xff},
	}

	receipt := &ethtypes.Receipt{
		Status: ethtypes.ReceiptStatusSuccessful,
		Logs:   []*ethtypes.Log{malformed, createLog(t)},
	}

	event, found, err := ParseCreateFromReceipt(receipt)
	if err != nil {
		t.Fatalf("ParseCreateFromReceipt failed: %v", err)
	}
	if !found {
		t.Fatal("expected the well-formed event after the malformed one")
	}
	if event.Token != testToken.Hex() {
		t.Errorf("token = %s, want %s", event.Token, testToken.Hex())
	}
}
