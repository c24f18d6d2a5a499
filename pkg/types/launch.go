package types

// TokenForm is the user-editable draft of launch parameters. It is persisted
// as part of the builder state and only frozen into a PackedLaunch by the
// packer.
type TokenForm struct {
	Name        string `json:"name"`   // max 20 characters
	Symbol      string `json:"symbol"` // max 10 characters, uppercase convention
	Supply      string `json:"supply"` // display only, not sent on-chain
	Description string `json:"description"`
	Website     string `json:"website,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Telegram    string `json:"telegram,omitempty"`

	// InitialBuyMon is a native-currency decimal string ("0.1" = 0.1 MON).
	// Empty and "0" both mean no initial buy.
	InitialBuyMon string `json:"initial_buy_mon"`

	// SelectedLogo indexes into the generated logo set; -1 selects CustomLogo.
	SelectedLogo int    `json:"selected_logo"`
	CustomLogo   []byte `json:"custom_logo,omitempty"`

	// Tax and distribution percentages are collected from the user but are
	// not part of the creation transaction.
	BuyTaxPercent    int    `json:"buy_tax_percent"`
	SellTaxPercent   int    `json:"sell_tax_percent"`
	DistributionMode string `json:"distribution_mode,omitempty"`
	Beneficiary      string `json:"beneficiary,omitempty"`

	DryRun bool `json:"dry_run"`
}

// FeeConfig holds the fee parameters read live from the curve contract.
// Values are raw 18-decimal integers in string form; protocol fee is in
// basis-point-like units. Fees are mutable on-chain state, so a FeeConfig is
// only valid for the packing operation that read it.
type FeeConfig struct {
	DeployFeeAmount   string `json:"deploy_fee_amount"`
	GraduateFeeAmount string `json:"graduate_fee_amount"`
	ProtocolFee       string `json:"protocol_fee"`
}

// TxIntent is the fully-specified transaction the submitter will sign.
type TxIntent struct {
	To       string `json:"to"`
	Function string `json:"function"`
	Args     TxArgs `json:"args"`
	Value    string `json:"value"` // raw integer string, deploy fee + initial buy
}

// TxArgs mirrors the tuple accepted by the curve's create function.
type TxArgs struct {
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	TokenURI  string `json:"token_uri"`
	AmountOut string `json:"amount_out"` // minimum token out for the initial buy
	Salt      string `json:"salt"`       // 0x-prefixed 32-byte hex
	ActionID  uint8  `json:"action_id"`
}

// PackedLaunch is the immutable snapshot produced by a successful pack. It is
// never mutated in place; changing any input requires a fresh pack, and a
// successful submit clears it so the same pack cannot be sent twice.
type PackedLaunch struct {
	ChainID          int64     `json:"chain_id"`
	CurveAddress     string    `json:"curve_address"`
	Creator          string    `json:"creator"`
	ImageURI         string    `json:"image_uri"`
	ImageNsfw        bool      `json:"image_nsfw"`
	MetadataURI      string    `json:"metadata_uri"`
	MetadataNsfw     bool      `json:"metadata_nsfw"`
	Salt             string    `json:"salt"`
	PredictedAddress string    `json:"predicted_address"`
	Fees             FeeConfig `json:"fees"`
	DeployFeeMon     string    `json:"deploy_fee_mon"` // human-readable decimal
	InitialBuy       string    `json:"initial_buy"`    // raw integer string
	MinAmountOut     string    `json:"min_amount_out"` // raw integer string
	Intent           TxIntent  `json:"intent"`
	DryRun           bool      `json:"dry_run"`
}

// CreateEvent is the decoded token-creation event from a launch receipt.
type CreateEvent struct {
	Creator           string `json:"creator"`
	Token             string `json:"token"`
	Pool              string `json:"pool"`
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	TokenURI          string `json:"token_uri"`
	VirtualMon        string `json:"virtual_mon"`
	VirtualToken      string `json:"virtual_token"`
	TargetTokenAmount string `json:"target_token_amount"`
}

// LaunchResult is what the submitter reports back after confirmation.
type LaunchResult struct {
	TxHash string       `json:"tx_hash"`
	Event  *CreateEvent `json:"event,omitempty"` // nil when no creation event was found
}
