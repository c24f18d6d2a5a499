package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mon-launch/config"
	"mon-launch/pkg/builder"
	"mon-launch/pkg/chain"
	"mon-launch/pkg/client"
	"mon-launch/pkg/launch"
	"mon-launch/pkg/types"
)

var (
	launchInitialBuy string
	launchDryRun     bool
	launchNoConfirm  bool
	launchPackOnly   bool
)

var launchCmd = &cobra.Command{
	Use:   "launch <concept-id>",
	Short: "Pack and submit a token launch",
	Long: `Pack the concept's token form into a creation transaction and submit it.

The concept must have reached the builder's launch stage (see 'mon-launch
builder'). Packing uploads the logo and metadata, mines a deployment salt,
reads the live fee configuration, quotes any initial buy and freezes the
transaction payload. Submission signs the frozen payload and waits for the
on-chain creation event.

Examples:
  mon-launch launch my-concept
  mon-launch launch my-concept --initial-buy 0.1
  mon-launch launch my-concept --dry-run
  mon-launch launch my-concept --pack-only --json`,
	Args: cobra.ExactArgs(1),
	Run:  runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)

	launchCmd.Flags().StringVar(&launchInitialBuy, "initial-buy", "", "Initial buy amount in MON (decimal string)")
	launchCmd.Flags().BoolVar(&launchDryRun, "dry-run", false, "Pack everything but withhold submission")
	launchCmd.Flags().BoolVarP(&launchNoConfirm, "yes", "y", false, "Skip confirmation prompt")
	launchCmd.Flags().BoolVar(&launchPackOnly, "pack-only", false, "Stop after packing; submit later")
}

func runLaunch(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := cfg.ValidateLaunch(); err != nil {
		printError(err)
		os.Exit(1)
	}

	store, err := builder.NewStore(cfg.StorageDir)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	concept, err := store.FindConcept(args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	machine, err := builder.NewMachine(store, builder.TemplateGenerator{}, *concept)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if machine.Step() != builder.StepLaunch {
		printError(fmt.Errorf("concept '%s' is at the %s stage; advance it with 'mon-launch builder next %s'",
			concept.ID, machine.Step(), concept.ID))
		os.Exit(1)
	}

	// Flag overrides are persisted like any other form edit.
	err = machine.UpdateForm(func(form *types.TokenForm) {
		if launchInitialBuy != "" {
			form.InitialBuyMon = launchInitialBuy
		}
		if launchDryRun || cfg.DryRun {
			form.DryRun = true
		}
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	logoData, err := machine.SelectedLogoData()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	wallet, err := chain.NewWallet(cfg.PrivateKey, cfg.ChainID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	reader, err := chain.NewReader(cfg.RPCURL, cfg.CurveAddress, cfg.LensAddress)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer reader.Close()

	// Fail fast on a misconfigured RPC endpoint before any uploads happen.
	if err := wallet.EnsureNetwork(cmd.Context(), reader); err != nil {
		printError(err)
		os.Exit(1)
	}

	submitter, err := chain.NewSubmitter(reader.Client(), wallet, cfg.CurveAddress)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient := client.New(cfg.APIBaseURL, cfg.HTTPTimeout)

	logSink := func(format string, a ...any) {
		machine.Logf(format, a...)
		if verbose && !jsonOutput {
			fmt.Println(color.HiBlackString("  "+format, a...))
		}
	}

	pipeline := launch.NewPipeline(apiClient, apiClient, reader, submitter, wallet, cfg.CurveAddress, logSink)
	if cached := machine.State().PackedLaunch; cached != nil {
		pipeline.RestorePacked(cached)
	}

	ctx := cmd.Context()
	form := machine.State().TokenForm

	packed := pipeline.Packed()
	if packed == nil || launchInitialBuy != "" {
		packed = packLaunch(ctx, pipeline, machine, form, logoData, jsonOutput)
	} else if !jsonOutput {
		fmt.Println("\nReusing packed launch from a previous session.")
	}

	if jsonOutput && launchPackOnly {
		jsonData, _ := json.MarshalIndent(packed, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if !jsonOutput {
		displayPackedLaunch(packed)
	}
	if launchPackOnly {
		return
	}

	if packed.DryRun {
		printSuccess("Dry run: payload packed and verified, submission withheld.")
		return
	}

	if !launchNoConfirm && !jsonOutput {
		if !confirmLaunch() {
			fmt.Println("\nLaunch cancelled. The packed payload is kept for later submission.")
			return
		}
	}

	result := submitLaunch(ctx, pipeline, machine, jsonOutput)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayLaunchResult(result)
}

func packLaunch(ctx context.Context, pipeline *launch.Pipeline, machine *builder.Machine, form types.TokenForm, logoData []byte, jsonOutput bool) *types.PackedLaunch {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Packing launch payload..."
		s.Start()
	}

	packed, err := pipeline.Pack(ctx, form, logoData)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if err := machine.SetPackedLaunch(packed); err != nil {
		printError(err)
		os.Exit(1)
	}

	return packed
}

func submitLaunch(ctx context.Context, pipeline *launch.Pipeline, machine *builder.Machine, jsonOutput bool) *types.LaunchResult {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Submitting launch transaction..."
		s.Start()
	}

	submitCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	result, err := pipeline.Submit(submitCtx)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// The pack is spent; drop the persisted copy too.
	if err := machine.SetPackedLaunch(nil); err != nil {
		printError(err)
		os.Exit(1)
	}
	if result != nil && result.Event != nil {
		_ = machine.SetContractAddress(result.Event.Token)
	}

	return result
}

func confirmLaunch() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with launch? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func displayPackedLaunch(packed *types.PackedLaunch) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    PACKED LAUNCH")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Name:              %s (%s)\n", packed.Intent.Args.Name, color.YellowString(packed.Intent.Args.Symbol))
	fmt.Printf("  Creator:           %s\n", color.CyanString(packed.Creator))
	fmt.Printf("  Predicted Address: %s\n", color.CyanString(packed.PredictedAddress))
	fmt.Printf("  Metadata URI:      %s\n", packed.MetadataURI)
	fmt.Printf("  Deploy Fee:        %s MON\n", packed.DeployFeeMon)
	fmt.Printf("  Initial Buy:       %s wei (min out %s)\n", packed.InitialBuy, packed.MinAmountOut)
	fmt.Printf("  Total Value:       %s wei\n", packed.Intent.Value)
	if packed.ImageNsfw || packed.MetadataNsfw {
		color.Red("  WARNING: content was flagged as NSFW")
	}
	if packed.DryRun {
		color.Yellow("  Mode:              DRY RUN")
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func displayLaunchResult(result *types.LaunchResult) {
	if result == nil {
		return
	}

	color.Green("\n✓ Launch confirmed!")
	fmt.Printf("  Transaction: %s\n", color.CyanString(result.TxHash))

	if result.Event != nil {
		fmt.Printf("  Token:       %s\n", color.CyanString(result.Event.Token))
		fmt.Printf("  Pool:        %s\n", color.CyanString(result.Event.Pool))
	} else {
		color.Yellow("  No creation event found in the receipt; check the explorer for addresses.")
	}
	fmt.Println()
}
