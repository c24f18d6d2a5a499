package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mon-launch/config"
	"mon-launch/pkg/chain"
	"mon-launch/pkg/types"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a launch transaction",
	Long: `Look a launch transaction up by hash and, once it is mined, decode the
creation event from its receipt.

Examples:
  mon-launch status 0x1234...abcd
  mon-launch status 0x1234...abcd --watch
  mon-launch status 0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

// launchStatus is the snapshot the command renders.
type launchStatus struct {
	TxHash      string             `json:"tx_hash"`
	Pending     bool               `json:"pending"`
	Status      string             `json:"status"`
	BlockNumber uint64             `json:"block_number,omitempty"`
	GasUsed     uint64             `json:"gas_used,omitempty"`
	Value       string             `json:"value"`
	Event       *types.CreateEvent `json:"event,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) {
	txHash := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if cfg.RPCURL == "" {
		printError(fmt.Errorf("RPC URL not configured"))
		os.Exit(1)
	}

	ethClient, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		printError(fmt.Errorf("failed to connect to RPC endpoint: %w", err))
		os.Exit(1)
	}
	defer ethClient.Close()

	if watchStatus {
		watchLaunchStatus(cmd.Context(), ethClient, txHash, jsonOutput)
	} else {
		checkLaunchStatus(cmd.Context(), ethClient, txHash, jsonOutput)
	}
}

func checkLaunchStatus(ctx context.Context, ethClient *ethclient.Client, txHash string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	status, err := fetchLaunchStatus(ctx, ethClient, txHash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayStatus(status)
	}
}

func watchLaunchStatus(ctx context.Context, ethClient *ethclient.Client, txHash string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching transaction %s\n", color.CyanString(txHash))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	for {
		status, err := fetchLaunchStatus(ctx, ethClient, txHash)
		if err != nil {
			color.Red("Error: %v", err)
		} else {
			displayStatus(status)
			if !status.Pending {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func fetchLaunchStatus(ctx context.Context, ethClient *ethclient.Client, txHash string) (*launchStatus, error) {
	hash := common.HexToHash(txHash)

	tx, isPending, err := ethClient.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	status := &launchStatus{
		TxHash:  tx.Hash().Hex(),
		Pending: isPending,
		Status:  "PENDING",
		Value:   tx.Value().String(),
	}
	if isPending {
		return status, nil
	}

	receipt, err := ethClient.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
	}

	status.BlockNumber = receipt.BlockNumber.Uint64()
	status.GasUsed = receipt.GasUsed
	if receipt.Status == ethtypes.ReceiptStatusSuccessful {
		status.Status = "SUCCESS"
	} else {
		status.Status = "REVERTED"
	}

	event, found, err := chain.ParseCreateFromReceipt(receipt)
	if err != nil {
		return nil, err
	}
	if found {
		status.Event = event
	}

	return status, nil
}

func displayStatus(status *launchStatus) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                       LAUNCH STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Transaction: %s\n", color.CyanString(status.TxHash))
	fmt.Printf("  Status:      %s\n", getColoredStatus(status.Status))
	fmt.Printf("  Value:       %s wei\n", status.Value)

	if !status.Pending {
		fmt.Printf("  Block:       %d\n", status.BlockNumber)
		fmt.Printf("  Gas Used:    %d\n", status.GasUsed)
	}

	if status.Event != nil {
		fmt.Printf("  Token:       %s\n", color.CyanString(status.Event.Token))
		fmt.Printf("  Pool:        %s\n", color.CyanString(status.Event.Pool))
		fmt.Printf("  Name:        %s (%s)\n", status.Event.Name, status.Event.Symbol)
	} else if status.Status == "SUCCESS" {
		color.Yellow("  No creation event found in the receipt.")
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	switch status {
	case "SUCCESS":
		return color.GreenString(status)
	case "PENDING":
		return color.YellowString(status)
	case "REVERTED":
		return color.RedString(status)
	default:
		return status
	}
}
