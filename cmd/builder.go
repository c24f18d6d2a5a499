package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mon-launch/config"
	"mon-launch/pkg/builder"
	"mon-launch/pkg/types"
)

var (
	conceptTitle       string
	conceptSymbol      string
	conceptDescription string
)

var builderCmd = &cobra.Command{
	Use:   "builder",
	Short: "Drive a concept through the build stages",
	Long: `The builder walks a concept through four stages:

  idle → contract → frontend → launch

Each stage's artifacts (contract code, frontend prompt, logo set, token form)
are persisted per concept and restored when the concept is reopened, so a
session can be resumed at any point without redoing work.

Examples:
  mon-launch builder start my-concept --title "Moon Cat" --symbol MCAT
  mon-launch builder next my-concept
  mon-launch builder prev my-concept
  mon-launch builder show my-concept
  mon-launch builder log my-concept
  mon-launch builder reset my-concept`,
}

var builderStartCmd = &cobra.Command{
	Use:   "start <concept-id>",
	Short: "Register a concept and open its builder session",
	Args:  cobra.ExactArgs(1),
	Run:   runBuilderStart,
}

var builderNextCmd = &cobra.Command{
	Use:   "next <concept-id>",
	Short: "Advance the concept one stage",
	Args:  cobra.ExactArgs(1),
	Run:   runBuilderNext,
}

var builderPrevCmd = &cobra.Command{
	Use:   "prev <concept-id>",
	Short: "Step the concept back one stage",
	Args:  cobra.ExactArgs(1),
	Run:   runBuilderPrev,
}

var builderShowCmd = &cobra.Command{
	Use:   "show <concept-id>",
	Short: "Show the concept's builder state",
	Args:  cobra.ExactArgs(1),
	Run:   runBuilderShow,
}

var builderLogCmd = &cobra.Command{
	Use:   "log <concept-id>",
	Short: "Print the concept's build log",
	Args:  cobra.ExactArgs(1),
	Run:   runBuilderLog,
}

var builderResetCmd = &cobra.Command{
	Use:   "reset <concept-id>",
	Short: "Clear all persisted state for the concept",
	Args:  cobra.ExactArgs(1),
	Run:   runBuilderReset,
}

func init() {
	rootCmd.AddCommand(builderCmd)
	builderCmd.AddCommand(builderStartCmd, builderNextCmd, builderPrevCmd, builderShowCmd, builderLogCmd, builderResetCmd)

	builderStartCmd.Flags().StringVar(&conceptTitle, "title", "", "Concept title (REQUIRED for new concepts)")
	builderStartCmd.Flags().StringVar(&conceptSymbol, "symbol", "", "Token symbol suggestion")
	builderStartCmd.Flags().StringVar(&conceptDescription, "description", "", "Concept description")
}

func openStore() *builder.Store {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	store, err := builder.NewStore(cfg.StorageDir)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	return store
}

func openMachine(store *builder.Store, conceptID string) *builder.Machine {
	concept, err := store.FindConcept(conceptID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	machine, err := builder.NewMachine(store, builder.TemplateGenerator{}, *concept)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	return machine
}

func runBuilderStart(cmd *cobra.Command, args []string) {
	store := openStore()
	conceptID := args[0]

	if _, err := store.FindConcept(conceptID); err == nil {
		printSuccess(fmt.Sprintf("Concept '%s' already registered; use 'builder next %s' to advance it.", conceptID, conceptID))
		return
	}

	if conceptTitle == "" {
		printError(fmt.Errorf("--title is required when registering a new concept"))
		os.Exit(1)
	}
	if conceptSymbol == "" {
		conceptSymbol = deriveSymbol(conceptTitle)
	}

	batches, err := store.LoadBatches()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	batches = append(batches, types.ConceptBatch{
		ID:      uuid.NewString(),
		Created: time.Now(),
		Concepts: []types.Concept{{
			ID:          conceptID,
			Title:       conceptTitle,
			Symbol:      conceptSymbol,
			Description: conceptDescription,
			Created:     time.Now(),
		}},
	})

	if err := store.SaveBatches(batches); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Concept '%s' registered. Advance it with 'mon-launch builder next %s'.", conceptID, conceptID))
}

func runBuilderNext(cmd *cobra.Command, args []string) {
	store := openStore()
	machine := openMachine(store, args[0])

	from := machine.Step()
	if err := machine.Next(cmd.Context()); err != nil {
		printError(err)
		os.Exit(1)
	}
	machine.Wait()

	printSuccess(fmt.Sprintf("Advanced from %s to %s.", from, machine.Step()))
}

func runBuilderPrev(cmd *cobra.Command, args []string) {
	store := openStore()
	machine := openMachine(store, args[0])

	from := machine.Step()
	if err := machine.Prev(); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Stepped back from %s to %s.", from, machine.Step()))
}

func runBuilderShow(cmd *cobra.Command, args []string) {
	store := openStore()
	machine := openMachine(store, args[0])
	state := machine.State()

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    BUILDER STATE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Stage:            %s\n", color.YellowString(state.Step.String()))
	fmt.Printf("  Contract code:    %s\n", presence(state.ContractCode != ""))
	fmt.Printf("  Frontend prompt:  %s\n", presence(state.FrontendPrompt != ""))
	fmt.Printf("  Logo variants:    %d (selected %d)\n", len(state.Logos), state.SelectedLogo)
	if state.TokenForm.Name != "" {
		fmt.Printf("  Token:            %s (%s)\n", state.TokenForm.Name, state.TokenForm.Symbol)
	}
	fmt.Printf("  Packed launch:    %s\n", presence(state.PackedLaunch != nil))
	if state.ContractAddress != "" {
		fmt.Printf("  Deployed at:      %s\n", color.CyanString(state.ContractAddress))
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func runBuilderLog(cmd *cobra.Command, args []string) {
	store := openStore()
	machine := openMachine(store, args[0])

	entries := machine.Log().Entries()
	if len(entries) == 0 {
		printSuccess("Build log is empty.")
		return
	}

	fmt.Println()
	for _, entry := range entries {
		fmt.Println("  " + entry)
	}
	fmt.Println()
}

func runBuilderReset(cmd *cobra.Command, args []string) {
	store := openStore()
	machine := openMachine(store, args[0])

	if err := machine.Reset(); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess("Builder state cleared; concept back at the idle stage.")
}

func presence(ok bool) string {
	if ok {
		return color.GreenString("cached")
	}
	return color.HiBlackString("none")
}

// deriveSymbol builds a ticker suggestion from the concept title.
func deriveSymbol(title string) string {
	var b strings.Builder
	for _, word := range strings.Fields(title) {
		for _, r := range word {
			b.WriteRune(r)
			break
		}
	}
	symbol := strings.ToUpper(b.String())
	if len(symbol) < 3 {
		symbol = strings.ToUpper(strings.ReplaceAll(title, " ", ""))
	}
	if len(symbol) > 10 {
		symbol = symbol[:10]
	}
	return symbol
}
