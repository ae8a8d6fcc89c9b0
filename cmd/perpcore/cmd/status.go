package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the risk, execution and position status",
	Long: `Print the current guardrail state, the execution mode, the paper
ledger summary and the open positions, from the persisted state files.`,
	RunE: runStatus,
}

var statusJSON bool

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the status as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp(0)
	if err != nil {
		return err
	}
	defer a.close()

	st := a.engine.Status()
	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	fmt.Print(st.Summary())
	return nil
}
