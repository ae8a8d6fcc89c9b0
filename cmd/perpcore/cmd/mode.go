package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradeforge/perpcore/execution"
)

var modeCmd = &cobra.Command{
	Use:   "mode [LIVE|PAPER_ONLY|SHADOW]",
	Short: "Show or change the execution mode",
	Long: `With no argument, print the current execution mode. With one
argument, switch to that mode and persist it.

  LIVE        real orders only
  PAPER_ONLY  everything simulated, no real orders
  SHADOW      real orders plus shadow experiments on the paper ledger`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMode,
}

func init() {
	rootCmd.AddCommand(modeCmd)
}

func runMode(cmd *cobra.Command, args []string) error {
	a, err := buildApp(0)
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 0 {
		fmt.Println(a.exec.Mode())
		return nil
	}

	mode, err := execution.ParseMode(args[0])
	if err != nil {
		return err
	}
	if err := a.exec.SetMode(mode, "cli"); err != nil {
		return err
	}

	fmt.Printf("execution mode set to %s\n", mode)
	return nil
}
