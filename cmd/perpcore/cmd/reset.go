package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset [daily|weekly]",
	Short: "Reset the daily or weekly loss limits",
	Long: `Administrative override: zero the daily or weekly loss
accumulators and revert a matching halt to RUNNING. Use with care; the
limits exist for a reason.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"daily", "weekly"},
	RunE:      runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	a, err := buildApp(0)
	if err != nil {
		return err
	}
	defer a.close()

	switch args[0] {
	case "daily":
		if err := a.guardian.ResetDailyLimits("cli"); err != nil {
			return err
		}
		fmt.Println("daily limits reset")
	case "weekly":
		if err := a.guardian.ResetWeeklyLimits("cli"); err != nil {
			return err
		}
		fmt.Println("weekly limits reset")
	default:
		return fmt.Errorf("unknown reset scope %q (want daily or weekly)", args[0])
	}
	return nil
}
