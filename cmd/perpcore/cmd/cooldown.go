package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cooldownCmd = &cobra.Command{
	Use:   "cooldown",
	Short: "Force the guardian into a cooldown",
	Long: `Put the risk guardian into COOLDOWN for the given duration,
blocking new entries until it expires. Exits remain allowed.`,
	RunE: runCooldown,
}

var cooldownMinutes int

func init() {
	rootCmd.AddCommand(cooldownCmd)

	cooldownCmd.Flags().IntVar(&cooldownMinutes, "minutes", 0, "cooldown length (0 = configured default)")
}

func runCooldown(cmd *cobra.Command, args []string) error {
	a, err := buildApp(0)
	if err != nil {
		return err
	}
	defer a.close()

	d := time.Duration(cooldownMinutes) * time.Minute
	if err := a.guardian.ForceCooldown(d, "cli"); err != nil {
		return err
	}

	if d > 0 {
		fmt.Printf("cooldown forced for %s\n", d)
	} else {
		fmt.Println("cooldown forced for the configured default")
	}
	return nil
}
