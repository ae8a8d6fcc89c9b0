package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradeforge/perpcore/action"
	"github.com/tradeforge/perpcore/market"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the execution core, reading intents from stdin",
	Long: `Run the execution core against a stream of trade intents.

Each line of stdin is one JSON document:

  {"intent": "buy", "symbol": "ETHUSDC",
   "params": {"notional_usd": 250}, "reason": "breakout",
   "prices": {"ETHUSDC": 3012.5}}

Every intent is gated by the risk guardian and the symbol cooldowns,
canonicalized, executed according to the execution mode, and followed by a
stop sweep and an equity update. The result of each intent is printed as
JSON on stdout.

Example:
  perpcore run -f config.yaml --equity 25000 < intents.jsonl`,
	RunE: runRun,
}

var runEquity float64

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Float64Var(&runEquity, "equity", 10000, "account equity for the detached run")
}

type intentLine struct {
	Intent string             `json:"intent"`
	Symbol string             `json:"symbol"`
	Params map[string]float64 `json:"params"`
	Reason string             `json:"reason"`
	Prices map[string]float64 `json:"prices"`
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := buildApp(runEquity)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Fprintf(os.Stderr, "perpcore running: mode=%s equity=$%.2f\n", a.exec.Mode(), runEquity)

	ctx := context.Background()
	out := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var in intentLine
		if err := json.Unmarshal(line, &in); err != nil {
			fmt.Fprintf(os.Stderr, "skipping malformed line: %v\n", err)
			continue
		}

		prices := market.Prices(in.Prices)
		res := a.engine.ProcessIntent(ctx, action.Intent{
			Name:   in.Intent,
			Symbol: in.Symbol,
			Params: in.Params,
			Reason: in.Reason,
		}, prices)

		if err := out.Encode(res); err != nil {
			return fmt.Errorf("write result: %w", err)
		}

		a.engine.Tick(ctx, prices)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read intents: %w", err)
	}

	fmt.Fprintln(os.Stderr, a.engine.Status().Summary())
	return nil
}
