// Package execution routes approved decisions between the live gateway and
// the simulated ledger according to the persisted execution mode, and fans
// shadow experiments out onto the paper side.
package execution

import "fmt"

// Mode selects which ledgers a decision reaches.
type Mode string

const (
	// Live places real orders only.
	Live Mode = "LIVE"
	// PaperOnly simulates everything, no real orders.
	PaperOnly Mode = "PAPER_ONLY"
	// Shadow places real orders and mirrors variant experiments on paper.
	Shadow Mode = "SHADOW"
)

// ParseMode accepts the wire spellings of the three modes.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Live, PaperOnly, Shadow:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown execution mode %q", s)
}
