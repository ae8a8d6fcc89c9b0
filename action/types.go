// Package action canonicalizes heterogeneous trade-intent vocabularies into
// a fixed action set, runs unit-conversion and bug-detection sanity checks,
// and dispatches position mutations.
package action

import (
	"fmt"
	"strings"
)

// Type is a canonical action.
type Type string

const (
	OpenLong      Type = "open_long"
	OpenShort     Type = "open_short"
	Close         Type = "close"
	Increase      Type = "increase"
	Decrease      Type = "decrease"
	SetStopLoss   Type = "set_sl"
	SetTakeProfit Type = "set_tp"
	SetSLTP       Type = "set_sl_tp"
	Breakeven     Type = "breakeven"
	Hold          Type = "hold"
	CancelOrders  Type = "cancel_orders"
)

// allTypes is the closed action set; the alias table below must cover every
// entry, checked once at startup.
var allTypes = []Type{
	OpenLong, OpenShort, Close, Increase, Decrease,
	SetStopLoss, SetTakeProfit, SetSLTP, Breakeven, Hold, CancelOrders,
}

// aliases maps every accepted intent spelling (lower case) to its canonical
// type. Decision engines drift in vocabulary; the table absorbs the drift so
// the handlers never see it.
var aliases = map[string]Type{
	// open
	"open_long":  OpenLong,
	"buy":        OpenLong,
	"long":       OpenLong,
	"open_short": OpenShort,
	"sell":       OpenShort,
	"short":      OpenShort,

	// close
	"close":          Close,
	"close_position": Close,
	"close_market":   Close,

	// increase
	"increase":          Increase,
	"increase_position": Increase,
	"pyramid_add":       Increase,
	"pyramid":           Increase,
	"add":               Increase,

	// decrease
	"decrease":              Decrease,
	"decrease_position":     Decrease,
	"partial_close":         Decrease,
	"execute_partial_close": Decrease,
	"reduce":                Decrease,

	// protective levels
	"set_sl":             SetStopLoss,
	"adjust_sl":          SetStopLoss,
	"update_stop_loss":   SetStopLoss,
	"set_tp":             SetTakeProfit,
	"adjust_tp":          SetTakeProfit,
	"update_take_profit": SetTakeProfit,
	"set_sl_tp":          SetSLTP,

	// breakeven
	"breakeven":            Breakeven,
	"move_sl_to_be":        Breakeven,
	"move_sl_to_breakeven": Breakeven,
	"be":                   Breakeven,

	// hold
	"hold": Hold,
	"wait": Hold,
	"noop": Hold,

	// cancel
	"cancel_orders": CancelOrders,
	"cancel":        CancelOrders,
}

// OpensExposure reports whether t adds position risk and is therefore
// subject to the entry gates (risk state, symbol cooldown).
func (t Type) OpensExposure() bool {
	switch t {
	case OpenLong, OpenShort, Increase:
		return true
	}
	return false
}

// Resolve maps a free-form intent name to its canonical type.
func Resolve(name string) (Type, bool) {
	t, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// ValidateAliases confirms every canonical type has at least one alias so a
// vocabulary edit cannot silently orphan a dispatch branch. Call at startup.
func ValidateAliases() error {
	covered := make(map[Type]bool, len(allTypes))
	for _, t := range aliases {
		covered[t] = true
	}
	for _, t := range allTypes {
		if !covered[t] {
			return fmt.Errorf("action type %q has no alias", t)
		}
	}
	return nil
}

func init() {
	if err := ValidateAliases(); err != nil {
		panic(err)
	}
}
