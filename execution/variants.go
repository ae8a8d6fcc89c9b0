package execution

// ShadowVariant describes one always-on experiment that mirrors live
// decisions onto the paper ledger with rescaled risk and levels.
type ShadowVariant struct {
	Name           string   `yaml:"name" json:"name"`
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	Style          string   `yaml:"style" json:"style"`     // empty matches every style
	Symbols        []string `yaml:"symbols" json:"symbols"` // empty matches every symbol
	RiskMult       float64  `yaml:"risk_multiplier" json:"risk_multiplier"`
	StopLossMult   float64  `yaml:"stop_loss_multiplier" json:"stop_loss_multiplier"`
	TakeProfitMult float64  `yaml:"take_profit_multiplier" json:"take_profit_multiplier"`
	Notes          string   `yaml:"notes" json:"notes"`
}

// Matches reports whether the variant applies to a decision's style and
// symbol.
func (v ShadowVariant) Matches(style, symbol string) bool {
	if v.Style != "" && v.Style != style {
		return false
	}
	if len(v.Symbols) > 0 {
		found := false
		for _, s := range v.Symbols {
			if s == symbol {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// DefaultVariants are the stock experiments: a more aggressive swing profile
// on the majors and a more conservative scalp profile on the altcoins.
func DefaultVariants() []ShadowVariant {
	return []ShadowVariant{
		{
			Name:           "aggressive_swing",
			Enabled:        true,
			Style:          "SWING",
			Symbols:        []string{"BTCUSDC", "ETHUSDC"},
			RiskMult:       1.5,
			TakeProfitMult: 1.2,
			StopLossMult:   1.1,
			Notes:          "wider swing risk on the majors",
		},
		{
			Name:           "conservative_scalp",
			Enabled:        true,
			Style:          "SCALP",
			Symbols:        []string{"APTUSDC", "SUIUSDC", "NEARUSDC"},
			RiskMult:       0.7,
			TakeProfitMult: 0.8,
			StopLossMult:   0.9,
			Notes:          "tighter scalp risk on the altcoins",
		},
	}
}
