package execution

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tradeforge/perpcore/market"
	"github.com/tradeforge/perpcore/paper"
	"github.com/tradeforge/perpcore/statefile"
)

type modeState struct {
	Mode Mode `json:"execution_mode"`
}

// Status aggregates the execution side for operators.
type Status struct {
	Mode     Mode            `json:"mode"`
	Paper    paper.Status    `json:"paper_portfolio"`
	Variants []ShadowVariant `json:"shadow_variants"`
}

// Router decides which ledgers each approved decision reaches. The mode is
// persisted; a restart resumes in the last commanded mode, defaulting to
// LIVE on first run.
type Router struct {
	mu       sync.Mutex
	mode     Mode
	variants []ShadowVariant
	ledger   *paper.Ledger
	store    *statefile.Store[modeState]
	log      zerolog.Logger
}

func NewRouter(path string, ledger *paper.Ledger, variants []ShadowVariant, log zerolog.Logger) (*Router, error) {
	r := &Router{
		mode:     Live,
		variants: variants,
		ledger:   ledger,
		store:    statefile.NewStore[modeState](path),
		log:      log,
	}

	st, found, err := r.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load execution mode: %w", err)
	}
	if found {
		if _, err := ParseMode(string(st.Mode)); err != nil {
			return nil, fmt.Errorf("load execution mode: %w", err)
		}
		r.mode = st.Mode
	}

	log.Info().Str("mode", string(r.mode)).Msg("execution router ready")
	return r, nil
}

func (r *Router) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetMode switches the execution mode and persists it. Source names who
// commanded the switch (operator, risk downgrade, CLI).
func (r *Router) SetMode(mode Mode, source string) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.mode
	r.mode = mode
	if err := r.store.Save(modeState{Mode: mode}); err != nil {
		r.mode = old
		return fmt.Errorf("persist execution mode: %w", err)
	}

	r.log.Info().
		Str("from", string(old)).
		Str("to", string(mode)).
		Str("source", source).
		Msg("execution mode changed")
	return nil
}

// ShouldExecuteLive reports whether real orders go out in the current mode.
func (r *Router) ShouldExecuteLive() bool {
	m := r.Mode()
	return m == Live || m == Shadow
}

// ShouldExecutePaper reports whether the simulated ledger participates.
func (r *Router) ShouldExecutePaper() bool {
	m := r.Mode()
	return m == PaperOnly || m == Shadow
}

// ExecutePaperTrade opens a simulated position when the mode allows it.
func (r *Router) ExecutePaperTrade(d paper.Decision, markPrice float64, profile string) (string, error) {
	if !r.ShouldExecutePaper() {
		return "", nil
	}
	return r.ledger.OpenPosition(d, markPrice, profile)
}

// ProcessShadowExperiments mirrors a live decision onto the paper ledger
// once per matching enabled variant, with the variant's risk multiplier
// applied and the protective levels rescaled around the entry. Returns the
// IDs of the simulated positions it opened.
func (r *Router) ProcessShadowExperiments(d paper.Decision, markPrice float64) []string {
	if r.Mode() != Shadow {
		return nil
	}

	entry := d.EntryPrice
	if entry <= 0 {
		entry = markPrice
	}

	var opened []string
	for _, v := range r.variants {
		if !v.Enabled || !v.Matches(d.Style, d.Symbol) {
			continue
		}

		shadow := d
		shadow.RiskPct = d.RiskPct * v.RiskMult
		dir := d.Side.Direction()

		if d.StopLoss != nil {
			dist := math.Abs(entry - *d.StopLoss)
			stop := entry - dir*dist*v.StopLossMult
			shadow.StopLoss = &stop
		}
		if d.TakeProfit != nil {
			dist := math.Abs(*d.TakeProfit - entry)
			take := entry + dir*dist*v.TakeProfitMult
			shadow.TakeProfit = &take
		}

		posID, err := r.ledger.OpenPosition(shadow, markPrice, "SHADOW:"+v.Name)
		if err != nil {
			r.log.Error().Err(err).
				Str("variant", v.Name).
				Str("symbol", d.Symbol).
				Msg("shadow experiment failed")
			continue
		}

		opened = append(opened, posID)
		r.log.Info().
			Str("variant", v.Name).
			Str("symbol", d.Symbol).
			Str("id", posID).
			Msg("shadow experiment opened")
	}
	return opened
}

// UpdatePaperPositions sweeps the simulated stops and targets.
func (r *Router) UpdatePaperPositions(prices market.Prices) []paper.ClosedTrade {
	return r.ledger.CheckStopsAndTargets(prices)
}

func (r *Router) Status() Status {
	active := make([]ShadowVariant, 0, len(r.variants))
	for _, v := range r.variants {
		if v.Enabled {
			active = append(active, v)
		}
	}
	return Status{
		Mode:     r.Mode(),
		Paper:    r.ledger.Status(),
		Variants: active,
	}
}
