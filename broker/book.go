package broker

import (
	"sync"
	"time"
)

// Book is an in-memory position table mirroring one ledger. At most one
// position per symbol. All methods are safe for a concurrent status reader.
type Book struct {
	mu        sync.Mutex
	positions map[string]Position
}

func NewBook() *Book {
	return &Book{positions: make(map[string]Position)}
}

func (b *Book) Get(symbol string) (Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[symbol]
	return p, ok
}

func (b *Book) Has(symbol string) bool {
	_, ok := b.Get(symbol)
	return ok
}

func (b *Book) List() []Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}
	return out
}

func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.positions)
}

// Open records a freshly opened position, replacing any stale entry.
func (b *Book) Open(p Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.OpenTime.IsZero() {
		p.OpenTime = time.Now().UTC()
	}
	b.positions[p.Symbol] = p
}

// ApplyAdd grows a position by addSize filled at price, recomputing the
// size-weighted entry and bumping the pyramid counter.
func (b *Book) ApplyAdd(symbol string, addSize, price float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.positions[symbol]
	if !ok {
		return false
	}

	total := p.Size + addSize
	if total > 0 {
		p.EntryPrice = (p.EntryPrice*p.Size + price*addSize) / total
	}
	p.Size = total
	p.PyramidAdds++
	b.positions[symbol] = p
	return true
}

// ApplyReduce shrinks a position by fraction (0..1]. Reducing by the full
// fraction removes it.
func (b *Book) ApplyReduce(symbol string, fraction float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.positions[symbol]
	if !ok {
		return false
	}
	if fraction >= 1 {
		delete(b.positions, symbol)
		return true
	}
	p.Size *= 1 - fraction
	b.positions[symbol] = p
	return true
}

// SetLevels updates whichever of stop/take is non-nil.
func (b *Book) SetLevels(symbol string, stop, take *float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.positions[symbol]
	if !ok {
		return false
	}
	if stop != nil {
		v := *stop
		p.StopLoss = &v
	}
	if take != nil {
		v := *take
		p.TakeProfit = &v
	}
	b.positions[symbol] = p
	return true
}

func (b *Book) Remove(symbol string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.positions, symbol)
}

// Sync replaces the table with the gateway's view of open positions.
func (b *Book) Sync(positions []Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions = make(map[string]Position, len(positions))
	for _, p := range positions {
		b.positions[p.Symbol] = p
	}
}
