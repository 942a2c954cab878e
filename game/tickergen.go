package game

import "time"

// TickerFactory exists so tests can feed registries hand-driven clocks.
type TickerFactory interface {
	Create(d time.Duration) <-chan time.Time
}

type tickerFactory struct{}

func NewTickerFactory() TickerFactory {
	return tickerFactory{}
}

func (tickerFactory) Create(d time.Duration) <-chan time.Time {
	return time.NewTicker(d).C
}
