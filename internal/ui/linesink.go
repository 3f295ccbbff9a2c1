package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/monitor"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/ui/style"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/utils/logger"
)

// LineSink prints one line per price, colored by direction against the
// previous price of the same market.
type LineSink struct {
	mu         sync.Mutex
	out        io.Writer
	last       map[string]decimal.Decimal
	showMarket bool
}

var _ monitor.Sink = (*LineSink)(nil)

// NewLineSink writes to out. showMarket prefixes each line with the short
// market address, useful when several markets share the output.
func NewLineSink(out io.Writer, showMarket bool) *LineSink {
	return &LineSink{out: out, last: make(map[string]decimal.Decimal), showMarket: showMarket}
}

// OnPrice implements monitor.Sink.
func (s *LineSink) OnPrice(_ context.Context, sample monitor.PriceSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sample.Market.String()
	price := style.PriceStyle.Render(sample.Price.StringFixed(12))
	if prev, ok := s.last[key]; ok {
		switch sample.Price.Cmp(prev) {
		case 1:
			price = style.UpStyle.Render(sample.Price.StringFixed(12))
		case -1:
			price = style.DownStyle.Render(sample.Price.StringFixed(12))
		}
	}
	s.last[key] = sample.Price

	line := fmt.Sprintf("UI Display Price: %s SOL", price)
	if s.showMarket {
		line = style.MutedStyle.Render(logger.ShortenAddress(key)) + " " + line
	}
	if sample.Complete {
		line += " " + style.GraduatedStyle.Render("[complete]")
	}

	_, err := fmt.Fprintln(s.out, line)
	return err
}
