package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/dex/pumpfun"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/monitor"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/ui/component"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/ui/style"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/utils/logger"
)

const (
	sparklineWidth  = 40
	logLines        = 8
	logTickInterval = 500 * time.Millisecond
)

type marketRow struct {
	market    solana.PublicKey
	mint      solana.PublicKey
	state     monitor.State
	price     decimal.Decimal
	marketCap decimal.Decimal
	hasPrice  bool
	slot      uint64
	complete  bool
	failures  int
	retryIn   time.Duration
	updated   time.Time
	spark     *component.Sparkline
}

// Board is the bubbletea model showing live prices of every watched market.
type Board struct {
	rows     []*marketRow
	index    map[solana.PublicKey]*marketRow
	selected int

	msgs     <-chan tea.Msg
	logs     *logger.LogBuffer
	showLogs bool
	stopped  bool
	stopErr  error

	keys   KeyMap
	help   help.Model
	width  int
	height int
}

// NewBoard creates a board reading watcher events from msgs. logs may be nil.
func NewBoard(msgs <-chan tea.Msg, logs *logger.LogBuffer) *Board {
	return &Board{
		index:    make(map[solana.PublicKey]*marketRow),
		msgs:     msgs,
		logs:     logs,
		showLogs: logs != nil,
		keys:     DefaultKeyMap(),
		help:     help.New(),
	}
}

func waitForMsg(msgs <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-msgs
		if !ok {
			return WatchStoppedMsg{}
		}
		return msg
	}
}

func logTick() tea.Cmd {
	return tea.Tick(logTickInterval, func(t time.Time) tea.Msg { return logTickMsg(t) })
}

func (b *Board) Init() tea.Cmd {
	return tea.Batch(waitForMsg(b.msgs), logTick())
}

func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b, b.handleKey(msg)

	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		b.help.Width = msg.Width
		return b, nil

	case PriceMsg:
		b.applyPrice(msg.Sample)
		return b, waitForMsg(b.msgs)

	case StateMsg:
		row := b.row(msg.Market)
		row.state = msg.To
		if msg.To == monitor.StateStreaming {
			row.retryIn = 0
		}
		return b, waitForMsg(b.msgs)

	case FailureMsg:
		b.row(msg.Market).failures++
		return b, waitForMsg(b.msgs)

	case BackoffMsg:
		b.row(msg.Market).retryIn = msg.Delay
		return b, waitForMsg(b.msgs)

	case WatchStoppedMsg:
		b.stopped = true
		b.stopErr = msg.Err
		return b, nil

	case logTickMsg:
		return b, logTick()
	}
	return b, nil
}

func (b *Board) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, b.keys.Quit):
		return tea.Quit
	case key.Matches(msg, b.keys.Up):
		if b.selected > 0 {
			b.selected--
		}
	case key.Matches(msg, b.keys.Down):
		if b.selected < len(b.rows)-1 {
			b.selected++
		}
	case key.Matches(msg, b.keys.ToggleLogs):
		b.showLogs = !b.showLogs && b.logs != nil
	case key.Matches(msg, b.keys.Help):
		b.help.ShowAll = !b.help.ShowAll
	}
	return nil
}

func (b *Board) row(market solana.PublicKey) *marketRow {
	if r, ok := b.index[market]; ok {
		return r
	}
	r := &marketRow{market: market, spark: component.NewSparkline(sparklineWidth)}
	b.index[market] = r
	b.rows = append(b.rows, r)
	return r
}

func (b *Board) applyPrice(s monitor.PriceSample) {
	r := b.row(s.Market)
	r.mint = s.Mint
	r.price = s.Price
	r.marketCap = pumpfun.MarketCap(&s.Account, s.Decimals)
	r.hasPrice = true
	r.slot = s.Slot
	r.complete = s.Complete
	r.updated = s.ReceivedAt
	r.spark.Push(s.Price.InexactFloat64())
	if s.Complete {
		r.spark.SetColor(style.DefaultPalette().Graduated)
	}
}

func (b *Board) View() string {
	var sections []string

	sections = append(sections, style.HeaderStyle.Render("pump.fun bonding curve watcher"))
	sections = append(sections, b.tableView())

	if r := b.selectedRow(); r != nil {
		sections = append(sections, b.detailView(r))
	}
	if b.showLogs {
		sections = append(sections, b.logsView())
	}
	if b.stopped {
		status := "All watches stopped"
		if b.stopErr != nil {
			status = fmt.Sprintf("%s: %v", status, b.stopErr)
		}
		sections = append(sections, style.ErrorStyle.Render(status))
	}
	sections = append(sections, b.help.View(b.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (b *Board) selectedRow() *marketRow {
	if b.selected < 0 || b.selected >= len(b.rows) {
		return nil
	}
	return b.rows[b.selected]
}

func (b *Board) tableView() string {
	if len(b.rows) == 0 {
		return style.MutedStyle.Render("Waiting for the first update…")
	}

	header := fmt.Sprintf("%-12s %-12s %-20s %-12s %-13s %s", "MARKET", "MINT", "PRICE (SOL)", "SLOT", "STATE", "FAILS")
	lines := []string{style.TableHeaderStyle.Render(header)}

	for i, r := range b.rows {
		price := "-"
		if r.hasPrice {
			price = r.price.StringFixed(12)
		}
		line := fmt.Sprintf("%-12s %-12s %-20s %-12d %-13s %d",
			logger.ShortenAddress(r.market.String()),
			logger.ShortenAddress(r.mint.String()),
			price,
			r.slot,
			stateLabel(r),
			r.failures,
		)
		if i == b.selected {
			lines = append(lines, style.TableRowSelectedStyle.Render(line))
		} else {
			lines = append(lines, style.TableRowStyle.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

func stateLabel(r *marketRow) string {
	if r.state == monitor.StateBackoff && r.retryIn > 0 {
		return fmt.Sprintf("retry %s", r.retryIn)
	}
	return r.state.String()
}

func (b *Board) detailView(r *marketRow) string {
	lines := []string{
		style.SubHeaderStyle.Render(r.market.String()),
		r.spark.View(),
	}
	if r.hasPrice {
		lines = append(lines,
			fmt.Sprintf("UI Display Price: %s SOL", style.PriceStyle.Render(r.price.StringFixed(12))),
			fmt.Sprintf("Market cap: %s SOL   Change: %+.2f%%", r.marketCap.StringFixed(2), r.spark.ChangePercent()),
			style.MutedStyle.Render(fmt.Sprintf("updated %s", r.updated.Format("15:04:05"))),
		)
	}
	if r.complete {
		lines = append(lines, style.GraduatedStyle.Render("Bonding curve complete: token has graduated"))
	}
	return style.ActivePanelStyle.Render(strings.Join(lines, "\n"))
}

func (b *Board) logsView() string {
	entries := b.logs.Recent(logLines)
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("%s %-5s %s", e.Timestamp.Format("15:04:05"), e.Level.CapitalString(), e.Message)
		switch {
		case e.Level >= zapcore.ErrorLevel:
			line = style.ErrorStyle.Render(line)
		case e.Level == zapcore.WarnLevel:
			line = style.WarningStyle.Render(line)
		default:
			line = style.MutedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, style.MutedStyle.Render("no log entries"))
	}
	return style.PanelStyle.Render(strings.Join(lines, "\n"))
}
