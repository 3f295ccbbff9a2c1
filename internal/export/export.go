package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/monitor"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "jsonl"
)

const defaultFlushInterval = time.Second

// FormatFromPath picks the format by file extension; anything but .csv is JSON lines.
func FormatFromPath(path string) ExportFormat {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatJSON
}

// PriceRecord is one exported price row.
type PriceRecord struct {
	Timestamp            time.Time `json:"timestamp"`
	Market               string    `json:"market"`
	Mint                 string    `json:"mint"`
	Slot                 uint64    `json:"slot"`
	Price                string    `json:"price_sol"`
	Decimals             uint8     `json:"decimals"`
	VirtualSolReserves   uint64    `json:"virtual_sol_reserves"`
	VirtualTokenReserves uint64    `json:"virtual_token_reserves"`
	Complete             bool      `json:"complete"`
}

// NewPriceRecord flattens a sample.
func NewPriceRecord(s monitor.PriceSample) PriceRecord {
	return PriceRecord{
		Timestamp:            s.ReceivedAt.UTC(),
		Market:               s.Market.String(),
		Mint:                 s.Mint.String(),
		Slot:                 s.Slot,
		Price:                s.Price.String(),
		Decimals:             s.Decimals,
		VirtualSolReserves:   s.Account.VirtualSolReserves,
		VirtualTokenReserves: s.Account.VirtualTokenReserves,
		Complete:             s.Complete,
	}
}

// CSVHeaders returns the column names matching ToCSV.
func CSVHeaders() []string {
	return []string{
		"timestamp", "market", "mint", "slot", "price_sol", "decimals",
		"virtual_sol_reserves", "virtual_token_reserves", "complete",
	}
}

// ToCSV renders the record as a CSV row.
func (r PriceRecord) ToCSV() []string {
	return []string{
		r.Timestamp.Format(time.RFC3339Nano),
		r.Market,
		r.Mint,
		strconv.FormatUint(r.Slot, 10),
		r.Price,
		strconv.Itoa(int(r.Decimals)),
		strconv.FormatUint(r.VirtualSolReserves, 10),
		strconv.FormatUint(r.VirtualTokenReserves, 10),
		strconv.FormatBool(r.Complete),
	}
}

// PriceRecorder appends every delivered price to a file. It is a monitor.Sink
// and is safe for concurrent use by several sessions.
type PriceRecorder struct {
	mu       sync.Mutex
	file     *os.File
	buf      *bufio.Writer
	csv      *csv.Writer
	json     *json.Encoder
	format   ExportFormat
	filePath string
	logger   *zap.Logger

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	written uint64
}

// NewPriceRecorder opens (or creates) filePath in append mode. A CSV header is
// written only into an empty file.
func NewPriceRecorder(filePath string, logger *zap.Logger) (*PriceRecorder, error) {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat record file: %w", err)
	}

	r := &PriceRecorder{
		file:     file,
		buf:      bufio.NewWriter(file),
		format:   FormatFromPath(filePath),
		filePath: filePath,
		logger:   logger.Named("recorder"),
		ticker:   time.NewTicker(defaultFlushInterval),
		done:     make(chan struct{}),
	}

	switch r.format {
	case FormatCSV:
		r.csv = csv.NewWriter(r.buf)
		if info.Size() == 0 {
			if err := r.csv.Write(CSVHeaders()); err != nil {
				file.Close()
				return nil, fmt.Errorf("failed to write CSV headers: %w", err)
			}
		}
	default:
		r.json = json.NewEncoder(r.buf)
	}

	r.wg.Add(1)
	go r.periodicFlush()

	return r, nil
}

// OnPrice implements monitor.Sink.
func (r *PriceRecorder) OnPrice(_ context.Context, sample monitor.PriceSample) error {
	rec := NewPriceRecord(sample)

	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	switch r.format {
	case FormatCSV:
		err = r.csv.Write(rec.ToCSV())
	default:
		err = r.json.Encode(rec)
	}
	if err != nil {
		return fmt.Errorf("failed to record price: %w", err)
	}
	r.written++
	return nil
}

// Flush forces buffered rows to disk.
func (r *PriceRecorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *PriceRecorder) flushLocked() error {
	if r.csv != nil {
		r.csv.Flush()
		if err := r.csv.Error(); err != nil {
			return fmt.Errorf("failed to flush CSV writer: %w", err)
		}
	}
	if err := r.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}
	return nil
}

func (r *PriceRecorder) periodicFlush() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ticker.C:
			if err := r.Flush(); err != nil {
				r.logger.Error("Periodic flush failed",
					zap.String("file", r.filePath),
					zap.Error(err))
			}
		case <-r.done:
			return
		}
	}
}

// Written returns the number of recorded rows.
func (r *PriceRecorder) Written() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Close flushes and closes the file. Repeated calls return nil.
func (r *PriceRecorder) Close() error {
	var err error
	r.once.Do(func() {
		err = r.close()
	})
	return err
}

func (r *PriceRecorder) close() error {
	close(r.done)
	r.ticker.Stop()
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flushLocked(); err != nil {
		r.file.Close()
		return err
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close record file: %w", err)
	}

	r.logger.Info("Price recorder closed",
		zap.String("file", r.filePath),
		zap.Uint64("rows", r.written))
	return nil
}
