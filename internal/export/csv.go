// Package export appends settled orders to a durable CSV file. The export is
// an operational artifact: settlement treats a failed append as log-worthy,
// never as a payment failure.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var header = []string{"Order Id", "Customer Id", "Transaction Id", "Total (minor units)", "Currency", "Date paid"}

// Record is one settled order.
type Record struct {
	OrderID       string
	CustomerID    string
	TransactionID string
	TotalCents    int64
	Currency      string
	PaidAt        time.Time
}

// CSVWriter appends records to a single file, writing the header once. Calls
// are serialized so concurrent settlements cannot interleave rows.
type CSVWriter struct {
	mu   sync.Mutex
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

func (w *CSVWriter) Append(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}

	needHeader, err := w.needsHeader()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needHeader {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("write export header: %w", err)
		}
	}
	row := []string{
		rec.OrderID,
		rec.CustomerID,
		rec.TransactionID,
		fmt.Sprintf("%d", rec.TotalCents),
		rec.Currency,
		rec.PaidAt.UTC().Format("2006-01-02 15:04:05"),
	}
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("write export row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return nil
}

func (w *CSVWriter) needsHeader() (bool, error) {
	f, err := os.Open(w.path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	first, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && first == "" {
		return true, nil
	}
	return !strings.Contains(first, header[0]), nil
}
