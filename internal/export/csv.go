// Package export renders expense collections as the persisted CSV layout and
// as Excel workbooks, and reads the CSV layout back.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"homemoney/internal/core"
	"homemoney/internal/log"
)

// Column headers of the persisted CSV layout.
const (
	HeaderType   = "类型"
	HeaderRemark = "备注"
	HeaderAmount = "金额"
	HeaderTime   = "日期"
)

// UncategorizedType replaces an empty type when writing.
const UncategorizedType = "未分类"

var csvHeader = []string{HeaderType, HeaderRemark, HeaderAmount, HeaderTime}

// ErrMissingColumn is returned by ReadCSV when a header column is absent.
var ErrMissingColumn = errors.New("missing csv column")

// WriteCSV writes records in the persisted layout. Every field is quoted and
// embedded quotes are doubled. Records without a usable date get today.
func WriteCSV(w io.Writer, records []core.ExpenseRecord, today string) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, csvHeader)
	for _, r := range records {
		typ := strings.TrimSpace(r.Type)
		if typ == "" {
			typ = UncategorizedType
		}
		date := today
		if r.Time != "" {
			if t, err := core.ParseDate(r.Time); err == nil {
				date = t.Format(core.DateLayout)
			}
		}
		writeRow(bw, []string{typ, r.Remark, core.FormatAmount(r.Amount), date})
	}
	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteString("\r\n")
}

// ReadCSV reads the persisted layout. Columns are located by header name and
// blank lines are skipped. Rows that do not form a valid record are skipped
// and counted in the returned number.
func ReadCSV(r io.Reader) ([]core.ExpenseRecord, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []core.ExpenseRecord{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		index[h] = i
	}
	for _, h := range []string{HeaderType, HeaderAmount, HeaderTime} {
		if _, ok := index[h]; !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissingColumn, h)
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := []core.ExpenseRecord{}
	skipped := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("read csv row: %w", err)
		}
		if blank(row) {
			continue
		}
		rec, err := core.NewExpenseRecord(
			field(row, HeaderType),
			field(row, HeaderRemark),
			field(row, HeaderAmount),
			field(row, HeaderTime),
		)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Mirror keeps a CSV file on disk in sync with the full collection.
type Mirror struct {
	path   string
	logger *log.Logger
	mu     sync.Mutex
}

func NewMirror(path string, logger *log.Logger) *Mirror {
	if logger == nil {
		logger = log.Discard()
	}
	return &Mirror{path: path, logger: logger.WithComponent(log.ComponentExport)}
}

func (m *Mirror) Path() string {
	return m.path
}

// Rewrite replaces the file with records, writing to a temporary file first.
func (m *Mirror) Rewrite(records []core.ExpenseRecord, today string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".expenses-*.csv")
	if err != nil {
		return fmt.Errorf("create temp csv: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, records, today); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp csv: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("replace csv: %w", err)
	}

	m.logger.Info("CSV mirror rewritten",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(records),
		"path", m.path)
	return nil
}

// Read returns the file content. The error satisfies os.IsNotExist when the
// mirror was never written.
func (m *Mirror) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return os.ReadFile(m.path)
}
