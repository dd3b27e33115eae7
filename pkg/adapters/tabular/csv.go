package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// CSVDirLoader loads every *.csv file in a directory as a table. The file
// base name is the table name; the first row is the header.
type CSVDirLoader struct {
	dir    string
	logger *zap.Logger
}

// NewCSVDirLoader creates a loader over the given directory.
func NewCSVDirLoader(dir string, logger *zap.Logger) *CSVDirLoader {
	return &CSVDirLoader{dir: dir, logger: logger.Named("csv-loader")}
}

// LoadAll reads every CSV file in the directory. A file that fails to parse
// is skipped with a warning; the remaining tables still load.
func (l *CSVDirLoader) LoadAll(ctx context.Context) (map[string]*models.Table, error) {
	paths, err := l.Paths()
	if err != nil {
		return nil, err
	}

	tables := make(map[string]*models.Table, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := TableNameForPath(path)
		table, err := loadCSVFile(name, path)
		if err != nil {
			l.logger.Warn("Skipping unreadable source file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		tables[name] = table
	}
	return tables, nil
}

// Schema reports no declared metadata; CSV headers carry none.
func (l *CSVDirLoader) Schema(_ string) (models.TableSchema, bool) {
	return models.TableSchema{}, false
}

// LoadTable reads a single table by name.
func (l *CSVDirLoader) LoadTable(_ context.Context, name string) ([]models.Row, error) {
	table, err := loadCSVFile(name, filepath.Join(l.dir, name+".csv"))
	if err != nil {
		return nil, err
	}
	return table.Rows, nil
}

// Close is a no-op; files are opened per load.
func (l *CSVDirLoader) Close() {}

// Paths lists the CSV files currently in the directory, sorted by name.
func (l *CSVDirLoader) Paths() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory %q: %w", l.dir, err)
	}
	return paths, nil
}

// TableNameForPath derives the table name from a source file path.
func TableNameForPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func loadCSVFile(name, path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	if len(records) == 0 {
		return &models.Table{Name: name}, nil
	}

	columns := make([]string, len(records[0]))
	for i, h := range records[0] {
		columns[i] = strings.TrimSpace(h)
	}

	rows := make([]models.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(models.Row, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				break
			}
			row[col] = parseCell(record[i])
		}
		rows = append(rows, row)
	}

	return &models.Table{Name: name, Columns: columns, Rows: rows}, nil
}

// parseCell types a raw CSV cell: number, boolean, or string. Empty cells
// are null.
func parseCell(raw string) models.Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return models.NullValue
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return models.NumberValue(n)
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return models.BoolValue(true)
	case "false":
		return models.BoolValue(false)
	}
	return models.StringValue(trimmed)
}

var (
	_ TableLoader = (*CSVDirLoader)(nil)
	_ RecordStore = (*CSVDirLoader)(nil)
)
