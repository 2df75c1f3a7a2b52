package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"moralsim/domain/core"
	"moralsim/domain/dataset"
	"moralsim/internal"
)

// DataReader reads the reference dataset from a CSV or XLSX file
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: internal.DefaultLogger}
}

// WithLogger overrides the default logger
func (r *DataReader) WithLogger(l *internal.Logger) *DataReader {
	if l != nil {
		r.logger = l
	}
	return r
}

// Name identifies the source
func (r *DataReader) Name() string {
	return filepath.Base(r.filePath)
}

// ReadDataset reads every respondent row. A missing file, a file without
// data rows, or a read failure all report ErrDatasetUnavailable.
func (r *DataReader) ReadDataset(ctx context.Context) (*dataset.Dataset, error) {
	r.logger.Info("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(r.filePath); err != nil {
		return nil, core.NewDatasetUnavailableError(r.filePath, err)
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, core.NewDatasetUnavailableError(r.filePath, err)
	}
	if len(rows) < 2 {
		return nil, core.NewDatasetUnavailableError(r.filePath,
			fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType)))
	}

	return r.processRows(rows), nil
}

// readExcelRows reads the first sheet of the workbook
func (r *DataReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheets[0], err)
	}
	r.logger.Debug("[DataReader] %s read in %.2fms (%d rows)",
		sheets[0], float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// readCSVRows reads CSV records, tolerating ragged rows
func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return readCSV(file)
}

func readCSV(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows converts raw string rows into dataset rows. Cells beyond the
// header are dropped; missing trailing cells stay absent.
func (r *DataReader) processRows(rows [][]string) *dataset.Dataset {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimPrefix(strings.TrimSpace(header), "\ufeff")
	}

	dataRows := make([]dataset.Row, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		rowData := make(dataset.Row, len(row))
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Info("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &dataset.Dataset{
		Source:   r.Name(),
		Headers:  headers,
		Rows:     dataRows,
		LoadedAt: time.Now().UTC(),
	}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
