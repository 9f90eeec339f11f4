package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"recall-insights-go/internal/logger"
	"recall-insights-go/internal/table"
)

var (
	ErrUnreadableCSV        = errors.New("could not read CSV with any known encoding/delimiter")
	ErrNoUsableSheets       = errors.New("no sheet contains usable data")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
)

// csvEncodings are tried in order. A nil encoding means the bytes are
// used as-is (UTF-8).
var csvEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", nil},
	{"latin-1", charmap.ISO8859_1},
	{"iso-8859-1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
}

var csvDelimiters = []rune{',', ';', '\t'}

// LoadTable decodes raw upload bytes into a single table. CSV inputs are
// tried against every encoding x delimiter combination, stopping at the
// first that yields at least two columns and one data row. Spreadsheets
// contribute every sheet that passes the same bar, concatenated row-wise.
// Placeholder ("Unnamed") columns are removed in both paths.
func LoadTable(raw []byte, ext string) (table.Table, error) {
	log := logger.Component("ingest").WithField("ext", ext)
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "csv":
		t, err := loadCSV(raw)
		if err != nil {
			log.WithError(err).Warn("csv load failed")
			return table.Table{}, err
		}
		return t.DropUnnamed(), nil
	case "xlsx", "xls":
		t, err := loadWorkbook(raw)
		if err != nil {
			log.WithError(err).Warn("workbook load failed")
			return table.Table{}, err
		}
		return t.DropUnnamed(), nil
	default:
		return table.Table{}, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
}

// LoadTarget loads the reason ("target") dataset. It shares LoadTable's
// decoding but deliberately skips timestamp/phone/duration detection:
// the table is returned as uploaded, minus placeholder columns.
func LoadTarget(raw []byte, ext string) (table.Table, error) {
	return LoadTable(raw, ext)
}

func loadCSV(raw []byte) (table.Table, error) {
	for _, enc := range csvEncodings {
		decoded := raw
		if enc.enc == nil {
			// plain UTF-8 leg: reject invalid bytes so the single-byte
			// encodings get their turn, as a decode error would in pandas
			if !utf8.Valid(raw) {
				continue
			}
		} else {
			d, err := enc.enc.NewDecoder().Bytes(raw)
			if err != nil {
				continue
			}
			decoded = d
		}
		for _, delim := range csvDelimiters {
			t, ok := parseCSV(decoded, delim)
			if ok {
				logger.Component("ingest").WithFields(map[string]interface{}{
					"encoding":  enc.name,
					"delimiter": string(delim),
					"rows":      len(t.Rows),
				}).Info("csv decoded")
				return t, nil
			}
		}
	}
	return table.Table{}, ErrUnreadableCSV
}

func parseCSV(data []byte, delim rune) (table.Table, bool) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var t table.Table
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return table.Table{}, false
		}
		if t.Headers == nil {
			t.Headers = record
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	if len(t.Headers) < 2 || len(t.Rows) == 0 {
		return table.Table{}, false
	}
	return t, true
}

func loadWorkbook(raw []byte) (table.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return table.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var accepted []table.Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) < 2 {
			continue
		}
		t := table.Table{Headers: rows[0], Rows: rows[1:]}
		if len(t.Headers) < 2 {
			continue
		}
		accepted = append(accepted, t)
	}
	if len(accepted) == 0 {
		return table.Table{}, ErrNoUsableSheets
	}
	return table.Concat(accepted...), nil
}
