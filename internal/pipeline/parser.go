package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dvloznov/bill-sync/internal/logger"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// RawRow maps header names to the cell values of one data row.
type RawRow map[string]string

// TextEncoding is a candidate encoding for an export file.
type TextEncoding struct {
	Name   string
	Decode func(data []byte) ([]byte, error)
}

var errInvalidUTF8 = errors.New("invalid UTF-8 byte sequence")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Encodings lists the candidate encodings in the order they are tried.
// Exports from WeChat Pay are UTF-8; Alipay and most bank exports are GBK.
var Encodings = []TextEncoding{
	{
		Name: "utf-8",
		Decode: func(data []byte) ([]byte, error) {
			if !utf8.Valid(data) {
				return nil, errInvalidUTF8
			}
			return bytes.TrimPrefix(data, utf8BOM), nil
		},
	},
	{
		Name: "gbk",
		Decode: func(data []byte) ([]byte, error) {
			out, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
			return out, err
		},
	},
}

// IsCSV reports whether path names a file the parser handles.
func IsCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), csvSuffix)
}

// ParseTransactions reads an exported CSV file and returns one RawRow per data row.
// The first encoding that decodes the whole file is used; when none does, the
// file yields no rows. Rows before the header row are discarded.
func ParseTransactions(ctx context.Context, path string) ([]RawRow, error) {
	log := logger.FromContext(ctx)

	if !IsCSV(path) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ParseTransactions: reading %s: %w", path, err)
	}

	for _, enc := range Encodings {
		text, err := enc.Decode(data)
		if err != nil {
			log.Warn().
				Err(err).
				Str("file", path).
				Str("encoding", enc.Name).
				Msg("Failed to decode export, trying next encoding")
			continue
		}

		rows, err := parseRows(bytes.NewReader(text))
		if err != nil {
			return nil, fmt.Errorf("ParseTransactions: %s (%s): %w", path, enc.Name, err)
		}

		log.Info().
			Str("file", path).
			Str("encoding", enc.Name).
			Int("rows", len(rows)).
			Msg("Parsed export file")
		return rows, nil
	}

	log.Warn().Str("file", path).Msg("No candidate encoding could decode export, skipping file")
	return nil, nil
}

// parseRows sniffs the header row by its sentinel column and zips every later
// row against it. A row repeating the sentinel replaces the header.
func parseRows(r io.Reader) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		header []string
		rows   []RawRow
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if isHeader(record) {
			header = make([]string, len(record))
			for i, name := range record {
				header[i] = strings.TrimSpace(name)
			}
			continue
		}
		if header == nil {
			continue
		}

		row := make(RawRow, len(header))
		for i, name := range header {
			if i >= len(record) {
				break
			}
			row[name] = record[i]
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func isHeader(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) == HeaderSentinel {
			return true
		}
	}
	return false
}
