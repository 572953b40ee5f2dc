// pkg/intake/files.go
package intake

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// FileSource reads the three landing files: marketing CSV, subscriptions JSON and events NDJSON
type FileSource struct {
	marketingPath     string
	subscriptionsPath string
	eventsPath        string
	logger            *zap.Logger
}

// NewFileSource creates a file source over the given paths
func NewFileSource(marketingPath, subscriptionsPath, eventsPath string, logger *zap.Logger) *FileSource {
	return &FileSource{
		marketingPath:     marketingPath,
		subscriptionsPath: subscriptionsPath,
		eventsPath:        eventsPath,
		logger:            logger.Named("file-source"),
	}
}

// Name identifies the source in logs
func (s *FileSource) Name() string {
	return "files"
}

// Read parses the landing file for kind
func (s *FileSource) Read(ctx context.Context, kind model.Kind) (*Batch, error) {
	var (
		path  string
		parse func(io.Reader, []string) ([][]*string, int, error)
	)
	switch kind {
	case model.KindMarketing:
		path, parse = s.marketingPath, parseCSV
	case model.KindSubscriptions:
		path, parse = s.subscriptionsPath, parseJSONRecords
	case model.KindEvents:
		path, parse = s.eventsPath, parseNDJSON
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", kind, err)
	}
	defer f.Close()

	rows, dropped, err := parse(f, rawColumns(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	s.logger.Debug("Read landing file",
		zap.String("kind", string(kind)),
		zap.String("path", path),
		zap.Int("rows", len(rows)),
		zap.Int("dropped", dropped))

	return &Batch{Kind: kind, Rows: rows, Dropped: dropped}, nil
}

// parseCSV reads a headed CSV, keeping every value as text. Header names are matched
// case-insensitively; missing columns stay NULL and empty fields become NULL.
// Records with the wrong field count are dropped.
func parseCSV(r io.Reader, columns []string) ([][]*string, int, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	var (
		rows    [][]*string
		dropped int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				dropped++
				continue
			}
			return nil, dropped, err
		}

		row := make([]*string, len(columns))
		for i, col := range columns {
			if pos, ok := index[col]; ok && record[pos] != "" {
				v := record[pos]
				row[i] = &v
			}
		}
		rows = append(rows, row)
	}

	return rows, dropped, nil
}

// parseJSONRecords accepts either a JSON array of objects or newline-delimited objects
func parseJSONRecords(r io.Reader, columns []string) ([][]*string, int, error) {
	br := bufio.NewReader(r)

	for {
		b, err := br.Peek(1)
		if err == io.EOF {
			return nil, 0, nil
		}
		if err != nil {
			return nil, 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			br.ReadByte()
			continue
		case '[':
			return parseJSONArray(br, columns)
		default:
			return parseNDJSON(br, columns)
		}
	}
}

func parseJSONArray(r io.Reader, columns []string) ([][]*string, int, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var elements []json.RawMessage
	if err := dec.Decode(&elements); err != nil {
		return nil, 0, fmt.Errorf("invalid JSON array: %w", err)
	}

	var (
		rows    [][]*string
		dropped int
	)
	for _, raw := range elements {
		row, ok := decodeObject(raw, columns)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped, nil
}

// parseNDJSON decodes one object per line. Blank lines are skipped; lines that are not
// an object, or that carry a nested value in a mapped column, are dropped.
func parseNDJSON(r io.Reader, columns []string) ([][]*string, int, error) {
	br := bufio.NewReader(r)

	var (
		rows    [][]*string
		dropped int
	)
	for {
		line, err := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if row, ok := decodeObject(line, columns); ok {
				rows = append(rows, row)
			} else {
				dropped++
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dropped, err
		}
	}
	return rows, dropped, nil
}

// decodeObject maps one JSON object onto columns as text
func decodeObject(data []byte, columns []string) ([]*string, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	// Trailing garbage after the object makes the line malformed
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}

	row := make([]*string, len(columns))
	for i, col := range columns {
		v, ok := obj[col]
		if !ok || v == nil {
			continue
		}

		var s string
		switch val := v.(type) {
		case string:
			s = val
		case json.Number:
			s = val.String()
		case bool:
			if val {
				s = "true"
			} else {
				s = "false"
			}
		default:
			return nil, false
		}
		row[i] = &s
	}
	return row, true
}
