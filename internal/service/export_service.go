package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ip-manager/internal/domain"
	"github.com/spec-kit/ip-manager/internal/repository"
	apperrors "github.com/spec-kit/ip-manager/pkg/util"
)

// Export formats.
const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
)

// ExportFile is a rendered inventory download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the inventory as a downloadable document.
type ExportService struct {
	ips    repository.IPRepository
	logger *zap.Logger
}

// NewExportService builds the service.
func NewExportService(ips repository.IPRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{ips: ips, logger: logger.Named("export")}
}

// Export renders every entry in the requested format.
func (s *ExportService) Export(ctx context.Context, format string) (*ExportFile, error) {
	switch format {
	case ExportFormatJSON, ExportFormatCSV:
	default:
		return nil, apperrors.NewUnsupportedFormat()
	}

	entries, err := s.ips.List(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.IPEntry{}
	}

	var file *ExportFile
	if format == ExportFormatJSON {
		body, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		file = &ExportFile{Filename: "ips-export.json", ContentType: "application/json", Body: body}
	} else {
		if len(entries) == 0 {
			return nil, apperrors.NewNoData()
		}
		body, err := entriesToCSV(entries)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		file = &ExportFile{Filename: "ips-export.csv", ContentType: "text/csv", Body: []byte(body)}
	}

	s.logger.Info("inventory exported", zap.String("format", format), zap.Int("entries", len(entries)))
	return file, nil
}

// entriesToCSV uses the first entry's serialized keys as the header. Later entries
// contribute values for those keys only.
func entriesToCSV(entries []domain.IPEntry) (string, error) {
	records := make([]map[string]string, 0, len(entries))
	var header []string
	for i := range entries {
		raw, err := json.Marshal(entries[i])
		if err != nil {
			return "", err
		}
		keys, values, err := flattenObject(raw)
		if err != nil {
			return "", err
		}
		if i == 0 {
			header = keys
		}
		records = append(records, values)
	}

	rows := make([][]string, 0, len(records))
	for _, values := range records {
		row := make([]string, len(header))
		for j, key := range header {
			row[j] = values[key]
		}
		rows = append(rows, row)
	}
	return EncodeCSV(header, rows)
}

// flattenObject decodes a JSON object into its keys in document order and their
// scalar values rendered as text.
func flattenObject(raw []byte) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	values := make(map[string]string)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values[key] = scalarText(value)
	}
	return keys, values, nil
}

func scalarText(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	text := string(value)
	if text == "null" {
		return ""
	}
	return text
}

// EncodeCSV writes header and rows joined by newlines without a trailing newline.
// Fields containing separators, quotes or line breaks are quoted.
func EncodeCSV(header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", err
	}
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
