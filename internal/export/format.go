// Package export renders scratch-org listings as csv, json or yaml files.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/sflens/internal/domain"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts csv, json, yaml or yml (any case).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv, json or yaml)", s)
	}
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}

type column struct {
	header string
	value  func(o domain.ScratchOrgRecord) string
}

var csvColumns = []column{
	{"Alias", func(o domain.ScratchOrgRecord) string { return o.Alias }},
	{"Signup User", func(o domain.ScratchOrgRecord) string { return o.SignupUsername }},
	{"Username", func(o domain.ScratchOrgRecord) string { return o.Username }},
	{"Org Id", func(o domain.ScratchOrgRecord) string { return o.OrgID }},
	{"Edition", func(o domain.ScratchOrgRecord) string { return o.Edition }},
	{"Duration Days", func(o domain.ScratchOrgRecord) string {
		if o.DurationDays == 0 {
			return ""
		}
		return strconv.Itoa(o.DurationDays)
	}},
	{"Created Date", func(o domain.ScratchOrgRecord) string { return o.CreatedDate }},
	{"Expiration Date", func(o domain.ScratchOrgRecord) string { return o.ExpirationDate }},
	{"Created By", func(o domain.ScratchOrgRecord) string { return o.CreatedBy }},
}

// Render encodes orgs in format f. CSV has one header line and one line per
// org; json is indented by two spaces.
func Render(orgs []domain.ScratchOrgRecord, f Format) ([]byte, error) {
	if orgs == nil {
		orgs = []domain.ScratchOrgRecord{}
	}

	switch f {
	case FormatCSV:
		return renderCSV(orgs)
	case FormatJSON:
		return json.MarshalIndent(orgs, "", "  ")
	case FormatYAML:
		return yaml.Marshal(orgs)
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}

func renderCSV(orgs []domain.ScratchOrgRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(csvColumns))
	for i, c := range csvColumns {
		header[i] = c.header
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	row := make([]string, len(csvColumns))
	for _, o := range orgs {
		for i, c := range csvColumns {
			row[i] = c.value(o)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

var unsafeRun = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SafeFileNamePart turns input into a file-name fragment: runs of characters
// outside [a-zA-Z0-9._-] become "_", edge underscores are trimmed and an
// empty result becomes "unknown".
func SafeFileNamePart(input string) string {
	cleaned := unsafeRun.ReplaceAllString(strings.TrimSpace(input), "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}

// FileName is scratch-orgs-<hub>-<YYYY-MM-DD>.<format>, dated in UTC.
func FileName(devHubUsername string, f Format, now time.Time) string {
	return fmt.Sprintf("scratch-orgs-%s-%s.%s",
		SafeFileNamePart(devHubUsername), now.UTC().Format("2006-01-02"), f)
}
