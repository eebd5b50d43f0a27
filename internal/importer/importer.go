// Package importer reads leads from CSV files.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/lead-scorer/internal/model"
)

// Columns lists the recognised CSV headers. Unknown columns are ignored and
// missing ones leave the lead field empty.
var Columns = []string{"name", "role", "company", "industry", "location", "linkedin_bio"}

type leadRow struct {
	Name        string `mapstructure:"name"`
	Role        string `mapstructure:"role"`
	Company     string `mapstructure:"company"`
	Industry    string `mapstructure:"industry"`
	Location    string `mapstructure:"location"`
	LinkedInBio string `mapstructure:"linkedin_bio"`
}

func (r leadRow) lead() model.Lead {
	return model.Lead{
		Name:        r.Name,
		Role:        r.Role,
		Company:     r.Company,
		Industry:    r.Industry,
		Location:    r.Location,
		LinkedInBio: r.LinkedInBio,
	}
}

// ReadFile parses the CSV file at path.
func ReadFile(path string) ([]model.Lead, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open leads file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses CSV with a header row into leads. Blank rows are skipped.
func Read(r io.Reader) ([]model.Lead, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []model.Lead{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = normalizeHeader(header[i])
	}

	leads := make([]model.Lead, 0)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		fields := make(map[string]interface{}, len(header))
		for i, key := range header {
			if key == "" || i >= len(record) {
				continue
			}
			fields[key] = strings.TrimSpace(record[i])
		}

		var row leadRow
		if err := mapstructure.Decode(fields, &row); err != nil {
			return nil, fmt.Errorf("decode csv line %d: %w", line, err)
		}
		leads = append(leads, row.lead())
	}

	return leads, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
