package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/prospect-cli/internal/model"
)

// ReadLeads parses a lead list. Tabular formats need a header row with at
// least a Name column; Address, Website, Phone, Business Type and Rating are
// read when present. Rows without a name are skipped and duplicates (same
// website, or same name when there is none) are dropped. Every lead gets a
// fresh id from newID and starts as new.
func ReadLeads(r io.Reader, f Format, newID func() string) ([]model.Lead, error) {
	var rows [][]string
	switch f {
	case FormatCSV:
		reader := csv.NewReader(r)
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		if err != nil {
			return nil, eris.Wrap(err, "import: read csv")
		}
		rows = records
	case FormatXLSX:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "import: read xlsx")
		}
		rows, err = readSheet(data)
		if err != nil {
			return nil, err
		}
	case FormatJSON:
		var leads []model.Lead
		if err := json.NewDecoder(r).Decode(&leads); err != nil {
			return nil, eris.Wrap(err, "import: decode json")
		}
		return normalize(leads, newID), nil
	default:
		return nil, eris.Errorf("import: format %q is not supported", f)
	}

	return parseRows(rows, newID)
}

func readSheet(data []byte) ([][]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: file has no sheets")
	}

	sheet := f.Sheets[0]
	if s, ok := f.Sheet["Leads"]; ok {
		sheet = s
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func parseRows(rows [][]string, newID func() string) ([]model.Lead, error) {
	if len(rows) == 0 {
		return nil, eris.New("import: file has no header row")
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, col := range rows[0] {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := colIdx["name"]; !ok {
		return nil, eris.New(`import: missing required column "Name"`)
	}

	get := func(row []string, col string) string {
		i, ok := colIdx[strings.ToLower(col)]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	leads := make([]model.Lead, 0, len(rows)-1)
	for _, row := range rows[1:] {
		lead := model.Lead{
			Name:         get(row, "Name"),
			Address:      get(row, "Address"),
			Website:      get(row, "Website"),
			Phone:        get(row, "Phone"),
			BusinessType: get(row, "Business Type"),
		}
		if v := get(row, "Rating"); v != "" {
			if rating, err := strconv.ParseFloat(v, 64); err == nil {
				lead.Rating = rating
			}
		}
		leads = append(leads, lead)
	}
	return normalize(leads, newID), nil
}

func normalize(in []model.Lead, newID func() string) []model.Lead {
	seen := make(map[string]bool, len(in))
	out := make([]model.Lead, 0, len(in))
	for _, l := range in {
		l.Name = strings.TrimSpace(l.Name)
		if l.Name == "" {
			continue
		}
		key := "name:" + strings.ToLower(l.Name)
		if l.Website != "" {
			key = "site:" + strings.ToLower(strings.TrimSuffix(stripScheme(l.Website), "/"))
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		l.ID = newID()
		if l.Status == "" {
			l.Status = model.LeadStatusNew
		}
		out = append(out, l.Clone())
	}
	return out
}

func stripScheme(u string) string {
	u = strings.TrimSpace(u)
	for _, p := range []string{"https://", "http://"} {
		if len(u) >= len(p) && strings.EqualFold(u[:len(p)], p) {
			u = u[len(p):]
		}
	}
	return strings.TrimPrefix(u, "www.")
}

// FormatOf returns the format of a file by extension, defaulting to csv.
func FormatOf(name string) Format {
	switch lower := strings.ToLower(name); {
	case strings.HasSuffix(lower, ".xlsx"):
		return FormatXLSX
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	}
	return FormatCSV
}
