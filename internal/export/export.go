// Package export writes projects to files and reads lead lists back in.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name. "yml" is accepted for yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", eris.Errorf("export: unknown format %q", s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// FileName returns a file name for p in format f.
func FileName(p model.Project, f Format) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, strings.TrimSpace(p.Name))
	if name == "" {
		name = "project-" + p.ID
	}
	return name + "." + string(f)
}

// leadColumns is the column order of tabular exports. The first five are
// also the columns ReadLeads understands.
var leadColumns = []string{
	"Name",
	"Address",
	"Website",
	"Phone",
	"Business Type",
	"ID",
	"Rating",
	"Status",
	"Lead Score",
	"SEO Score",
	"Design Score",
	"Mobile Score",
	"Contact Email",
	"Decision Maker",
	"Verification",
	"Compliance",
	"Last Email Sent",
	"Notes",
}

// Write encodes p to w in format f.
func Write(w io.Writer, p model.Project, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p); err != nil {
			return eris.Wrap(err, "export: encode json")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toDocument(p)); err != nil {
			return eris.Wrap(err, "export: encode yaml")
		}
		return eris.Wrap(enc.Close(), "export: close yaml")
	case FormatCSV:
		return writeCSV(w, p)
	case FormatXLSX:
		return writeXLSX(w, p)
	}
	return eris.Errorf("export: unknown format %q", f)
}

func writeCSV(w io.Writer, p model.Project) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(leadColumns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, l := range p.Leads {
		if err := cw.Write(leadRow(l)); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

func writeXLSX(w io.Writer, p model.Project) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range leadColumns {
		header.AddCell().SetString(col)
	}

	for _, l := range p.Leads {
		row := sheet.AddRow()
		for i, v := range leadRow(l) {
			cell := row.AddCell()
			switch leadColumns[i] {
			case "Rating":
				if l.Rating != 0 {
					cell.SetFloat(l.Rating)
					continue
				}
			case "Lead Score", "SEO Score", "Design Score", "Mobile Score":
				if n, err := strconv.Atoi(v); err == nil {
					cell.SetInt(n)
					continue
				}
			}
			cell.SetString(v)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write file")
	}
	return nil
}

// leadRow flattens l in leadColumns order.
func leadRow(l model.Lead) []string {
	var (
		leadScore, seo, design, mobile string
		decisionMaker, verification    string
		sentAt, rating                 string
	)
	if a := l.AuditReport; a != nil {
		seo = strconv.Itoa(a.SEOScore)
		design = strconv.Itoa(a.DesignScore)
		mobile = strconv.Itoa(a.MobileScore)
	}
	if d := l.DeepAnalysis; d != nil {
		leadScore = strconv.Itoa(d.LeadScore)
		decisionMaker = d.DecisionMaker
		verification = d.VerificationStatus
	}
	if l.LastEmailSentAt != nil {
		sentAt = l.LastEmailSentAt.UTC().Format(time.RFC3339)
	}
	if l.Rating != 0 {
		rating = strconv.FormatFloat(l.Rating, 'f', -1, 64)
	}

	return []string{
		l.Name,
		l.Address,
		l.Website,
		l.Phone,
		l.BusinessType,
		l.ID,
		rating,
		string(l.Status),
		leadScore,
		seo,
		design,
		mobile,
		l.ContactEmail(),
		decisionMaker,
		verification,
		l.ComplianceStatus,
		sentAt,
		l.Notes,
	}
}
