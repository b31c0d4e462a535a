package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/fatih/color"
	"github.com/jung-kurt/gofpdf"

	"github.com/khanhnv2901/seca-recon/internal/domain/report"
	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
)

const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
	formatPDF      = "pdf"
)

var reportFormats = []string{formatText, formatJSON, formatMarkdown, formatPDF}

var formatExtensions = map[string]string{
	formatText:     "txt",
	formatJSON:     "json",
	formatMarkdown: "md",
	formatPDF:      "pdf",
}

func validateFormat(format string) error {
	for _, f := range reportFormats {
		if f == format {
			return nil
		}
	}
	return &FlagError{Flag: "format", Value: format, Reason: "must be one of " + strings.Join(reportFormats, ", ")}
}

// reportSection is one probe rendered as plain lines.
type reportSection struct {
	Title  string
	Failed bool
	Reason string
	Lines  []string
}

// TemplateData holds the data for Markdown/PDF rendering.
type TemplateData struct {
	Target       string
	SessionID    string
	ScanMode     string
	Posture      string
	StartedAt    string
	CompletedAt  string
	Duration     string
	SuccessCount int
	ErrorCount   int
	Missing      []string
	Technologies []string
	Sections     []reportSection
}

var markdownReportTemplate = template.Must(template.New("report.md").Parse(`# Reconnaissance Report: {{.Target}}

| Field | Value |
|---|---|
| Session | {{.SessionID}} |
| Posture | **{{.Posture}}** |
| Started | {{.StartedAt}} |
| Completed | {{.CompletedAt}} |
| Duration | {{.Duration}} |
| Probes | {{.SuccessCount}} succeeded, {{.ErrorCount}} failed |
{{if .Missing}}
## Missing security headers
{{range .Missing}}
- {{.}}
{{- end}}
{{end}}{{if .Technologies}}
## Detected technologies
{{range .Technologies}}
- {{.}}
{{- end}}
{{end}}{{range .Sections}}
## {{.Title}}
{{if .Failed}}
_Could not determine {{.Title}} ({{.Reason}})._
{{else}}
{{range .Lines}}
- {{.}}
{{- end}}
{{end}}{{end}}`))

func buildTemplateData(rep *report.Report) TemplateData {
	data := TemplateData{
		Target:       rep.Target(),
		SessionID:    rep.SessionID(),
		ScanMode:     rep.ScanMode(),
		Posture:      string(rep.Posture()),
		StartedAt:    formatShortTimestamp(rep.StartedAt()),
		CompletedAt:  formatShortTimestamp(rep.FinishedAt()),
		Duration:     rep.FinishedAt().Sub(rep.StartedAt()).Round(time.Millisecond).String(),
		SuccessCount: rep.Succeeded(),
		ErrorCount:   rep.Failed(),
	}
	if missing, ok := rep.MissingHeaders(); ok {
		data.Missing = missing
	}
	for _, fp := range rep.Fingerprints() {
		data.Technologies = append(data.Technologies, fmt.Sprintf("%s (%s)", fp.Label, fp.Category))
	}
	for _, res := range rep.Results() {
		section := reportSection{Title: sectionTitle(res.Kind)}
		if !res.OK() {
			section.Failed = true
			section.Reason = string(res.Reason())
		} else {
			section.Lines = summaryLines(res.Payload)
		}
		data.Sections = append(data.Sections, section)
	}
	return data
}

func formatShortTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// summaryLines is the plain-text digest of a payload used by file exports.
func summaryLines(payload scan.Payload) []string {
	switch p := payload.(type) {
	case scan.HeadersPayload:
		lines := []string{fmt.Sprintf("%s returned %d", p.URL, p.StatusCode)}
		for _, name := range p.Headers.Names() {
			lines = append(lines, fmt.Sprintf("%s: %s", name, p.Headers.Get(name)))
		}
		return lines
	case scan.SecurityHeadersPayload:
		lines := make([]string, 0, len(p.Checks))
		for _, c := range p.Checks {
			lines = append(lines, fmt.Sprintf("%s: %s", c.Name, presentMissing(c.Present)))
		}
		return lines
	case scan.RedirectPayload:
		if !p.RedirectsToHTTPS {
			return []string{fmt.Sprintf("No redirection (status %d)", p.StatusCode)}
		}
		return []string{fmt.Sprintf("Redirects with %d to %s", p.StatusCode, p.Location)}
	case scan.TLSPayload:
		lines := []string{
			"Issuer: " + p.Issuer,
			"Expires: " + p.Expires.Format(time.RFC3339),
			fmt.Sprintf("Valid: %s", yesNo(p.Valid)),
			fmt.Sprintf("Trusted: %s", yesNo(p.Trusted)),
			"Version: " + p.Version,
		}
		if p.ExpiresSoon {
			lines = append(lines, "Certificate expires soon")
		}
		return lines
	case scan.WAFPayload:
		return []string{p.Label()}
	case scan.CDNPayload:
		if !p.Detected() {
			return []string{"No CDN detected"}
		}
		lines := make([]string, 0, len(p.Providers)+len(p.Evidence))
		for _, fp := range p.Providers {
			lines = append(lines, "Provider: "+fp.Label)
		}
		keys := make([]string, 0, len(p.Evidence))
		for k := range p.Evidence {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %s", k, p.Evidence[k]))
		}
		return lines
	case scan.FingerprintPayload:
		if len(p.Fingerprints) == 0 {
			return []string{"No technologies detected"}
		}
		lines := make([]string, 0, len(p.Fingerprints))
		for _, fp := range p.Fingerprints {
			lines = append(lines, fmt.Sprintf("%s (%s)", fp.Label, fp.Category))
		}
		return lines
	case scan.PerformancePayload:
		return []string{fmt.Sprintf("Response time %s (status %d)", p.Elapsed.Round(time.Millisecond), p.StatusCode)}
	case scan.SEOPayload:
		return []string{
			"Title: " + orDash(p.Title),
			"Description: " + orDash(p.Description),
			"robots.txt: " + yesNo(p.RobotsTxtFound),
			"sitemap.xml: " + yesNo(p.SitemapURL != ""),
		}
	case scan.PortScanPayload:
		if len(p.Ports) == 0 {
			return []string{fmt.Sprintf("No open ports on %s (%s)", p.Address, p.Mode)}
		}
		lines := make([]string, 0, len(p.Ports))
		for _, port := range p.Ports {
			lines = append(lines, fmt.Sprintf("%d/%s %s", port.Number, port.Protocol, port.Service))
		}
		return lines
	default:
		return []string{fmt.Sprint(p)}
	}
}

func presentMissing(present bool) string {
	if present {
		return "present"
	}
	return "missing"
}

func generateMarkdownReport(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := markdownReportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func generatePDFReportBytes(data TemplateData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr("Reconnaissance Report: "+data.Target), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Session: "+data.SessionID, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, "Started: "+data.StartedAt, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, "Completed: "+data.CompletedAt, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Probes: %d succeeded, %d failed", data.SuccessCount, data.ErrorCount), "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Posture: "+strings.ToUpper(data.Posture), "", 1, "", false, 0, "")
	pdf.Ln(3)

	if len(data.Missing) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Missing security headers", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, h := range data.Missing {
			pdf.CellFormat(0, 5, "- "+h, "", 1, "", false, 0, "")
		}
		pdf.Ln(3)
	}

	for _, section := range data.Sections {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(0, 7, tr(section.Title), "", 1, "", true, 0, "")
		pdf.Ln(1)
		pdf.SetFont("Arial", "", 9)
		if section.Failed {
			pdf.SetTextColor(180, 0, 0)
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("Could not determine %s (%s)", section.Title, section.Reason)), "", "", false)
			pdf.SetTextColor(0, 0, 0)
		} else {
			for _, line := range section.Lines {
				pdf.MultiCell(0, 5, tr("- "+line), "", "", false)
			}
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeReport renders rep in format.
func encodeReport(w io.Writer, rep *report.Report, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case formatMarkdown:
		md, err := generateMarkdownReport(buildTemplateData(rep))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	case formatPDF:
		data, err := generatePDFReportBytes(buildTemplateData(rep))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		renderReport(w, rep)
		return nil
	}
}

// encodePlain is encodeReport with terminal colors disabled.
func encodePlain(w io.Writer, rep *report.Report, format string) error {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()
	return encodeReport(w, rep, format)
}
