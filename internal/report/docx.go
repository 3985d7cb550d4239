package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fumiama/go-docx"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/logger"
)

const (
	// Title is the report heading.
	Title = "Automated Compliance Test Report"
	// DefaultOutput is used when no output path is given.
	DefaultOutput = "compliance_report.docx"

	timestampFmt   = "2006-01-02 15:04:05"
	failedColorHex = "FF0000"
	titleStyle     = "Title"
	titleSize      = "52"
	borderColorHex = "000000"
)

// ErrTemplateNotFound is returned when the template document does not exist.
var ErrTemplateNotFound = errors.New("template not found")

var tableHeader = []string{"Test ID", "Requirement", "Result", "Details"}

// Document describes one report.
type Document struct {
	GeneratedAt time.Time
	Results     []TestResult
	// Template is an optional .docx; its body is kept and the report is appended after it.
	Template string
}

// OutputPath normalises the output name to a .docx path. A .pdf name is
// switched to .docx and reported through the second return value.
func OutputPath(path string) (string, bool) {
	if path == "" {
		return DefaultOutput, false
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return path, false
	case ".pdf":
		return path[:len(path)-len(".pdf")] + ".docx", true
	default:
		return path + ".docx", false
	}
}

// Write renders doc to path.
func Write(ctx context.Context, path string, doc *Document) error {
	if len(doc.Results) == 0 {
		return ErrNoResults
	}

	var template []byte

	if doc.Template != "" {
		data, err := os.ReadFile(filepath.Clean(doc.Template))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrTemplateNotFound, doc.Template)
			}

			return fmt.Errorf("read template: %w", err)
		}

		logger.InfoKV(ctx, "Using template document", "template", doc.Template)

		template = data
	}

	var buf bytes.Buffer
	if err := Render(&buf, template, doc); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Clean(path), buf.Bytes(), config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	logger.InfoKV(ctx, "Compliance report generated", "path", path, "records", len(doc.Results))

	return nil
}

// Render writes the .docx package to w. With a template, its parts and body
// are kept, the report follows the template content and the template's
// final section properties stay last.
func Render(w io.Writer, template []byte, doc *Document) error {
	file, err := open(template)
	if err != nil {
		return err
	}

	sections := detachSections(file)

	writeContent(file, doc)

	file.Document.Body.Items = append(file.Document.Body.Items, sections...)

	if _, err = file.WriteTo(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func open(template []byte) (*docx.Docx, error) {
	if template == nil {
		file := docx.New().WithDefaultTheme()
		file.Document.Body.Items = append(file.Document.Body.Items, &docx.SectPr{
			PgSz:  &docx.PgSz{W: 12240, H: 15840},
			PgMar: &docx.PgMar{Top: 1440, Left: 1440, Bottom: 1440, Right: 1440, Header: 720, Footer: 720},
		})

		return file, nil
	}

	file, err := docx.Parse(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	return file, nil
}

// detachSections removes the trailing section properties from the body and returns them.
func detachSections(file *docx.Docx) []any {
	items := file.Document.Body.Items

	end := len(items)
	for end > 0 {
		if _, ok := items[end-1].(*docx.SectPr); !ok {
			break
		}

		end--
	}

	sections := slices.Clone(items[end:])
	file.Document.Body.Items = items[:end]

	return sections
}

func writeContent(file *docx.Docx, doc *Document) {
	summary := Summarize(doc.Results)

	addRun(file.AddParagraph().Style(titleStyle), Title).Bold().Size(titleSize)
	addRun(file.AddParagraph(), "Report generated on: "+doc.GeneratedAt.Format(timestampFmt))

	p := file.AddParagraph()
	addRun(p, summary.Coverage())

	if summary.Compliant() {
		addRun(p, "All tests passed, indicating full compliance with the tested requirements.")
	} else {
		addRun(p, fmt.Sprintf("%d passed, %d failed. The system is ", summary.Passed, summary.Failed))
		addRun(p, "NOT").Bold()
		addRun(p, " fully compliant.")
	}

	if text := summary.NonCompliantText(); text != "" {
		addRun(file.AddParagraph(), text)
	}

	writeTable(file, doc.Results)
}

func writeTable(file *docx.Docx, results []TestResult) {
	table := file.AddTable(len(results)+1, len(tableHeader), 0, &docx.APITableBorderColors{
		Top:     borderColorHex,
		Left:    borderColorHex,
		Bottom:  borderColorHex,
		Right:   borderColorHex,
		InsideH: borderColorHex,
		InsideV: borderColorHex,
	})

	for i, title := range tableHeader {
		addRun(table.TableRows[0].TableCells[i].AddParagraph(), title).Bold()
	}

	for i := range results {
		result := &results[i]
		cells := table.TableRows[i+1].TableCells

		addRun(cells[0].AddParagraph(), result.DisplayTestID())
		addRun(cells[1].AddParagraph(), result.DisplayRequirement())

		status := addRun(cells[2].AddParagraph(), result.StatusText()).Bold()
		if !result.Passed() {
			status.Color(failedColorHex)
		}

		addRun(cells[3].AddParagraph(), result.DetailsText())
	}
}

// addRun appends a run that keeps leading and trailing spaces.
func addRun(p *docx.Paragraph, value string) *docx.Run {
	run := p.AddText(value)

	for _, child := range run.Children {
		if t, ok := child.(*docx.Text); ok {
			t.XMLSpace = "preserve"
		}
	}

	return run
}
