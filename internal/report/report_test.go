package report

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/require"
)

// TestTestResult_Passed checks the pass rule for every result encoding.
func TestTestResult_Passed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		result any
		want   bool
	}{
		{true, true},
		{false, false},
		{" Passed ", true},
		{"Y", true},
		{"1", true},
		{"fail", false},
		{"unknown", false},
		{json.Number("1"), true},
		{json.Number("0"), false},
		{json.Number("0.5"), true},
		{nil, false},
	}

	for _, tc := range cases {
		r := TestResult{Result: tc.result}
		require.Equal(t, tc.want, r.Passed(), "result %#v", tc.result)
	}
}

// TestTestResult_UnmarshalJSON falls back to the requirement key and keeps numbers exact.
func TestTestResult_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var r TestResult
	require.NoError(t, json.Unmarshal([]byte(`{
		"test_id": 7,
		"requirement": "REQ-1",
		"result": "PASS",
		"details": {"count": 3, "time": 0.08, "ok": true, "name": "bridge"}
	}`), &r))

	require.Equal(t, "7", r.TestID)
	require.Equal(t, "REQ-1", r.RequirementID)
	require.True(t, r.Passed())
	require.Equal(t, "count: 3; name: bridge; ok: True; time: 0.080", r.DetailsText())

	var preferred TestResult
	require.NoError(t, json.Unmarshal([]byte(`{"requirement_id":"REQ-A","requirement":"REQ-B"}`), &preferred))
	require.Equal(t, "REQ-A", preferred.RequirementID)
	require.Equal(t, "N/A", preferred.DisplayTestID())
	require.Empty(t, preferred.DetailsText())
	require.Equal(t, "FAILED", preferred.StatusText())
}

// TestDecodeJSON accepts an object or a list and skips non-object entries.
func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	single, err := DecodeJSON([]byte(`{"test_id":"T1","result":true}`))
	require.NoError(t, err)
	require.Len(t, single, 1)

	list, err := DecodeJSON([]byte(`[{"test_id":"T1"}, 42, "x", {"test_id":"T2"}]`))
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "T2", list[1].TestID)

	scalar, err := DecodeJSON([]byte(`"just a string"`))
	require.NoError(t, err)
	require.Empty(t, scalar)

	_, err = DecodeJSON([]byte(`{broken`))
	require.Error(t, err)
}

// TestDecodeCSV normalises the result column.
func TestDecodeCSV(t *testing.T) {
	t.Parallel()

	input := "test_id,requirement,result,details\n" +
		"T1,REQ-1,Passed,all good\n" +
		"T2,REQ-2,n,valve stuck\n" +
		"T3,REQ-3,maybe,\n"

	results, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Equal(t, true, results[0].Result)
	require.Equal(t, "REQ-1", results[0].RequirementID)
	require.Equal(t, false, results[1].Result)
	require.Equal(t, "valve stuck", results[1].DetailsText())
	require.Equal(t, "maybe", results[2].Result)
	require.False(t, results[2].Passed())
}

// TestLoad covers directories, single files and bad inputs.
func TestLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"test_id":"A","result":true}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.JSON"), []byte(`[{"test_id":"B1"},{"test_id":"B2"}]`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o600))

	results, err := Load(ctx, dir)
	require.NoError(t, err)
	require.Len(t, results, 3)

	results, err = Load(ctx, filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = Load(ctx, filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, ErrInputNotFound)

	_, err = Load(ctx, filepath.Join(dir, "notes.txt"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(ctx, filepath.Join(dir, "broken.json"))
	require.Error(t, err)
}

// TestSummarize reports coverage and non-compliant requirements.
func TestSummarize(t *testing.T) {
	t.Parallel()

	results := []TestResult{
		{TestID: "T1", RequirementID: "REQ-2", Result: true},
		{TestID: "T2", RequirementID: "REQ-2", Result: false},
		{TestID: "T3", RequirementID: "REQ-1", Result: "fail"},
		{TestID: "T4", RequirementID: "REQ-1", Result: false},
		{TestID: "T5", Result: false},
	}

	summary := Summarize(results)
	require.Equal(t, 5, summary.Total)
	require.Equal(t, 1, summary.Passed)
	require.Equal(t, 4, summary.Failed)
	require.Equal(t, 2, summary.Requirements)
	require.Equal(t, []string{"REQ-1", "REQ-2"}, summary.NonCompliant)
	require.Equal(t, "5 tests were executed, covering 2 requirements. 1 passed, 4 failed. The system is NOT fully compliant.", summary.Text())
	require.Equal(t, "Non-compliant requirements: REQ-1, REQ-2", summary.NonCompliantText())

	ok := Summarize([]TestResult{{RequirementID: "REQ-1", Result: true}})
	require.Equal(t, "1 tests were executed, covering 1 requirements. All tests passed, indicating full compliance with the tested requirements.", ok.Text())
	require.Empty(t, ok.NonCompliantText())
}

// TestOutputPath normalises report names.
func TestOutputPath(t *testing.T) {
	t.Parallel()

	path, pdf := OutputPath("")
	require.Equal(t, DefaultOutput, path)
	require.False(t, pdf)

	path, pdf = OutputPath("out/Report.PDF")
	require.Equal(t, "out/Report.docx", path)
	require.True(t, pdf)

	path, _ = OutputPath("report")
	require.Equal(t, "report.docx", path)

	path, _ = OutputPath("report.DOCX")
	require.Equal(t, "report.DOCX", path)
}

func readPart(t *testing.T, data []byte, name string) string {
	t.Helper()

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	for _, file := range archive.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		require.NoError(t, err)

		defer rc.Close()

		contents, err := io.ReadAll(rc)
		require.NoError(t, err)

		return string(contents)
	}

	t.Fatalf("part %s not found", name)

	return ""
}

// parseReport reads a rendered report back.
func parseReport(t *testing.T, data []byte) *docx.Docx {
	t.Helper()

	file, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	return file
}

// paragraphs returns the text of every top-level paragraph.
func paragraphs(file *docx.Docx) []string {
	var texts []string

	for _, item := range file.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			texts = append(texts, p.String())
		}
	}

	return texts
}

// firstTable returns the first table of the body.
func firstTable(t *testing.T, file *docx.Docx) *docx.Table {
	t.Helper()

	for _, item := range file.Document.Body.Items {
		if table, ok := item.(*docx.Table); ok {
			return table
		}
	}

	t.Fatal("table not found")

	return nil
}

// cellRun returns the first run of a table cell.
func cellRun(t *testing.T, cell *docx.WTableCell) *docx.Run {
	t.Helper()

	require.NotEmpty(t, cell.Paragraphs)

	for _, child := range cell.Paragraphs[0].Children {
		if run, ok := child.(*docx.Run); ok {
			return run
		}
	}

	t.Fatal("run not found")

	return nil
}

// TestRender produces a document with the summary and a coloured failure row.
func TestRender(t *testing.T) {
	t.Parallel()

	doc := &Document{
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Results: []TestResult{
			{TestID: "TC-1", RequirementID: "REQ-SYS-MNT-001", Result: true, Details: map[string]any{"visual": true}},
			{TestID: "TC-2", RequirementID: "REQ-<2>", Result: false, Details: "valve & signal"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, doc))

	file := parseReport(t, buf.Bytes())
	require.Equal(t, []string{
		Title,
		"Report generated on: 2026-01-02 03:04:05",
		"2 tests were executed, covering 2 requirements. 1 passed, 1 failed. The system is NOT fully compliant.",
		"Non-compliant requirements: REQ-<2>",
	}, paragraphs(file))

	table := firstTable(t, file)
	require.Len(t, table.TableRows, 3)
	require.Len(t, table.TableRows[0].TableCells, len(tableHeader))
	require.Equal(t, "Test ID", table.TableRows[0].TableCells[0].Paragraphs[0].String())
	require.Equal(t, "visual: True", table.TableRows[1].TableCells[3].Paragraphs[0].String())
	require.Equal(t, "valve & signal", table.TableRows[2].TableCells[3].Paragraphs[0].String())

	passed := cellRun(t, table.TableRows[1].TableCells[2])
	require.NotNil(t, passed.RunProperties.Bold)
	require.Nil(t, passed.RunProperties.Color)

	failed := cellRun(t, table.TableRows[2].TableCells[2])
	require.Equal(t, "FAILED", table.TableRows[2].TableCells[2].Paragraphs[0].String())
	require.NotNil(t, failed.RunProperties.Bold)
	require.Equal(t, failedColorHex, failed.RunProperties.Color.Val)

	last := file.Document.Body.Items[len(file.Document.Body.Items)-1]
	require.IsType(t, &docx.SectPr{}, last)
	require.NotEmpty(t, readPart(t, buf.Bytes(), "word/styles.xml"))
}

// TestWrite_Template appends the report after the template body and keeps its parts and page setup.
func TestWrite_Template(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	templatePath := filepath.Join(dir, "template.docx")

	var tpl bytes.Buffer

	archive := zip.NewWriter(&tpl)

	header, err := archive.Create("word/header1.xml")
	require.NoError(t, err)
	_, err = header.Write([]byte("<w:hdr>ACME Shipping</w:hdr>"))
	require.NoError(t, err)

	body, err := archive.Create("word/document.xml")
	require.NoError(t, err)
	_, err = body.Write([]byte(
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			`<w:p><w:r><w:t>ACME Marine Cover Page</w:t></w:r></w:p>` +
			`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr>` +
			`</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, archive.Close())
	require.NoError(t, os.WriteFile(templatePath, tpl.Bytes(), 0o600))

	out := filepath.Join(dir, "report.docx")
	err = Write(context.Background(), out, &Document{
		GeneratedAt: time.Now(),
		Results:     []TestResult{{TestID: "T1", Result: true}},
		Template:    templatePath,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "<w:hdr>ACME Shipping</w:hdr>", readPart(t, data, "word/header1.xml"))

	file := parseReport(t, data)

	texts := paragraphs(file)
	require.GreaterOrEqual(t, len(texts), 2)
	require.Equal(t, "ACME Marine Cover Page", texts[0])
	require.Equal(t, Title, texts[1])

	items := file.Document.Body.Items
	section, ok := items[len(items)-1].(*docx.SectPr)
	require.True(t, ok)
	require.NotNil(t, section.PgSz)
	require.Equal(t, 11906, section.PgSz.W)

	err = Write(context.Background(), out, &Document{Results: []TestResult{{}}, Template: filepath.Join(dir, "none.docx")})
	require.ErrorIs(t, err, ErrTemplateNotFound)

	require.ErrorIs(t, Write(context.Background(), out, &Document{}), ErrNoResults)
}
