package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ludo-technologies/pygather/domain"
)

// SliceFormatterImpl implements domain.SliceOutputFormatter
type SliceFormatterImpl struct {
	utils *FormatUtils
}

// NewSliceFormatter creates a new slice formatter
func NewSliceFormatter() *SliceFormatterImpl {
	return &SliceFormatterImpl{utils: NewFormatUtils()}
}

// Format renders the response as a string
func (f *SliceFormatterImpl) Format(resp *domain.SliceResponse, format domain.OutputFormat) (string, error) {
	var b strings.Builder
	if err := f.Write(resp, format, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Write renders the response to w
func (f *SliceFormatterImpl) Write(resp *domain.SliceResponse, format domain.OutputFormat, w io.Writer) error {
	switch format {
	case domain.OutputFormatText, "":
		_, err := io.WriteString(w, f.formatText(resp))
		return err
	case domain.OutputFormatJSON:
		return WriteJSON(w, resp)
	case domain.OutputFormatYAML:
		return WriteYAML(w, resp)
	case domain.OutputFormatCSV:
		return f.writeCSV(resp, w)
	case domain.OutputFormatDOT:
		_, err := io.WriteString(w, f.formatDOT(resp))
		return err
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *SliceFormatterImpl) formatText(resp *domain.SliceResponse) string {
	var b strings.Builder
	b.WriteString(f.utils.FormatMainHeader("Program Slice"))
	b.WriteString(f.utils.FormatLabel("Files", resp.Summary.FilesAnalyzed))
	if resp.Summary.FilesFailed > 0 {
		b.WriteString(f.utils.FormatLabel("Failed", resp.Summary.FilesFailed))
	}
	b.WriteString(f.utils.FormatLabel("Statements", resp.Summary.Statements))
	b.WriteString(f.utils.FormatLabel("Lines", resp.Summary.Lines))
	b.WriteString("\n")

	for _, file := range resp.Files {
		b.WriteString(f.utils.FormatSectionHeader(file.FilePath))
		if file.HasErrors() {
			for _, e := range file.Errors {
				fmt.Fprintf(&b, "  error: %s\n", e)
			}
			b.WriteString("\n")
			continue
		}
		b.WriteString(f.utils.FormatLabelWithIndent(SectionPadding, "lines", FormatLineRanges(file.Lines)))

		if len(file.Cells) > 0 {
			for _, cell := range file.Cells {
				fmt.Fprintf(&b, "\n  # cell %s [%d]\n", cell.CellID, cell.ExecutionCount)
				writeIndented(&b, cell.Code)
			}
		} else {
			b.WriteString("\n")
			writeIndented(&b, file.Code)
		}
		b.WriteString("\n")
	}

	b.WriteString(f.utils.FormatWarningsSection(resp.Warnings))
	return b.String()
}

func writeIndented(b *strings.Builder, code string) {
	for _, line := range strings.Split(strings.TrimSuffix(code, "\n"), "\n") {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString(strings.Repeat(" ", SectionPadding))
		b.WriteString(line)
		b.WriteString("\n")
	}
}

// writeCSV writes one row per kept line
func (f *SliceFormatterImpl) writeCSV(resp *domain.SliceResponse, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"file", "cell_id", "execution_count", "line", "code"}); err != nil {
		return err
	}
	for _, file := range resp.Files {
		if file.HasErrors() {
			continue
		}
		if len(file.Cells) > 0 {
			for _, cell := range file.Cells {
				code := strings.Split(cell.Code, "\n")
				for i, line := range cell.Lines {
					row := []string{file.FilePath, cell.CellID, strconv.Itoa(cell.ExecutionCount), strconv.Itoa(line), code[i]}
					if err := cw.Write(row); err != nil {
						return err
					}
				}
			}
			continue
		}
		code := strings.Split(file.Code, "\n")
		for i, line := range file.Lines {
			if err := cw.Write([]string{file.FilePath, "", "", strconv.Itoa(line), code[i]}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatDOT chains the kept lines of each file in program order
func (f *SliceFormatterImpl) formatDOT(resp *domain.SliceResponse) string {
	var b strings.Builder
	b.WriteString("digraph slice {\n")
	b.WriteString("  node [shape=box, fontname=\"monospace\"];\n")
	for i, file := range resp.Files {
		if file.HasErrors() {
			continue
		}
		fmt.Fprintf(&b, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&b, "    label=%s;\n", strconv.Quote(file.FilePath))
		code := strings.Split(file.Code, "\n")
		for j, line := range file.Lines {
			label := fmt.Sprintf("%d: %s", line, strings.TrimSpace(code[j]))
			fmt.Fprintf(&b, "    f%d_l%d [label=%s];\n", i, line, strconv.Quote(label))
			if j > 0 {
				fmt.Fprintf(&b, "    f%d_l%d -> f%d_l%d;\n", i, file.Lines[j-1], i, line)
			}
		}
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")
	return b.String()
}
