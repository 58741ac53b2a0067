package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ludo-technologies/pygather/domain"
)

// DepsFormatterImpl implements domain.DependencyOutputFormatter
type DepsFormatterImpl struct{}

func NewDepsFormatter() *DepsFormatterImpl { return &DepsFormatterImpl{} }

func (f *DepsFormatterImpl) Write(resp *domain.DependencyResponse, format domain.OutputFormat, w io.Writer) error {
	switch format {
	case domain.OutputFormatText, "":
		_, err := io.WriteString(w, f.formatText(resp))
		return err
	case domain.OutputFormatJSON:
		return WriteJSON(w, resp)
	case domain.OutputFormatYAML:
		return WriteYAML(w, resp)
	case domain.OutputFormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"file", "kind", "from_line", "to_line", "from", "to"}); err != nil {
			return err
		}
		for _, file := range resp.Files {
			for _, e := range file.Edges {
				row := []string{
					file.FilePath,
					string(e.Kind),
					strconv.Itoa(e.From.StartLine),
					strconv.Itoa(e.To.StartLine),
					e.FromText,
					e.ToText,
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
		cw.Flush()
		return cw.Error()
	case domain.OutputFormatDOT:
		_, err := io.WriteString(w, f.formatDOT(resp))
		return err
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *DepsFormatterImpl) formatText(resp *domain.DependencyResponse) string {
	utils := NewFormatUtils()
	var b strings.Builder
	b.WriteString(utils.FormatMainHeader("Dependency Analysis"))
	b.WriteString(utils.FormatLabel("Files", resp.Summary.FilesAnalyzed))
	if resp.Summary.FilesFailed > 0 {
		b.WriteString(utils.FormatLabel("Failed", resp.Summary.FilesFailed))
	}
	b.WriteString(utils.FormatLabel("Data edges", resp.Summary.DataEdges))
	b.WriteString(utils.FormatLabel("Control edges", resp.Summary.ControlEdges))
	b.WriteString("\n")

	for _, file := range resp.Files {
		b.WriteString(utils.FormatSectionHeader(file.FilePath))
		if len(file.Errors) > 0 {
			for _, e := range file.Errors {
				fmt.Fprintf(&b, "  error: %s\n", e)
			}
			b.WriteString("\n")
			continue
		}
		for _, e := range file.Edges {
			fmt.Fprintf(&b, "  %-7s %4d -> %-4d %s  <-  %s\n", e.Kind, e.From.StartLine, e.To.StartLine, e.ToText, e.FromText)
		}
		b.WriteString("\n")
	}

	b.WriteString(utils.FormatWarningsSection(resp.Warnings))
	return b.String()
}

// formatDOT draws one cluster per file with a node per statement line
func (f *DepsFormatterImpl) formatDOT(resp *domain.DependencyResponse) string {
	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  node [shape=box, fontname=\"monospace\"];\n")
	for i, file := range resp.Files {
		fmt.Fprintf(&b, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&b, "    label=%s;\n", strconv.Quote(file.FilePath))
		seen := make(map[int]bool)
		node := func(line int, text string) {
			if seen[line] {
				return
			}
			seen[line] = true
			fmt.Fprintf(&b, "    f%d_l%d [label=%s];\n", i, line, strconv.Quote(fmt.Sprintf("%d: %s", line, text)))
		}
		for _, e := range file.Edges {
			node(e.From.StartLine, e.FromText)
			node(e.To.StartLine, e.ToText)
		}
		for _, e := range file.Edges {
			style := ""
			if e.Kind == domain.DependencyKindControl {
				style = " [style=dashed]"
			}
			fmt.Fprintf(&b, "    f%d_l%d -> f%d_l%d%s;\n", i, e.From.StartLine, i, e.To.StartLine, style)
		}
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")
	return b.String()
}
