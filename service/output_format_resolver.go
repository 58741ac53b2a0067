package service

import (
	"fmt"

	"github.com/ludo-technologies/pygather/domain"
)

// OutputFormatResolver resolves output format and file extension from flags
type OutputFormatResolver struct{}

func NewOutputFormatResolver() *OutputFormatResolver { return &OutputFormatResolver{} }

// Determine evaluates format flags and returns the selected format and
// extension. At most one flag may be true; none selects text.
func (r *OutputFormatResolver) Determine(json, yaml, csv, dot bool) (domain.OutputFormat, string, error) {
	formatCount := 0
	var format domain.OutputFormat
	var ext string

	if json {
		formatCount++
		format, ext = domain.OutputFormatJSON, "json"
	}
	if yaml {
		formatCount++
		format, ext = domain.OutputFormatYAML, "yaml"
	}
	if csv {
		formatCount++
		format, ext = domain.OutputFormatCSV, "csv"
	}
	if dot {
		formatCount++
		format, ext = domain.OutputFormatDOT, "dot"
	}

	if formatCount > 1 {
		return "", "", fmt.Errorf("only one output format flag can be specified")
	}
	if formatCount == 0 {
		return domain.OutputFormatText, "txt", nil
	}
	return format, ext, nil
}
