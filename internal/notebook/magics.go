package notebook

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	cellMagicPattern   = regexp.MustCompile(`^\s*%%`)
	lineMagicPattern   = regexp.MustCompile(`(?m)^[ \t]*(%(?:\\\s*\n|[^\n])+)`)
	shellEscapePattern = regexp.MustCompile(`(?m)^[ \t]*![^\n]*`)
	magicCommand       = regexp.MustCompile(`^%(\w+)`)
	magicPrefix        = regexp.MustCompile(`^([ \t]*)(%\w+[ \t]*)`)
	continuation       = regexp.MustCompile(`\\\s*\n`)
)

// MagicPosition is the zero-based position of a line magic within its cell
type MagicPosition struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Annotation is metadata prepended to a rewritten magic, written as a
// triple-quoted string literal holding "key: value"
type Annotation struct {
	Key   string
	Value string
}

// Rewrite is the outcome of a command-specific rewrite. An empty Text falls
// back to commenting the magic out.
type Rewrite struct {
	Text        string
	Annotations []Annotation
}

// LineMagicRewriter rewrites one line magic command
type LineMagicRewriter interface {
	// CommandName is the magic name without the leading %
	CommandName() string

	// Rewrite receives the matched text, the magic with continuations
	// removed, and its position in the cell
	Rewrite(matched, statement string, pos MagicPosition) Rewrite
}

// MagicsRewriter turns IPython cell text into plain Python without changing
// the line of any statement. It must be applied per cell so cell magics are
// recognized.
type MagicsRewriter struct {
	rewriters []LineMagicRewriter
}

// NewMagicsRewriter creates a rewriter. Without arguments the %time,
// %timeit and %pylab rewriters are installed.
func NewMagicsRewriter(rewriters ...LineMagicRewriter) *MagicsRewriter {
	if len(rewriters) == 0 {
		rewriters = DefaultLineMagicRewriters()
	}
	return &MagicsRewriter{rewriters: rewriters}
}

// DefaultLineMagicRewriters returns the built-in command rewriters
func DefaultLineMagicRewriters() []LineMagicRewriter {
	return []LineMagicRewriter{
		TimeRewriter{Command: "time"},
		TimeRewriter{Command: "timeit"},
		PylabRewriter{},
	}
}

// Register adds r, replacing any rewriter for the same command
func (m *MagicsRewriter) Register(r LineMagicRewriter) {
	for i, existing := range m.rewriters {
		if existing.CommandName() == r.CommandName() {
			m.rewriters[i] = r
			return
		}
	}
	m.rewriters = append(m.rewriters, r)
}

// Rewrite removes the magics and shell escapes from text
func (m *MagicsRewriter) Rewrite(text string) string {
	if cellMagicPattern.MatchString(text) {
		return commentOut(text)
	}
	text = m.rewriteLineMagics(text)
	return shellEscapePattern.ReplaceAllStringFunc(text, func(s string) string {
		return "#" + s
	})
}

func (m *MagicsRewriter) rewriteLineMagics(text string) string {
	matches := lineMagicPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var out strings.Builder
	prev := 0
	for _, match := range matches {
		start, end := match[0], match[1]
		stmtStart := match[2]
		out.WriteString(text[prev:start])

		matched := text[start:end]
		statement := continuation.ReplaceAllString(text[stmtStart:end], "")
		pos := positionOf(text, stmtStart, end)

		var rewrite Rewrite
		if cmd := magicCommand.FindStringSubmatch(statement); cmd != nil {
			for _, r := range m.rewriters {
				if r.CommandName() == cmd[1] {
					rewrite = r.Rewrite(matched, statement, pos)
					break
				}
			}
		}

		replacement := rewrite.Text
		if replacement == "" {
			replacement = commentOut(matched)
		}
		for _, a := range rewrite.Annotations {
			replacement = "'''" + a.Key + ": " + a.Value + "''' " + replacement
		}
		out.WriteString(replacement)
		prev = end
	}
	out.WriteString(text[prev:])
	return out.String()
}

func commentOut(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = "#" + l
	}
	return strings.Join(lines, "\n")
}

// positionOf converts byte offsets into zero-based line and column numbers
func positionOf(text string, start, end int) MagicPosition {
	lineCol := func(offset int) (int, int) {
		before := text[:offset]
		line := strings.Count(before, "\n")
		return line, offset - (strings.LastIndex(before, "\n") + 1)
	}
	sl, sc := lineCol(start)
	el, ec := lineCol(end)
	return MagicPosition{StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec}
}

// TimeRewriter keeps the timed statement of %time and %timeit. The command
// is replaced by a string literal of the same width followed by ";", so
// columns do not move.
type TimeRewriter struct {
	Command string
}

// CommandName implements LineMagicRewriter
func (r TimeRewriter) CommandName() string { return r.Command }

// Rewrite implements LineMagicRewriter
func (r TimeRewriter) Rewrite(matched, _ string, _ MagicPosition) Rewrite {
	m := magicPrefix.FindStringSubmatchIndex(matched)
	if m == nil {
		return Rewrite{}
	}
	indent := matched[:m[3]]
	prefix := matched[m[4]:m[5]]
	rest := matched[m[5]:]
	if strings.TrimSpace(rest) == "" || len(prefix) < 4 {
		return Rewrite{}
	}
	return Rewrite{Text: indent + `"` + strings.Repeat(" ", len(prefix)-4) + `"; ` + rest}
}

// pylabNames are the names %pylab brings into the namespace
var pylabNames = []string{
	"numpy", "matplotlib", "pylab", "mlab", "pyplot",
	"np", "plt", "display", "figsize", "getfigs",
}

// PylabRewriter comments %pylab out and annotates the names it defines
type PylabRewriter struct{}

// CommandName implements LineMagicRewriter
func (PylabRewriter) CommandName() string { return "pylab" }

// Rewrite implements LineMagicRewriter. Positions are relative to the line
// of the magic, which is where the annotation literal ends up.
func (PylabRewriter) Rewrite(_, _ string, pos MagicPosition) Rewrite {
	type def struct {
		Name string    `json:"name"`
		Pos  [2][2]int `json:"pos"`
	}
	defs := make([]def, 0, len(pylabNames))
	for _, name := range pylabNames {
		defs = append(defs, def{
			Name: name,
			Pos:  [2][2]int{{0, pos.StartCol}, {pos.EndLine - pos.StartLine, pos.EndCol}},
		})
	}
	data, err := json.Marshal(defs)
	if err != nil {
		return Rewrite{}
	}
	return Rewrite{Annotations: []Annotation{{Key: "defs", Value: string(data)}}}
}
