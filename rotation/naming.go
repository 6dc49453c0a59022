package rotation

import (
	"strconv"
	"strings"
	"time"
)

// NamePattern expands an archive-name template containing the
// placeholders {basename}, {timestamp}, {index}, {size}, {extension}.
// Grounded on the teacher's handler/file.go rotate(), which builds its
// rotated filename with a single fmt.Sprintf; generalized here into a
// small placeholder expander since the spec names five independent
// substitutions rather than one fixed layout.
type NamePattern struct {
	Template string
}

// DefaultNamePattern is "{basename}_{timestamp}.{extension}", matching
// spec §6's default archive naming.
func DefaultNamePattern() NamePattern {
	return NamePattern{Template: "{basename}_{timestamp}.{extension}"}
}

// Params supplies the values substituted into a NamePattern.
type Params struct {
	Basename  string
	Extension string
	Index     int
	Size      int64
	Timestamp time.Time
}

var timestampLayout = "20060102_150405"

// Expand renders the pattern with p's values.
func (n NamePattern) Expand(p Params) string {
	r := strings.NewReplacer(
		"{basename}", p.Basename,
		"{extension}", p.Extension,
		"{timestamp}", p.Timestamp.Format(timestampLayout),
		"{index}", strconv.Itoa(p.Index),
		"{size}", strconv.FormatInt(p.Size, 10),
	)
	return r.Replace(n.Template)
}
