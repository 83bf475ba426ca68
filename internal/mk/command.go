package mk

// Command is one parsed, validated make instruction. Command trees are built
// once per block by the Parser and never mutated afterwards; only For and the
// structural commands (Group, Def) carry children.
type Command interface {
	// Kind is the command's name as written in a make block. It is used in
	// error paths and log lines.
	Kind() string
}

// CopyMode selects how a copy command treats destination rows that already
// exist within the written region.
type CopyMode int

const (
	// CopyOverwrite clears the destination region before writing. The default.
	CopyOverwrite CopyMode = iota
	// CopyKeepSelf keeps existing destination rows on collision.
	CopyKeepSelf
	// CopyKeepOther replaces colliding destination rows but keeps the rest.
	CopyKeepOther
	// CopyStrict fails the command on any collision.
	CopyStrict
)

var copyModeNames = map[string]CopyMode{
	"overwrite":  CopyOverwrite,
	"keep_self":  CopyKeepSelf,
	"keep_other": CopyKeepOther,
	"strict":     CopyStrict,
}

func (m CopyMode) String() string {
	for name, mode := range copyModeNames {
		if mode == m {
			return name
		}
	}
	return "overwrite"
}

// Copy duplicates the source region's rows onto each target point, shifted so
// the region start lands on the target. The source is never modified.
type Copy struct {
	Targets []ChartPoint
	Source  ChartRegion
	Mode    CopyMode
}

func (Copy) Kind() string { return "copy" }

// Erase removes rows within a region, leaving empty space (positions of later
// rows do not shift). With Columns set, only those columns are blanked.
type Erase struct {
	Region  ChartRegion
	Columns []int
}

func (Erase) Kind() string { return "erase" }

// Mirror reflects the column assignment of rows within a region about the
// chart's column axis, preserving timing.
type Mirror struct {
	Region ChartRegion
}

func (Mirror) Kind() string { return "mirror" }

// Let binds a name to a literal value in the current frame.
type Let struct {
	Name  string
	Value any
}

func (Let) Kind() string { return "let" }

// For runs Body once per iterable value with Name bound to that value in a
// fresh frame. Iteration order is the iterable's order; later iterations see
// chart mutations made by earlier ones.
type For struct {
	Name string
	In   Iterable
	Body Group
}

func (For) Kind() string { return "for" }

// Group runs a command sequence in a new binding scope.
type Group struct {
	Commands []Command
}

func (Group) Kind() string { return "group" }

// Def binds a name to a command body without running it.
type Def struct {
	Name string
	Body Group
}

func (Def) Kind() string { return "def" }

// Call runs a previously defined body in a new scope.
type Call struct {
	Name string
}

func (Call) Kind() string { return "call" }

// Pragma is a directive for the runner itself rather than the chart: "echo"
// logs its data, "vars" dumps the current frame, "raise" fails on purpose.
type Pragma struct {
	Name string
	Data any
}

func (Pragma) Kind() string { return "pragma" }
