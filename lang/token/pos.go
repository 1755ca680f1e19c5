package token

import "sort"

// Pos is a byte offset into the source buffer managed by a File, 0-based.
// There is no sentinel "unknown" offset distinct from 0; callers that need
// to represent "no position" use SourceRange{} and check IsValid.
type Pos int

// Position is the decoded, human-readable form of a Pos: a 1-based line and
// column within a named file.
type Position struct {
	Filename string
	Line     int
	Col      int
}

// SourceRange is a half-open [Start,End) span of byte offsets within one
// File. Every AST node and Token carries one.
type SourceRange struct {
	Start, End Pos
}

// IsValid reports whether the range was actually set by the lexer/parser,
// as opposed to being the zero value.
func (r SourceRange) IsValid() bool { return r.End > r.Start || r.Start > 0 }

// File tracks the byte offsets at which new lines begin, so that a byte
// offset can be converted to a (line, col) pair without rescanning the
// source text. Offsets are recorded once, in increasing order, as the
// lexer advances past each '\n'.
type File struct {
	name  string
	size  int
	lines []int // byte offset of the first byte of each line; lines[0] == 0
}

// NewFile creates a File of the given name and byte size, with line 1
// starting at offset 0.
func NewFile(name string, size int) *File {
	return &File{name: name, size: size, lines: []int{0}}
}

// Name returns the file's name, as given to NewFile or FileSet.AddFile.
func (f *File) Name() string { return f.name }

// Size returns the file's byte length.
func (f *File) Size() int { return f.size }

// AddLine records that a new line begins at the given byte offset. Calls
// must be made with strictly increasing offsets; an out-of-order or
// duplicate offset is ignored.
func (f *File) AddLine(offset int) {
	if n := len(f.lines); n > 0 && f.lines[n-1] >= offset {
		return
	}
	if offset < 0 || offset > f.size {
		return
	}
	f.lines = append(f.lines, offset)
}

// Position converts a byte offset into this file to a 1-based (line, col).
func (f *File) Position(p Pos) Position {
	offset := int(p)
	// lines[i] is the start of line i+1; find the last line whose start is
	// <= offset.
	i := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return Position{
		Filename: f.name,
		Line:     i + 1,
		Col:      offset - f.lines[i] + 1,
	}
}

// FileSet holds the single File associated with one compilation. BlackLua
// compiles one source unit at a time (§3: "module system beyond a single
// compilation unit" is a non-goal), so unlike a multi-file FileSet this one
// never needs to translate a Pos across file boundaries; it exists so the
// lexer, parser, and diagnostics share one place that owns the File.
type FileSet struct {
	file *File
}

// NewFileSet returns an empty FileSet.
func NewFileSet() *FileSet { return &FileSet{} }

// AddFile creates and installs the FileSet's File, replacing any previous
// one (a fresh compilation starts a fresh FileSet).
func (fs *FileSet) AddFile(name string, size int) *File {
	fs.file = NewFile(name, size)
	return fs.file
}

// File returns the FileSet's current File, or nil if AddFile was never
// called.
func (fs *FileSet) File() *File { return fs.file }

// Position converts a Pos using the FileSet's File. It panics if AddFile
// has not been called; callers only ever hold a Pos produced after
// compilation started.
func (fs *FileSet) Position(p Pos) Position { return fs.file.Position(p) }
