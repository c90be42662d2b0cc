// Include path handling for #include "file".
package lexer

import (
	"os"
	"path/filepath"
	"strings"
)

// MaxIncludeDepth is the maximum allowed include nesting.
const MaxIncludeDepth = 200

// IncludeResolver finds included files and tracks the include stack. It
// also records every file read so callers can watch them for changes.
type IncludeResolver struct {
	UserPaths    []string // -I directories
	CurrentDir   string   // Directory of file currently being processed
	includeStack []string // Stack of included files for cycle detection
	files        []string
	seen         map[string]bool
}

// NewIncludeResolver creates a new include resolver.
func NewIncludeResolver(paths ...string) *IncludeResolver {
	return &IncludeResolver{
		UserPaths: append([]string{}, paths...),
		seen:      make(map[string]bool),
	}
}

// AddUserPath adds a -I include directory.
func (r *IncludeResolver) AddUserPath(path string) {
	r.UserPaths = append(r.UserPaths, path)
}

// SetCurrentFile sets the current file being processed (for relative includes).
func (r *IncludeResolver) SetCurrentFile(filename string) {
	if filename == "" {
		r.CurrentDir = ""
		return
	}
	r.CurrentDir = filepath.Dir(filename)
}

// Resolve finds an included file: the including file's directory first,
// then the -I paths, then the name as given.
func (r *IncludeResolver) Resolve(filename string) (string, error) {
	var searchPaths []string
	if r.CurrentDir != "" {
		searchPaths = append(searchPaths, r.CurrentDir)
	}
	searchPaths = append(searchPaths, r.UserPaths...)
	searchPaths = append(searchPaths, "")

	for _, dir := range searchPaths {
		fullPath := filepath.Join(dir, filename)
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath, nil
		}
	}
	return "", &IncludeError{Filename: filename}
}

// Files returns every file read so far, in first-read order.
func (r *IncludeResolver) Files() []string {
	return append([]string{}, r.files...)
}

func (r *IncludeResolver) read(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	abs := absPath(path)
	if !r.seen[abs] {
		r.seen[abs] = true
		r.files = append(r.files, path)
	}
	return string(content), nil
}

// push marks a file as being included. Returns an error if the file is
// already in the stack (circular include) or nesting is too deep.
func (r *IncludeResolver) push(path string) error {
	abs := absPath(path)
	for _, f := range r.includeStack {
		if f == abs {
			return &CircularIncludeError{Path: abs, Stack: r.includeStack}
		}
	}
	if len(r.includeStack) >= MaxIncludeDepth {
		return &IncludeError{Filename: path, TooDeep: true}
	}
	r.includeStack = append(r.includeStack, abs)
	return nil
}

func (r *IncludeResolver) pop() {
	if len(r.includeStack) > 0 {
		r.includeStack = r.includeStack[:len(r.includeStack)-1]
	}
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// IncludeError indicates that an include file was not found.
type IncludeError struct {
	Filename string
	TooDeep  bool
}

func (e *IncludeError) Error() string {
	if e.TooDeep {
		return "#include nested too deeply: " + e.Filename
	}
	return "include file not found: " + e.Filename
}

// CircularIncludeError indicates a circular include dependency.
type CircularIncludeError struct {
	Path  string
	Stack []string
}

func (e *CircularIncludeError) Error() string {
	var sb strings.Builder
	sb.WriteString("circular include detected: ")
	sb.WriteString(filepath.Base(e.Path))
	for i := len(e.Stack) - 1; i >= 0; i-- {
		sb.WriteString(" <- ")
		sb.WriteString(filepath.Base(e.Stack[i]))
	}
	return sb.String()
}
