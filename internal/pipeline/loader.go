package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"yqhp/pipeline-engine/internal/parser"
	"yqhp/pipeline-engine/pkg/types"
)

// NotFoundError is returned when no definition file matches a pipeline name.
type NotFoundError struct {
	Name  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pipeline '%s' not found (tried: %s)", e.Name, strings.Join(e.Tried, ", "))
}

// IsNotFoundError checks if err is, or wraps, a NotFoundError.
func IsNotFoundError(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// Loader 按名称或路径加载流水线定义。
type Loader struct {
	Dir    string
	parser *parser.YAMLParser
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{
		Dir:    dir,
		parser: parser.NewYAMLParser(),
	}
}

// Load resolves name to a definition file and parses it.
// A name ending in .yaml/.yml is a path; otherwise <dir>/<name>.yaml then <dir>/<name>.yml.
func (l *Loader) Load(name string) (*types.Pipeline, error) {
	path, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}

	p, err := l.parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("加载流水线 %s 失败: %w", name, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Resolve returns the definition file path for name.
func (l *Loader) Resolve(name string) (string, error) {
	if name == "" {
		return "", &NotFoundError{Name: name}
	}

	var candidates []string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		candidates = []string{name}
		if !filepath.IsAbs(name) && l.Dir != "" {
			candidates = append(candidates, filepath.Join(l.Dir, name))
		}
	default:
		candidates = []string{
			filepath.Join(l.Dir, name+".yaml"),
			filepath.Join(l.Dir, name+".yml"),
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", &NotFoundError{Name: name, Tried: candidates}
}
