package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// VectorNamer derives the display name of a combined vector quantity from
// the display names of its components.
type VectorNamer interface {
	VectorName(components []string) (string, error)
}

var componentWords = regexp.MustCompile(`(?i)\b(x|y|u|v|zonal|meridional|eastward|northward)\b`)

// DefaultVectorNamer strips component words from the first component name,
// e.g. "Sea Water X Velocity" becomes "Sea Water Velocity".
type DefaultVectorNamer struct{}

// VectorName implements VectorNamer.
func (DefaultVectorNamer) VectorName(components []string) (string, error) {
	if len(components) == 0 {
		return "", fmt.Errorf("%w: no vector components", ErrInvalidRequest)
	}
	name := componentWords.ReplaceAllString(components[0], " ")
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return components[0], nil
	}
	return name, nil
}

// ExprNamer evaluates a configured expression with the environment
// {name: first component, names: all components}. The expression must
// produce a string, e.g. `replace(name, "Eastward ", "") + " Speed"`.
type ExprNamer struct {
	source  string
	program *vm.Program
}

// NewExprNamer compiles source once; the program is safe for concurrent use.
func NewExprNamer(source string) (*ExprNamer, error) {
	env := map[string]any{"name": "", "names": []string{}}
	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("compile vector name expression %q: %w", source, err)
	}
	return &ExprNamer{source: source, program: program}, nil
}

// VectorName implements VectorNamer.
func (n *ExprNamer) VectorName(components []string) (string, error) {
	if len(components) == 0 {
		return "", fmt.Errorf("%w: no vector components", ErrInvalidRequest)
	}
	out, err := expr.Run(n.program, map[string]any{"name": components[0], "names": components})
	if err != nil {
		return "", fmt.Errorf("evaluate vector name expression %q: %w", n.source, err)
	}
	s, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("vector name expression %q returned %T, want string", n.source, out)
	}
	return s, nil
}
