package statement

import (
	"database/sql"
	"fmt"
	"strings"
)

// Statement is an immutable SQL command plus its ordered parameter bindings.
//
// The zero value is not usable; build statements with New, Must, Plain or
// Inline. The number of parameters is expected to match the placeholders
// referenced by the text; that is the caller's contract and is not checked.
type Statement struct {
	text   string
	params []Param
}

// New builds a parameterised statement. The text is used verbatim.
//
// Parameters:
//   - text: SQL with @name placeholders
//   - params: Bindings in placeholder order
//
// Returns:
//   - Statement: Validated immutable statement
//   - error: ErrEmptyCommand, ErrEmptyParamName, ErrDuplicateParam or ErrParamType
func New(text string, params ...Param) (Statement, error) {
	if strings.TrimSpace(text) == "" {
		return Statement{}, ErrEmptyCommand
	}

	seen := make(map[string]struct{}, len(params))
	bound := make([]Param, 0, len(params))
	for i, p := range params {
		name := normaliseName(p.Name)
		if name == "" {
			return Statement{}, fmt.Errorf("%w: parameter %d", ErrEmptyParamName, i)
		}
		if _, dup := seen[name]; dup {
			return Statement{}, fmt.Errorf("%w: %q", ErrDuplicateParam, name)
		}
		seen[name] = struct{}{}

		value, err := p.Type.coerce(p.Value)
		if err != nil {
			return Statement{}, fmt.Errorf("parameter %q: %w", name, err)
		}
		bound = append(bound, Param{Name: name, Type: p.Type, Value: value})
	}

	return Statement{text: text, params: bound}, nil
}

// Must is like New but panics on error. Intended for fixed statements in
// tests and package-level fixtures.
func Must(text string, params ...Param) Statement {
	s, err := New(text, params...)
	if err != nil {
		panic(fmt.Sprintf("statement: %v", err))
	}
	return s
}

// Plain wraps command text that carries no parameters. The text is not
// modified; an empty command yields a statement that fails on execution.
func Plain(text string) Statement {
	return Statement{text: text}
}

// Inline wraps command text assembled with literal values written directly
// into it, replacing every double quote with a single quote so "abc" style
// literals become SQL string literals. Never use it for text that already
// uses placeholders.
func Inline(text string) Statement {
	return Statement{text: SanitizeInline(text)}
}

// SanitizeInline replaces double quotes with single quotes.
func SanitizeInline(text string) string {
	return strings.ReplaceAll(text, `"`, `'`)
}

// Text returns the command text.
func (s Statement) Text() string {
	return s.text
}

// Params returns a copy of the parameter bindings.
func (s Statement) Params() []Param {
	if len(s.params) == 0 {
		return nil
	}
	out := make([]Param, len(s.params))
	copy(out, s.params)
	return out
}

// Args returns the bindings as database/sql named arguments, ready for
// ExecContext and QueryContext.
func (s Statement) Args() []any {
	if len(s.params) == 0 {
		return nil
	}
	args := make([]any, len(s.params))
	for i, p := range s.params {
		args[i] = sql.Named(p.Name, p.Value)
	}
	return args
}

// IsZero reports whether the statement was never initialised.
func (s Statement) IsZero() bool {
	return s.text == "" && len(s.params) == 0
}

// String renders the statement for diagnostics: the text followed by the
// bindings, one per line.
func (s Statement) String() string {
	if len(s.params) == 0 {
		return s.text
	}
	var b strings.Builder
	b.WriteString(s.text)
	for _, p := range s.params {
		fmt.Fprintf(&b, "\n  @%s (%s) = %v", p.Name, p.Type, p.Value)
	}
	return b.String()
}

// FromText converts plain command strings to statements via Inline.
func FromText(cmds ...string) []Statement {
	out := make([]Statement, len(cmds))
	for i, c := range cmds {
		out[i] = Inline(c)
	}
	return out
}

// normaliseName strips a leading placeholder sigil so "@id", ":id" and
// "$id" all bind to the same parameter.
func normaliseName(name string) string {
	name = strings.TrimSpace(name)
	if name != "" && strings.ContainsRune("@:$", rune(name[0])) {
		name = name[1:]
	}
	return name
}
