package cli

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/sqlitelib/internal/statement"
)

// parseParam parses a --param flag of the form name[:type]=value. The type
// defaults to text. A type of null binds SQL NULL and ignores the value.
//
//	-p name=widget  -p id:integer=3  -p data:blob=cafe  -p gone:null=
func parseParam(spec string) (statement.Param, error) {
	lhs, value, ok := strings.Cut(spec, "=")
	if !ok {
		return statement.Param{}, fmt.Errorf("param %q: want name[:type]=value", spec)
	}
	name, typ, _ := strings.Cut(lhs, ":")
	if strings.TrimSpace(name) == "" {
		return statement.Param{}, fmt.Errorf("param %q: empty name", spec)
	}

	switch strings.ToLower(typ) {
	case "", "text":
		return statement.TextParam(name, value), nil
	case "integer", "int":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return statement.Param{}, fmt.Errorf("param %q: %w", name, err)
		}
		return statement.IntegerParam(name, n), nil
	case "real", "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return statement.Param{}, fmt.Errorf("param %q: %w", name, err)
		}
		return statement.RealParam(name, f), nil
	case "blob":
		b, err := hex.DecodeString(value)
		if err != nil {
			return statement.Param{}, fmt.Errorf("param %q: blob must be hex: %w", name, err)
		}
		return statement.BlobParam(name, b), nil
	case "bool", "boolean":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return statement.Param{}, fmt.Errorf("param %q: %w", name, err)
		}
		return statement.P(name, statement.Boolean, b), nil
	case "datetime":
		ts, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return statement.Param{}, fmt.Errorf("param %q: %w", name, err)
		}
		return statement.P(name, statement.DateTime, ts), nil
	case "null":
		return statement.NullParam(name, statement.Text), nil
	default:
		return statement.Param{}, fmt.Errorf("param %q: unknown type %q", name, typ)
	}
}

// buildStatement turns a command's SQL argument and --param flags into a
// Statement. Without params the text is sent as given.
func buildStatement(text string, specs []string) (statement.Statement, error) {
	params := make([]statement.Param, 0, len(specs))
	for _, spec := range specs {
		p, err := parseParam(spec)
		if err != nil {
			return statement.Statement{}, WrapExitError(ExitCommandError, "invalid param", err)
		}
		params = append(params, p)
	}
	stmt, err := statement.New(text, params...)
	if err != nil {
		return statement.Statement{}, WrapExitError(ExitCommandError, "invalid statement", err)
	}
	return stmt, nil
}
