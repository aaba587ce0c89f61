package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/sqlitelib/internal/statement"
)

func TestParseParam(t *testing.T) {
	ts := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		spec string
		want statement.Param
	}{
		{"name=widget", statement.TextParam("name", "widget")},
		{"name:text=a=b", statement.TextParam("name", "a=b")},
		{"@id:integer=42", statement.IntegerParam("@id", 42)},
		{"id:int=-1", statement.IntegerParam("id", -1)},
		{"price:real=2.5", statement.RealParam("price", 2.5)},
		{"data:blob=cafe", statement.BlobParam("data", []byte{0xca, 0xfe})},
		{"ok:bool=true", statement.P("ok", statement.Boolean, true)},
		{"at:datetime=2026-10-15T09:30:00Z", statement.P("at", statement.DateTime, ts)},
		{"gone:null=", statement.NullParam("gone", statement.Text)},
		{"empty=", statement.TextParam("empty", "")},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseParam(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseParam_Invalid(t *testing.T) {
	for _, spec := range []string{
		"novalue",
		"=x",
		":integer=1",
		"id:integer=abc",
		"price:real=x",
		"data:blob=zz",
		"ok:bool=maybe",
		"at:datetime=yesterday",
		"x:uuid=1",
	} {
		t.Run(spec, func(t *testing.T) {
			_, err := parseParam(spec)
			assert.Error(t, err)
		})
	}
}

func TestBuildStatement(t *testing.T) {
	stmt, err := buildStatement("select @a, @b", []string{"a=1", "b:integer=2"})
	require.NoError(t, err)
	require.Len(t, stmt.Params(), 2)
	assert.Equal(t, "1", stmt.Params()[0].Value)
	assert.Equal(t, int64(2), stmt.Params()[1].Value)

	_, err = buildStatement("select @a", []string{"a=1", "a=2"})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, statement.ErrDuplicateParam)

	_, err = buildStatement("   ", nil)
	assert.ErrorIs(t, err, statement.ErrEmptyCommand)
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single without semicolon", "select 1", []string{"select 1"}},
		{"blank chunks dropped", " ; select 1;;\n select 2 ;\n", []string{"select 1", "select 2"}},
		{"semicolon in single quotes", "insert into T values ('a;b'); select 1", []string{"insert into T values ('a;b')", "select 1"}},
		{"doubled quote", "select 'it''s;fine'; select 2", []string{"select 'it''s;fine'", "select 2"}},
		{"double-quoted identifier", `select "a;b" from T;`, []string{`select "a;b" from T`}},
		{"empty", "", nil},
		{"apostrophe in line comment", "-- don't drop\ninsert into T values (1);\ninsert into T values (2);",
			[]string{"insert into T values (1)", "insert into T values (2)"}},
		{"semicolon in block comment", "select /* a;b 'c */ 1; select 2", []string{"select   1", "select 2"}},
		{"comment only chunk dropped", "select 1; -- done;\n", []string{"select 1"}},
		{"unterminated block comment", "select 1; /* trailing", []string{"select 1"}},
		{"dashes inside quotes kept", "select '--x'; select 2", []string{"select '--x'", "select 2"}},
		{"single dash is an operator", "select 3-1; select 2", []string{"select 3-1", "select 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitStatements(tt.in))
		})
	}
}
