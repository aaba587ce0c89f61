// Package statement defines the immutable SQL statement values consumed by
// the executor.
//
// A Statement is command text plus an ordered list of (name, type, value)
// bindings. Statements are only built through factories:
//
//	s, err := statement.New("insert into T (id,name) values (@id,@name)",
//	    statement.IntegerParam("id", 1),
//	    statement.TextParam("name", "a"),
//	)
//
// New never rewrites the text. Text produced by string builders that inline
// literal values with double quotes goes through Inline instead, which maps
// `"` to `'`. Keeping the two paths separate means placeholder-based text
// is never altered.
package statement
