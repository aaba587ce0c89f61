package taglog

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestAddTag_CollapsesImmediateRepeat(t *testing.T) {
	l := NewWithSink(newTestSink(&memWriter{}))
	l.AddTag("x")
	l.AddTag("x")

	assert.Equal(t, []string{"[x]"}, l.Tags())
}

func TestAddTag_KeepsNonAdjacentRepeat(t *testing.T) {
	l := NewWithSink(newTestSink(&memWriter{}), "x", "y", "x")

	assert.Equal(t, []string{"[x]", "[y]", "[x]"}, l.Tags())
	assert.Equal(t, "[x][y][x]", l.Prefix())
}

func TestRemoveLastTag(t *testing.T) {
	l := NewWithSink(newTestSink(&memWriter{}), "a", "b")
	l.RemoveLastTag()
	assert.Equal(t, "[a]", l.Prefix())

	l.RemoveLastTag()
	l.RemoveLastTag()
	assert.Empty(t, l.Tags())
}

func TestClearTags(t *testing.T) {
	l := NewWithSink(newTestSink(&memWriter{}), "a", "b")
	l.ClearTags()
	assert.Empty(t, l.Prefix())

	l.AddTag("c")
	assert.Equal(t, "[c]", l.Prefix())
}

func TestAddSessionTag(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Za-z0-9]{5}$`)
	l := NewWithSink(newTestSink(&memWriter{}), "db")

	id := l.AddSessionTag()
	assert.Regexp(t, pattern, id)
	assert.Equal(t, "[db]["+id+"]", l.Prefix())

	other := l.AddSessionTag()
	assert.Regexp(t, pattern, other)
	assert.NotEqual(t, id, other)
}

func TestNewSessionID_Distribution(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		seen[NewSessionID()] = struct{}{}
	}
	// 62^5 possible ids; a handful of collisions in 1000 draws would be
	// astronomically unlikely.
	assert.Greater(t, len(seen), 995)
}

func TestClone_IsIndependent(t *testing.T) {
	original := NewWithSink(newTestSink(&memWriter{}), "a", "b")
	clone := original.Clone()

	assert.Equal(t, "[a][b]", clone.Prefix(), "clone keeps every tag")

	clone.AddTag("c")
	assert.Equal(t, "[a][b]", original.Prefix())

	original.RemoveLastTag()
	original.AddTag("z")
	assert.Equal(t, "[a][b][c]", clone.Prefix())
	assert.Equal(t, "[a][z]", original.Prefix())
}

func TestClone_SharesSink(t *testing.T) {
	w := &memWriter{}
	original := NewWithSink(newTestSink(w), "a")
	clone := original.Clone()
	clone.AddTag("b")

	require.NoError(t, original.WriteLog("one"))
	require.NoError(t, clone.WriteLog("two"))

	assert.Contains(t, w.String(), "[a]\n   one\n")
	assert.Contains(t, w.String(), "[a][b]\n   two\n")
}

func TestWriteLog_Golden(t *testing.T) {
	w := &memWriter{}
	l := NewWithSink(newTestSink(w), "db", "batch")

	require.NoError(t, l.WriteLog("insert into T values (1)"))
	l.RemoveLastTag()
	require.NoError(t, l.WriteLog("commit"))
	l.ClearTags()
	require.NoError(t, l.WriteLog("done"))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "entries", []byte(w.String()))
}

func TestWriteLogAsync_SnapshotsPrefix(t *testing.T) {
	w := &memWriter{}
	s := newTestSink(w)
	l := NewWithSink(s, "before")

	// Hold the sink so the async write cannot start until the tags changed.
	require.NoError(t, s.guard.Acquire(context.Background(), 1))
	done := l.WriteLogAsync(context.Background(), "msg")
	l.ClearTags()
	l.AddTag("after")
	s.guard.Release(1)

	require.NoError(t, <-done)
	assert.Equal(t, "2026-10-15 09:30:12.345 [before]\n   msg\n\n", w.String())
}

func TestWriteLogAsync_ClosedSinkIsSwallowed(t *testing.T) {
	s := newTestSink(&memWriter{})
	l := NewWithSink(s, "t")
	require.NoError(t, l.WriteLog("x"))
	require.NoError(t, s.Close())

	err, ok := <-l.WriteLogAsync(context.Background(), "after close")
	assert.True(t, ok)
	assert.NoError(t, err)

	_, ok = <-l.WriteLogAsync(context.Background(), "again")
	assert.True(t, ok)
}

func TestWriteLogAsync_ReportsWriteFailure(t *testing.T) {
	s := newTestSink(&memWriter{failures: 10}, WithRetryPolicy(RetryPolicy{MaxAttempts: 2}))

	err := <-NewWithSink(s).WriteLogAsync(context.Background(), "x")
	require.ErrorIs(t, err, ErrWriteFailed)
}

func TestWriteLogAsync_ContextCancelled(t *testing.T) {
	s := newTestSink(&memWriter{})
	require.NoError(t, s.guard.Acquire(context.Background(), 1))
	defer s.guard.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := <-NewWithSink(s).WriteLogAsync(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteLog_ClosedSink(t *testing.T) {
	s := newTestSink(&memWriter{})
	require.NoError(t, s.Close())

	require.ErrorIs(t, NewWithSink(s).WriteLog("x"), ErrSinkClosed)
}

func TestConcurrentWriters_DoNotInterleave(t *testing.T) {
	w := &memWriter{}
	s := newTestSink(w)
	root := NewWithSink(s, "root")

	const writers = 40
	var g errgroup.Group
	for i := range writers {
		l := root.Clone()
		l.AddTag(fmt.Sprintf("w%02d", i))
		g.Go(func() error {
			msg := strings.Repeat(fmt.Sprintf("%02d", i), 50)
			if i%2 == 0 {
				return l.WriteLog(msg)
			}
			return <-l.WriteLogAsync(context.Background(), msg)
		})
	}
	require.NoError(t, g.Wait())

	entries := strings.Split(strings.TrimSuffix(w.String(), "\n\n"), "\n\n")
	require.Len(t, entries, writers)

	entry := regexp.MustCompile(`^2026-10-15 09:30:12\.345 \[root\]\[w(\d{2})\]\n   (\d{2})+$`)
	for _, e := range entries {
		m := entry.FindStringSubmatch(e)
		require.NotNil(t, m, "malformed entry %q", e)
		assert.Equal(t, strings.Repeat(m[1], 50), strings.TrimPrefix(e[strings.Index(e, "\n")+1:], "   "))
	}
}
