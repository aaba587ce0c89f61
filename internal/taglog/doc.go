// Package taglog provides a tag-prefixed text log shared by every part of
// the process.
//
// A Sink is one append-only file. The process-wide sink (Default) writes to
// database_log.txt in the working directory unless SetDefaultPath is called
// first; it is opened by the first write and closed once by Close at
// shutdown:
//
//	Uninitialized ──first write──▶ Open ──Close──▶ Closed
//
// A Logger carries a stack of tags rendered as "[a][b]" in front of every
// entry. Each entry is two lines followed by a blank line:
//
//	2026-10-15 09:30:12.345 [db][a1B2c]
//	   insert into T values (1)
//
// Blocking and asynchronous writes serialise on the same guard, so entries
// never interleave. Failed writes are retried with doubling backoff up to a
// bounded number of attempts. The asynchronous path drops writes that race
// with Close instead of reporting them.
//
// Loggers are not meant to be mutated from several goroutines; Clone one
// before passing it to concurrent work.
package taglog
