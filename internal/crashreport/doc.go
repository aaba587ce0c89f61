// Package crashreport writes the diagnostic artifact produced when a batch
// fails for a reason other than lock contention.
//
// A report is a small text file named
//
//	CrashReport-<yyyyMMddHHmmss.mmm>_<id>.txt
//
// with three labelled sections:
//
//	[Message]
//	<error text>
//	[Origin]
//	<where the failure was raised>
//	[Stacktrace]
//	<goroutine stack at capture time>
//
// Files are created exclusively; an existing report is never overwritten.
package crashreport
