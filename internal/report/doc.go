// Package report scans recent channel history for marked, unacknowledged
// messages and republishes them as link summaries.
//
// Flow per run:
//
//	Runner.Run
//	  -> Scanner.ScanCategory (one goroutine per channel, bounded by a shared permit)
//	       -> Scanner.ScanChannel -> Classify, Acknowledger.IsAcknowledged
//	  -> Publisher.Publish (orders destination, messages destination)
//
// Nothing is remembered between runs.
package report
