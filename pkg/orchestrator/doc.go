// Package orchestrator drives a follower run from the caller's side: start
// it on the run server, poll it at a fixed interval until it finishes, and
// record the result in the trend history.
//
// Every response is decided once into an Outcome:
//
//	Running     {status:"running"}                 poll again
//	CSV         Content-Type text/csv              follower export
//	Structured  {status:"done", total, tech, ...}  analytics result
//	Failed      {status:"error", error}            terminal failure
//
// A Client tracks one run at a time. Start fails with a ConflictError
// until the current run is awaited to a terminal outcome or its Await is
// cancelled.
package orchestrator
