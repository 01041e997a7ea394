// Package storage writes follower exports into the output directory.
//
// Every export is written to a temporary file and renamed into place, so a
// reader never sees a half-written CSV. Each export may carry a JSON
// manifest next to it describing the run that produced it:
//
//	followers_acme.csv
//	followers_acme.csv.json
//
// Filenames are reduced to their base name; an export can never be
// written outside the output directory.
package storage
