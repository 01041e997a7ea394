// Package server exposes follower runs over HTTP.
//
// Endpoints:
//
//	POST /v1/runs       {handle, mode?}   -> 202 {runId}
//	POST /v1/runs/poll  {handle, runId}   -> text/csv, or JSON {status, ...}
//	POST /v1/scrape     {handle}          -> text/csv in one round trip
//	GET  /healthz
//
// A finished followers run answers the poll with the CSV document and a
// Content-Disposition filename. Analytics runs answer with
// {status:"done", total, tech, medical, other, csv}. Failed runs answer
// {status:"error", error} with status 200; the poll itself succeeded.
package server
