// Package processor detects visual defects in tile images: long runs of a
// single uniform color along a row or a column.
//
// ScanImage is a pure function of the pixels and the target colors. ScanFile
// wraps it with decoding and turns any failure into data. Execute fans a
// static file list out to a fixed worker pool and returns one Result per
// file regardless of completion order. Classification against a threshold
// and any follow-up action (Review) stay with the caller.
package processor
