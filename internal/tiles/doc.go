// Package tiles indexes XYZ tile pyramids on disk and infers tiles that are
// probably missing from them.
//
// An Index is built once per run from a directory walk, using a pluggable
// CoordParser to turn file paths into (zoom, x, y) triples. Infer then looks
// at every absent cell inside each zoom's bounding box, shrunk by a padding
// margin, and reports the cells whose 8-neighbourhood is dense enough to
// suggest a hole rather than a naturally sparse edge. Neighbour lookups are
// map lookups, so the cost per zoom is proportional to the inspected area.
package tiles
