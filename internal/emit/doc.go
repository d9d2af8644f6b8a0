// Package emit writes a compiled graph to disk for a host loader: one file
// per core region and a manifest describing the cores, their routing keys
// and the edges between them.
package emit
