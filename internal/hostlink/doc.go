// Package hostlink publishes a compiled graph to a remote host over
// socket.io.
//
// The exchange is a short conversation on one connection:
//
//	client                         host
//	  graph  (graph descriptor) -->
//	                            <-- keys   {label: {partition: key}}
//	  region (one per region)   -->
//	  done   (summary)          -->
//	                            <-- placed
//
// The host may send `host_error` at any point to abort. Every wait is
// bounded by a single timeout covering the whole exchange.
package hostlink
