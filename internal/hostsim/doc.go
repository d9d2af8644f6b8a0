// Package hostsim is an in-memory stand-in for the host runtime that places
// a compiled graph: it stores the cores and their edges, assigns routing
// keys to every link partition that carries traffic, and collects the
// regions a graph writes.
//
// The host owns keys. A core learns its keys only through the routing
// region written at generation time, so the compiler never needs to know
// how keys are allocated. Placer mirrors the allocation a real host makes:
// one aligned block of KeysPerPartition keys for every (core, partition)
// pair with at least one outgoing edge, in the order those pairs are first
// seen in the edge list.
//
// Memory checks what the host loader would check: each region is written
// once, and every region a core declares arrives with its declared size.
package hostsim
