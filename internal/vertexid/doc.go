// Package vertexid defines the deterministic identifiers of generated cores
// and of the link partitions they originate.
//
// A core label encodes its role and position, e.g. `w_core3_1_0_2` is the
// weight core of group 3 fed by group 1, row block 0, column block 2, and
// `t_core3` is group 3's threshold core. A partition name prefixes the
// role letter and position with the link kind: `fwd_w3_1_0_2`, `stp_t3`.
// Both forms round-trip through String and Parse.
package vertexid
