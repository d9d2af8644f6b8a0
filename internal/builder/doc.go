// Package builder turns a format-agnostic description model into a
// network.Network ready for compilation.
//
// The builder owns everything the description format should not care
// about: keyword parsing into the network enums, defaults for omitted
// global parameters, reading opaque data blobs from disk, and resolving
// group references by label. Groups are added first, in declaration order,
// so links and weight matrices may name a group declared later in the
// description.
package builder
