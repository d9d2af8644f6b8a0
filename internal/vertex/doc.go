// Package vertex generates the four core roles of a compiled network (weight,
// sum, input and threshold) together with their configuration records, their
// memory regions and their resource footprints.
//
// Vertices never talk to a host runtime directly. Region bytes are handed to
// a ConfigEmitter and routing keys are looked up through a KeyResolver, so
// the same vertex can be generated into a file tree, an in-memory harness or
// a remote placer.
package vertex
