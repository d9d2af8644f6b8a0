// Package config defines the format-agnostic model of a network description,
// along with the interfaces (Loader, Encoder) for reading and writing it in
// a concrete format.
//
// The `config.Model` is the single input of the `builder` package. Concrete
// implementations of the interfaces, such as for HCL, are provided in
// separate packages.
package config
