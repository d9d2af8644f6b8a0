// Package hcl provides the concrete HCL implementation of the description
// interfaces defined in the `config` package. It is responsible for file
// discovery, `locals` evaluation, decoding of `network`, `group`, `link` and
// `weights` blocks into the format-agnostic model, and for writing a model
// back out as canonical HCL.
package hcl
