// Package app contains the core application logic. It wires the description
// loader, the network builder, the compiler and the host boundary into one
// run, decoupled from any specific entrypoint like a CLI.
package app
