// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package network

import "errors"

var (
	// ErrInvalidUnits is returned when a group is declared with no units.
	ErrInvalidUnits = errors.New("invalid unit count")
	// ErrForeignGroup is returned when a group from another network is used.
	ErrForeignGroup = errors.New("group is not owned by this network")
	// ErrSealed is returned when a compiled network is mutated.
	ErrSealed = errors.New("network is sealed for compilation")
	// ErrWeightShape is returned when a weight matrix has the wrong length.
	ErrWeightShape = errors.New("weight matrix shape mismatch")
	// ErrTooManyProcs is returned when a pipeline has more stages than a core supports.
	ErrTooManyProcs = errors.New("too many pipeline functions")
	// ErrInvalidConfig is returned for malformed network parameters.
	ErrInvalidConfig = errors.New("invalid network configuration")
)
