// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file declares the small enumerations carried in the configuration
// records. Their numeric values are part of the on-core contract and must
// not be reordered.
package network

import "fmt"

// GroupType is the role of a group in the network.
type GroupType uint8

const (
	Bias GroupType = iota
	Input
	Hidden
	Output
)

var groupTypeNames = []string{"bias", "input", "hidden", "output"}

func (t GroupType) String() string {
	if int(t) < len(groupTypeNames) {
		return groupTypeNames[t]
	}
	panic(fmt.Sprintf("network: unknown group type %d", uint8(t)))
}

// ParseGroupType maps a description keyword to a GroupType. Bias groups are
// created by the network itself and cannot be declared.
func ParseGroupType(s string) (GroupType, error) {
	switch s {
	case "input":
		return Input, nil
	case "hidden":
		return Hidden, nil
	case "output":
		return Output, nil
	}
	return 0, fmt.Errorf("unknown group type %q (want input, hidden or output)", s)
}

// NetType selects the on-core network dynamics.
type NetType uint8

const (
	FeedForward NetType = iota
	SimpleRecurrent
	RecurrentBPTT
	Continuous
)

var netTypeNames = []string{"feed_forward", "simple_recurrent", "rbptt", "continuous"}

func (t NetType) String() string {
	if int(t) < len(netTypeNames) {
		return netTypeNames[t]
	}
	panic(fmt.Sprintf("network: unknown net type %d", uint8(t)))
}

// ParseNetType maps a description keyword to a NetType.
func ParseNetType(s string) (NetType, error) {
	for i, name := range netTypeNames {
		if name == s {
			return NetType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown network type %q", s)
}

// UpdateFunc is the weight update rule run by weight and sum cores.
type UpdateFunc uint8

const (
	Steepest UpdateFunc = iota
	Momentum
	DougleDescent
)

var updateFuncNames = []string{"steepest", "momentum", "dougle_descent"}

func (u UpdateFunc) String() string {
	if int(u) < len(updateFuncNames) {
		return updateFuncNames[u]
	}
	panic(fmt.Sprintf("network: unknown update function %d", uint8(u)))
}

// ParseUpdateFunc maps a description keyword to an UpdateFunc.
func ParseUpdateFunc(s string) (UpdateFunc, error) {
	for i, name := range updateFuncNames {
		if name == s {
			return UpdateFunc(i), nil
		}
	}
	return 0, fmt.Errorf("unknown update function %q", s)
}

// InputProc is one stage of an input core's net pipeline.
type InputProc uint8

const (
	InIntegrator InputProc = iota
	InSoftClamp
)

// MaxInputProcs is the length of the input core's procedure list.
const MaxInputProcs = 2

var inputProcNames = []string{"integr", "soft_clamp"}

func (p InputProc) String() string {
	if int(p) < len(inputProcNames) {
		return inputProcNames[p]
	}
	panic(fmt.Sprintf("network: unknown input procedure %d", uint8(p)))
}

// ParseInputProc maps a description keyword to an InputProc.
func ParseInputProc(s string) (InputProc, error) {
	for i, name := range inputProcNames {
		if name == s {
			return InputProc(i), nil
		}
	}
	return 0, fmt.Errorf("unknown input function %q", s)
}

// OutputProc is one stage of a threshold core's output pipeline.
type OutputProc uint8

const (
	OutLogistic OutputProc = iota
	OutIntegrator
	OutHardClamp
	OutWeakClamp
	OutBias
)

// MaxOutputProcs is the length of the threshold core's procedure list.
const MaxOutputProcs = 5

var outputProcNames = []string{"logistic", "integr", "hard_clamp", "weak_clamp", "bias"}

func (p OutputProc) String() string {
	if int(p) < len(outputProcNames) {
		return outputProcNames[p]
	}
	panic(fmt.Sprintf("network: unknown output procedure %d", uint8(p)))
}

// ParseOutputProc maps a description keyword to an OutputProc.
func ParseOutputProc(s string) (OutputProc, error) {
	for i, name := range outputProcNames {
		if name == s {
			return OutputProc(i), nil
		}
	}
	return 0, fmt.Errorf("unknown output function %q", s)
}

// ErrorFunc is the error measure computed by output threshold cores.
type ErrorFunc uint8

const (
	CrossEntropy ErrorFunc = iota
	Squared
)

var errorFuncNames = []string{"cross_entropy", "squared"}

func (e ErrorFunc) String() string {
	if int(e) < len(errorFuncNames) {
		return errorFuncNames[e]
	}
	panic(fmt.Sprintf("network: unknown error function %d", uint8(e)))
}

// ParseErrorFunc maps a description keyword to an ErrorFunc.
func ParseErrorFunc(s string) (ErrorFunc, error) {
	for i, name := range errorFuncNames {
		if name == s {
			return ErrorFunc(i), nil
		}
	}
	return 0, fmt.Errorf("unknown error function %q", s)
}

// CriterionFunc is the per-group stop criterion.
type CriterionFunc uint8

const (
	StdCriterion CriterionFunc = iota
	MaxCriterion
)

var criterionFuncNames = []string{"std", "max"}

func (c CriterionFunc) String() string {
	if int(c) < len(criterionFuncNames) {
		return criterionFuncNames[c]
	}
	panic(fmt.Sprintf("network: unknown criterion function %d", uint8(c)))
}

// ParseCriterionFunc maps a description keyword to a CriterionFunc.
func ParseCriterionFunc(s string) (CriterionFunc, error) {
	for i, name := range criterionFuncNames {
		if name == s {
			return CriterionFunc(i), nil
		}
	}
	return 0, fmt.Errorf("unknown criterion function %q", s)
}
