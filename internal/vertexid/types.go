package vertexid

import "fmt"

// Role is one of the four core roles.
type Role uint8

const (
	Weight Role = iota
	Sum
	Input
	Threshold
)

var roleLetters = []byte{'w', 's', 'i', 't'}
var roleNames = []string{"weight", "sum", "input", "threshold"}

// Letter is the single-letter tag used in labels and partition names.
func (r Role) Letter() byte {
	if int(r) < len(roleLetters) {
		return roleLetters[r]
	}
	panic(fmt.Sprintf("vertexid: unknown role %d", uint8(r)))
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	panic(fmt.Sprintf("vertexid: unknown role %d", uint8(r)))
}

func roleFromLetter(b byte) (Role, bool) {
	for i, l := range roleLetters {
		if l == b {
			return Role(i), true
		}
	}
	return 0, false
}

// Kind is a link-partition kind. The declaration order is the slot order of
// every core's key region.
type Kind uint8

const (
	Forward Kind = iota
	Backprop
	ForwardSync
	Stop
	DeltaSum
)

// NumKinds is the number of key slots every core reserves.
const NumKinds = 5

var kindPrefixes = []string{"fwd", "bkp", "fds", "stp", "lds"}

func (k Kind) String() string {
	if int(k) < len(kindPrefixes) {
		return kindPrefixes[k]
	}
	panic(fmt.Sprintf("vertexid: unknown link kind %d", uint8(k)))
}

// Kinds lists every kind in key-slot order.
func Kinds() []Kind {
	return []Kind{Forward, Backprop, ForwardSync, Stop, DeltaSum}
}

// ID identifies one core. From, Row and Col are only meaningful for weight
// cores.
type ID struct {
	Role  Role
	Group int
	From  int
	Row   int
	Col   int
}

// WeightID returns the identifier of a weight core.
func WeightID(group, from, row, col int) ID {
	return ID{Role: Weight, Group: group, From: from, Row: row, Col: col}
}

// GroupID returns the identifier of a sum, input or threshold core.
func GroupID(role Role, group int) ID {
	if role == Weight {
		panic("vertexid: weight cores need a source group and block position")
	}
	return ID{Role: role, Group: group}
}
