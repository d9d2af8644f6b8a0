package vertexid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	labelRegex     = regexp.MustCompile(`^([wsit])_core(\d+)(?:_(\d+)_(\d+)_(\d+))?$`)
	partitionRegex = regexp.MustCompile(`^(fwd|bkp|fds|stp|lds)_([wsit])(\d+)(?:_(\d+)_(\d+)_(\d+))?$`)
)

func (id ID) suffix() string {
	if id.Role == Weight {
		return fmt.Sprintf("%d_%d_%d_%d", id.Group, id.From, id.Row, id.Col)
	}
	return strconv.Itoa(id.Group)
}

// String returns the core label.
func (id ID) String() string {
	return fmt.Sprintf("%c_core%s", id.Role.Letter(), id.suffix())
}

// Partition returns the name of the link partition of the given kind that
// this core originates.
func (id ID) Partition(k Kind) string {
	var sb strings.Builder
	sb.WriteString(k.String())
	sb.WriteByte('_')
	sb.WriteByte(id.Role.Letter())
	sb.WriteString(id.suffix())
	return sb.String()
}

// Parse reads a core label.
func Parse(label string) (ID, error) {
	m := labelRegex.FindStringSubmatch(label)
	if m == nil {
		return ID{}, fmt.Errorf("invalid core label %q", label)
	}
	return fromMatch(label, m[1][0], m[2:])
}

// ParsePartition reads a partition name and returns the originating core and
// the link kind.
func ParsePartition(name string) (ID, Kind, error) {
	m := partitionRegex.FindStringSubmatch(name)
	if m == nil {
		return ID{}, 0, fmt.Errorf("invalid partition name %q", name)
	}
	kind := Forward
	for i, p := range kindPrefixes {
		if p == m[1] {
			kind = Kind(i)
		}
	}
	id, err := fromMatch(name, m[2][0], m[3:])
	if err != nil {
		return ID{}, 0, err
	}
	return id, kind, nil
}

// fromMatch builds an ID from the role letter and the numeric captures
// (group, then optionally from, row, col).
func fromMatch(raw string, letter byte, nums []string) (ID, error) {
	role, _ := roleFromLetter(letter)
	hasBlock := nums[1] != ""
	if (role == Weight) != hasBlock {
		return ID{}, fmt.Errorf("invalid identifier %q: block position must be given for weight cores only", raw)
	}

	var vals [4]int
	for i, s := range nums {
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return ID{}, fmt.Errorf("invalid identifier %q: %w", raw, err)
		}
		vals[i] = v
	}
	return ID{Role: role, Group: vals[0], From: vals[1], Row: vals[2], Col: vals[3]}, nil
}
