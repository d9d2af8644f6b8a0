// Package partition splits a group's units into the fixed-size blocks that
// bound a single weight core's matrix.
package partition

import "fmt"

// DefaultMaxBlockUnits is the largest number of units a block may hold.
const DefaultMaxBlockUnits = 256

// Count returns the number of blocks units splits into.
func Count(units, maxBlock int) int {
	if units <= 0 || maxBlock <= 0 {
		return 0
	}
	return (units + maxBlock - 1) / maxBlock
}

// Partition returns the block sizes for units, in order. Every block holds
// maxBlock units except the last, which holds the remainder (or maxBlock
// when units is an exact multiple).
func Partition(units, maxBlock int) ([]int, error) {
	if units <= 0 {
		return nil, fmt.Errorf("partition: unit count must be positive, got %d", units)
	}
	if maxBlock <= 0 {
		return nil, fmt.Errorf("partition: block size must be positive, got %d", maxBlock)
	}

	n := Count(units, maxBlock)
	blocks := make([]int, n)
	for i := range blocks {
		blocks[i] = maxBlock
	}
	blocks[n-1] = units - maxBlock*(n-1)
	return blocks, nil
}

// BlockSize returns the size of block index blk without building the slice.
func BlockSize(units, maxBlock, blk int) int {
	if blk == Count(units, maxBlock)-1 {
		return units - maxBlock*blk
	}
	return maxBlock
}
