package mmr

import (
	"math/bits"
)

// LeafIndexToPos maps a zero based leaf index to its node position.
func LeafIndexToPos(index uint64) uint64 {
	return LeafIndexToMmrSize(index) - uint64(bits.TrailingZeros64(index+1)) - 1
}

// LeafIndexToMmrSize returns the node count of the smallest MMR that
// contains the leaf with the given index.
func LeafIndexToMmrSize(index uint64) uint64 {
	return MmrSizeFromLeafCount(index + 1)
}

// MmrSizeFromLeafCount returns the node count of an MMR holding leafCount leaves.
func MmrSizeFromLeafCount(leafCount uint64) uint64 {
	return 2*leafCount - uint64(bits.OnesCount64(leafCount))
}

// PosHeightInTree returns the height of the node at pos, leaves being 0.
func PosHeightInTree(pos uint64) uint32 {
	pos++
	for !allOnes(pos) {
		pos = jumpLeft(pos)
	}
	return uint32(64 - bits.LeadingZeros64(pos) - 1)
}

// GetPeaks returns the positions of the peaks of an MMR of mmrSize nodes,
// left to right.
func GetPeaks(mmrSize uint64) []uint64 {
	if mmrSize == 0 {
		return nil
	}
	height, pos := leftPeakHeightPos(mmrSize)
	peaks := []uint64{pos}
	for height > 0 {
		var ok bool
		height, pos, ok = rightPeak(height, pos, mmrSize)
		if !ok {
			break
		}
		peaks = append(peaks, pos)
	}
	return peaks
}

func parentOffset(height uint32) uint64 {
	return 2 << height
}

func siblingOffset(height uint32) uint64 {
	return (2 << height) - 1
}

func allOnes(n uint64) bool {
	return n != 0 && bits.OnesCount64(n) == 64-bits.LeadingZeros64(n)
}

func jumpLeft(pos uint64) uint64 {
	mostSignificant := uint64(1) << (64 - bits.LeadingZeros64(pos) - 1)
	return pos - (mostSignificant - 1)
}

func peakPosByHeight(height uint32) uint64 {
	return (1 << (height + 1)) - 2
}

func leftPeakHeightPos(mmrSize uint64) (uint32, uint64) {
	height := uint32(1)
	prev := uint64(0)
	pos := peakPosByHeight(height)
	for pos < mmrSize {
		height++
		prev = pos
		pos = peakPosByHeight(height)
	}
	return height - 1, prev
}

func rightPeak(height uint32, pos, mmrSize uint64) (uint32, uint64, bool) {
	pos += siblingOffset(height)
	for pos > mmrSize-1 {
		if height == 0 {
			return 0, 0, false
		}
		pos -= parentOffset(height - 1)
		height--
	}
	return height, pos, true
}
