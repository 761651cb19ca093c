package partition

import "golang.org/x/xerrors"

// Range represents a contiguous region of page indices which is split into a
// number of partitions.
type Range struct {
	start       int
	rangeSplits []int
}

// NewFullRange creates a new range that covers the page indices [0, size) and
// splits it into the provided number of partitions.
func NewFullRange(size, numPartitions int) (Range, error) {
	return NewRange(0, size, numPartitions)
}

// NewRange creates a new range [start, end) and splits it into the provided
// number of partitions. If the range holds fewer items than the requested
// number of partitions, the partition count is reduced so that no partition
// is empty.
func NewRange(start, end, numPartitions int) (Range, error) {
	if start >= end {
		return Range{}, xerrors.Errorf("range start must be less than the range end")
	} else if numPartitions <= 0 {
		return Range{}, xerrors.Errorf("number of partitions must be at least equal to 1")
	}

	size := end - start
	if numPartitions > size {
		numPartitions = size
	}

	// The first (size % numPartitions) partitions get one extra item.
	var (
		partSize  = size / numPartitions
		remainder = size % numPartitions
		to        = start
		ranges    = make([]int, numPartitions)
	)
	for partition := 0; partition < numPartitions; partition++ {
		to += partSize
		if partition < remainder {
			to++
		}
		ranges[partition] = to
	}

	return Range{start: start, rangeSplits: ranges}, nil
}

// NumPartitions returns the number of partitions in the range.
func (r Range) NumPartitions() int { return len(r.rangeSplits) }

// PartitionExtents returns the [start, end) range for the requested partition.
func (r Range) PartitionExtents(partition int) (int, int, error) {
	if partition < 0 || partition >= len(r.rangeSplits) {
		return 0, 0, xerrors.Errorf("invalid partition index")
	}

	if partition == 0 {
		return r.start, r.rangeSplits[0], nil
	}
	return r.rangeSplits[partition-1], r.rangeSplits[partition], nil
}
