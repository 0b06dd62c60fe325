package partitions

import (
	"fmt"
)

// Partition is a group of elements evaluated together by one worker, or by
// one block of @outer iterations on a device.
type Partition struct {
	ID int

	Elements    []int // Global element indices in this partition
	NumElements int   // Actual number of active elements
	MaxElements int   // Padded size shared by all partitions
}

// PartitionLayout manages the decomposition of an element range
type PartitionLayout struct {
	Partitions []Partition

	KpartMax      int // max(NumElements) across all partitions
	TotalElements int
	NumPartitions int

	// EToP maps an element to its partition, -1 for elements outside the range
	EToP []int
}

// PartitionedArray stores a fixed number of values per element, grouped by
// partition and padded to KpartMax elements per partition.
type PartitionedArray struct {
	// Layout: [Partition 0 Data][Partition 1 Data]...[Partition N-1 Data]
	GlobalData []float64

	// Partition p's data starts at GlobalData[Offsets[p]]
	Offsets []int

	// Number of values per element
	Stride int

	// SlotElement maps each padded slot to a global element, -1 for padding
	SlotElement []int32
}

// GetPartition returns the partition containing element k
func (pl *PartitionLayout) GetPartition(elementID int) int {
	if elementID < 0 || elementID >= len(pl.EToP) {
		return -1
	}
	return pl.EToP[elementID]
}

// ValidateLayout checks partition consistency
func (pl *PartitionLayout) ValidateLayout() error {
	actualMax := 0
	seen := 0
	for _, p := range pl.Partitions {
		if p.NumElements > actualMax {
			actualMax = p.NumElements
		}
		if p.MaxElements != pl.KpartMax {
			return fmt.Errorf("partition %d: MaxElements %d != KpartMax %d",
				p.ID, p.MaxElements, pl.KpartMax)
		}
		if p.NumElements != len(p.Elements) {
			return fmt.Errorf("partition %d: NumElements %d != %d listed",
				p.ID, p.NumElements, len(p.Elements))
		}
		for _, e := range p.Elements {
			if pl.GetPartition(e) != p.ID {
				return fmt.Errorf("element %d listed in partition %d but mapped to %d",
					e, p.ID, pl.GetPartition(e))
			}
		}
		seen += p.NumElements
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d",
			actualMax, pl.KpartMax)
	}
	if seen != pl.TotalElements {
		return fmt.Errorf("partitions hold %d elements, expected %d", seen, pl.TotalElements)
	}
	return nil
}

// AllocatePartitionedArray creates padded storage with stride values per
// element.
func AllocatePartitionedArray(layout *PartitionLayout, stride int) *PartitionedArray {
	slots := layout.NumPartitions * layout.KpartMax
	pa := &PartitionedArray{
		GlobalData:  make([]float64, slots*stride),
		Offsets:     make([]int, layout.NumPartitions+1),
		Stride:      stride,
		SlotElement: make([]int32, slots),
	}
	for i := range pa.SlotElement {
		pa.SlotElement[i] = -1
	}
	for i, p := range layout.Partitions {
		pa.Offsets[i+1] = pa.Offsets[i] + layout.KpartMax*stride
		for j, e := range p.Elements {
			pa.SlotElement[i*layout.KpartMax+j] = int32(e)
		}
	}
	return pa
}

// Slot returns the values of padded slot s.
func (pa *PartitionedArray) Slot(s int) []float64 {
	return pa.GlobalData[s*pa.Stride : (s+1)*pa.Stride]
}

// GetPartitionData returns a slice for partition p's data
func (pa *PartitionedArray) GetPartitionData(partitionID int) []float64 {
	if partitionID >= len(pa.Offsets)-1 {
		return nil
	}
	return pa.GlobalData[pa.Offsets[partitionID]:pa.Offsets[partitionID+1]]
}
