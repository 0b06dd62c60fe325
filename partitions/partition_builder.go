package partitions

import (
	"fmt"
	"math"
)

// PartitionBuilder groups the element range [First, First+NumElements) into
// partitions of about TargetPartitionSize elements.
type PartitionBuilder struct {
	First       int
	NumElements int
	// TotalElements sizes EToP, zero means First+NumElements
	TotalElements int

	TargetPartitionSize int
	Strategy            PartitionStrategy
}

// PartitionStrategy defines how elements are grouped
type PartitionStrategy int

const (
	BlockPartition PartitionStrategy = iota // Consecutive elements
	RoundRobin                              // Distribute cyclically
)

func (s PartitionStrategy) String() string {
	switch s {
	case BlockPartition:
		return "block"
	case RoundRobin:
		return "round-robin"
	}
	return fmt.Sprintf("PartitionStrategy(%d)", int(s))
}

// ParseStrategy maps a strategy name to its value.
func ParseStrategy(name string) (PartitionStrategy, error) {
	switch name {
	case "block", "":
		return BlockPartition, nil
	case "round-robin", "roundrobin":
		return RoundRobin, nil
	}
	return 0, fmt.Errorf("unknown partition strategy %q", name)
}

// NewPartitionBuilder targets numPartitions partitions over [nets, nete).
func NewPartitionBuilder(nets, nete, numPartitions int, strategy PartitionStrategy) *PartitionBuilder {
	n := nete - nets
	if numPartitions < 1 {
		numPartitions = 1
	}
	return &PartitionBuilder{
		First:               nets,
		NumElements:         n,
		TotalElements:       nete,
		TargetPartitionSize: int(math.Ceil(float64(n) / float64(numPartitions))),
		Strategy:            strategy,
	}
}

// BuildPartitions creates a partition layout for the element range
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.NumElements < 1 {
		return nil, fmt.Errorf("cannot partition %d elements", pb.NumElements)
	}
	if pb.First < 0 {
		return nil, fmt.Errorf("negative first element %d", pb.First)
	}
	numPartitions := pb.calculateNumPartitions()

	local := pb.partitionElements(numPartitions)

	total := pb.TotalElements
	if total == 0 {
		total = pb.First + pb.NumElements
	}
	eToP := make([]int, total)
	for i := range eToP {
		eToP[i] = -1
	}
	for i, p := range local {
		eToP[pb.First+i] = p
	}

	partitions := pb.createPartitions(local, numPartitions)

	kpartMax := pb.calculateKpartMax(partitions)
	for i := range partitions {
		partitions[i].MaxElements = kpartMax
	}

	layout := &PartitionLayout{
		Partitions:    partitions,
		KpartMax:      kpartMax,
		TotalElements: pb.NumElements,
		NumPartitions: numPartitions,
		EToP:          eToP,
	}

	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

func (pb *PartitionBuilder) calculateNumPartitions() int {
	target := pb.TargetPartitionSize
	if target < 1 {
		target = 1
	}
	numPartitions := int(math.Ceil(float64(pb.NumElements) / float64(target)))
	if numPartitions < 1 {
		numPartitions = 1
	}
	return numPartitions
}

// partitionElements assigns local element i (global First+i) to a partition
func (pb *PartitionBuilder) partitionElements(numPartitions int) []int {
	eToP := make([]int, pb.NumElements)

	switch pb.Strategy {
	case RoundRobin:
		for i := range eToP {
			eToP[i] = i % numPartitions
		}
	default:
		elementsPerPartition := int(math.Ceil(float64(pb.NumElements) / float64(numPartitions)))
		for i := range eToP {
			eToP[i] = i / elementsPerPartition
			if eToP[i] >= numPartitions {
				eToP[i] = numPartitions - 1
			}
		}
	}
	return eToP
}

func (pb *PartitionBuilder) createPartitions(eToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i] = Partition{ID: i, Elements: make([]int, 0)}
	}
	for elem, part := range eToP {
		partitions[part].Elements = append(partitions[part].Elements, pb.First+elem)
		partitions[part].NumElements++
	}
	return partitions
}

func (pb *PartitionBuilder) calculateKpartMax(partitions []Partition) int {
	kpartMax := 0
	for _, p := range partitions {
		if p.NumElements > kpartMax {
			kpartMax = p.NumElements
		}
	}
	return kpartMax
}

// PartitionStatistics computes load balance metrics
func (layout *PartitionLayout) PartitionStatistics() PartitionStats {
	stats := PartitionStats{
		NumPartitions: layout.NumPartitions,
		MinElements:   math.MaxInt32,
		MaxElements:   0,
		AvgElements:   float64(layout.TotalElements) / float64(layout.NumPartitions),
	}
	for _, p := range layout.Partitions {
		if p.NumElements < stats.MinElements {
			stats.MinElements = p.NumElements
		}
		if p.NumElements > stats.MaxElements {
			stats.MaxElements = p.NumElements
		}
	}
	stats.Imbalance = float64(stats.MaxElements) / stats.AvgElements
	return stats
}

type PartitionStats struct {
	NumPartitions int
	MinElements   int
	MaxElements   int
	AvgElements   float64
	Imbalance     float64 // MaxElements / AvgElements
}
