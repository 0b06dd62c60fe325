//go:build occa

package device

import (
	"fmt"
	"sort"
	"strings"
	"unsafe"

	"github.com/notargets/SEKernel/element"
	"github.com/notargets/SEKernel/partitions"
	"github.com/notargets/gocca"
	"gonum.org/v1/gonum/mat"
)

// Builder generates the kernel preamble for a partition layout and owns the
// device memory of the partitioned arrays.
type Builder struct {
	NumPartitions int
	K             []int64
	KpartMax      int

	// Emitted as const double arrays ahead of the kernel
	StaticMatrices map[string]mat.Matrix
	// Emitted as #defines, in insertion order
	Defines []string

	allocatedArrays []string
	arrays          map[string]*partitions.PartitionedArray

	kernelPreamble string

	device       *gocca.OCCADevice
	kernels      map[string]*gocca.OCCAKernel
	pooledMemory map[string]*gocca.OCCAMemory
}

// NewBuilder uploads the per-partition element counts of layout.
func NewBuilder(device *gocca.OCCADevice, layout *partitions.PartitionLayout) (*Builder, error) {
	if device == nil {
		panic("device cannot be nil")
	}
	if layout.NumPartitions == 0 {
		return nil, fmt.Errorf("layout has no partitions")
	}
	if device.Mode() == "CUDA" && layout.KpartMax > 1024 {
		return nil, fmt.Errorf("KpartMax=%d exceeds the CUDA limit of 1024 threads per @inner loop", layout.KpartMax)
	}

	kb := &Builder{
		NumPartitions:  layout.NumPartitions,
		K:              make([]int64, layout.NumPartitions),
		KpartMax:       layout.KpartMax,
		StaticMatrices: make(map[string]mat.Matrix),
		arrays:         make(map[string]*partitions.PartitionedArray),
		device:         device,
		kernels:        make(map[string]*gocca.OCCAKernel),
		pooledMemory:   make(map[string]*gocca.OCCAMemory),
	}
	for i, p := range layout.Partitions {
		kb.K[i] = int64(p.NumElements)
	}
	kb.pooledMemory["K"] = device.Malloc(int64(len(kb.K)*8), unsafe.Pointer(&kb.K[0]), nil)
	return kb, nil
}

// Free releases kernels and device memory.
func (kb *Builder) Free() {
	for _, kernel := range kb.kernels {
		kernel.Free()
	}
	for _, mem := range kb.pooledMemory {
		mem.Free()
	}
}

func (kb *Builder) AddStaticMatrix(name string, m mat.Matrix) {
	kb.StaticMatrices[name] = m
}

func (kb *Builder) AddDefine(name string, value any) {
	kb.Defines = append(kb.Defines, fmt.Sprintf("#define %s %v\n", name, value))
}

// AllocateArray copies a partitioned array to the device as name_global,
// with its partition offsets as name_offsets.
func (kb *Builder) AllocateArray(name string, pa *partitions.PartitionedArray) error {
	if len(pa.Offsets) != kb.NumPartitions+1 {
		return fmt.Errorf("array %s: %d offsets for %d partitions", name, len(pa.Offsets), kb.NumPartitions)
	}
	if len(pa.GlobalData) == 0 {
		return fmt.Errorf("array %s is empty", name)
	}
	offsets := make([]int64, len(pa.Offsets))
	for i, o := range pa.Offsets {
		offsets[i] = int64(o)
	}
	kb.pooledMemory[name+"_global"] = kb.device.Malloc(int64(len(pa.GlobalData)*8),
		unsafe.Pointer(&pa.GlobalData[0]), nil)
	kb.pooledMemory[name+"_offsets"] = kb.device.Malloc(int64(len(offsets)*8),
		unsafe.Pointer(&offsets[0]), nil)

	kb.allocatedArrays = append(kb.allocatedArrays, name)
	kb.arrays[name] = pa
	return nil
}

// CopyArrayToHost overwrites the host copy of an allocated array with the
// device contents.
func (kb *Builder) CopyArrayToHost(name string) error {
	pa, ok := kb.arrays[name]
	if !ok {
		return fmt.Errorf("array %s not found", name)
	}
	kb.pooledMemory[name+"_global"].CopyTo(unsafe.Pointer(&pa.GlobalData[0]),
		int64(len(pa.GlobalData)*8))
	return nil
}

func (kb *Builder) GeneratePreamble() string {
	var sb strings.Builder

	sb.WriteString("typedef double real_t;\n")
	sb.WriteString("typedef long int_t;\n")
	sb.WriteString("#define REAL_ZERO 0.0\n")
	sb.WriteString("#define REAL_ONE 1.0\n\n")

	sb.WriteString(fmt.Sprintf("#define NPART %d\n", kb.NumPartitions))
	sb.WriteString(fmt.Sprintf("#define KpartMax %d\n", kb.KpartMax))
	sb.WriteString(fmt.Sprintf("#define NP %d\n", element.NP))
	sb.WriteString(fmt.Sprintf("#define NPP %d\n", npp))
	sb.WriteString(fmt.Sprintf("#define NUM_LEV %d\n", element.NumLev))
	sb.WriteString(fmt.Sprintf("#define NUM_LEV_P %d\n", element.NumLevP))
	sb.WriteString(fmt.Sprintf("#define LEV_SIZE %d\n", levSize))
	for _, d := range kb.Defines {
		sb.WriteString(d)
	}
	sb.WriteString("\n")

	if len(kb.StaticMatrices) > 0 {
		names := make([]string, 0, len(kb.StaticMatrices))
		for name := range kb.StaticMatrices {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sb.WriteString(element.FormatStaticMatrix(name, kb.StaticMatrices[name]))
		}
	}

	for _, name := range kb.allocatedArrays {
		sb.WriteString(fmt.Sprintf("#define %s_PART(part) (%s_global + %s_offsets[part])\n",
			name, name, name))
	}

	kb.kernelPreamble = sb.String()
	return kb.kernelPreamble
}

// BuildKernel compiles kernelSource behind the generated preamble.
func (kb *Builder) BuildKernel(kernelSource, kernelName string) (*gocca.OCCAKernel, error) {
	if kb.kernelPreamble == "" {
		kb.GeneratePreamble()
	}
	fullSource := kb.kernelPreamble + "\n" + kernelSource

	var (
		kernel *gocca.OCCAKernel
		err    error
	)
	if kb.device.Mode() == "OpenMP" {
		// OpenMP builds do not get -O3 by default
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = kb.device.BuildKernelFromString(fullSource, kernelName, props)
	} else {
		kernel, err = kb.device.BuildKernelFromString(fullSource, kernelName, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s: %w", kernelName, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("kernel build returned nil for %s", kernelName)
	}
	kb.kernels[kernelName] = kernel
	return kernel, nil
}

// RunKernel runs a built kernel. Array names expand to their global and
// offsets buffers and K is always passed first.
func (kb *Builder) RunKernel(name string, args ...interface{}) error {
	kernel, exists := kb.kernels[name]
	if !exists {
		return fmt.Errorf("kernel %s not found", name)
	}
	if err := kernel.RunWithArgs(kb.expandKernelArgs(args)...); err != nil {
		return err
	}
	kb.device.Finish()
	return nil
}

func (kb *Builder) expandKernelArgs(args []interface{}) []interface{} {
	expanded := []interface{}{kb.pooledMemory["K"]}
	for _, arg := range args {
		if v, ok := arg.(string); ok {
			globalMem, hasGlobal := kb.pooledMemory[v+"_global"]
			offsetMem, hasOffset := kb.pooledMemory[v+"_offsets"]
			if hasGlobal && hasOffset {
				expanded = append(expanded, globalMem, offsetMem)
				continue
			}
		}
		expanded = append(expanded, arg)
	}
	return expanded
}
