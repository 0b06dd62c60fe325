package rhs

import (
	"fmt"

	"github.com/notargets/SEKernel/element"
)

// Scratch holds the transient per-element buffers of one evaluation. It is
// fully overwritten by every call and owned by exactly one element at a time.
type Scratch struct {
	DInv      element.Tensor2D
	Pressure  element.Scalar3D
	TVirtual  element.Scalar3D
	DivVdp    element.Scalar3D
	OmegaP    element.Scalar3D
	VectorBuf element.Vector3D
	GradP     element.Vector2D
	Suml      element.Scalar2D
}

// Pool hands out a fixed number of preallocated Scratch buffers. Get blocks
// until a buffer is free.
type Pool struct {
	free chan *Scratch
	size int
}

func NewPool(size int) *Pool {
	if size < 1 {
		panic(fmt.Sprintf("scratch pool size must be positive, got %d", size))
	}
	p := &Pool{free: make(chan *Scratch, size), size: size}
	for i := 0; i < size; i++ {
		p.free <- new(Scratch)
	}
	return p
}

func (p *Pool) Size() int { return p.size }

func (p *Pool) Get() *Scratch { return <-p.free }

func (p *Pool) Put(s *Scratch) {
	select {
	case p.free <- s:
	default:
		panic("scratch returned to a full pool")
	}
}
