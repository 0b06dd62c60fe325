package diagnostics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/notargets/SEKernel/element"
	"github.com/notargets/SEKernel/state"
)

// DumpFiles lists the dump file names in U, V, T, DP3D order.
var DumpFiles = [4]string{
	"elem_state_vx.txt",
	"elem_state_vy.txt",
	"elem_state_t.txt",
	"elem_state_dp3d.txt",
}

func dumpFields(el *state.Element, tl int) [4]*element.Scalar3D {
	return [4]*element.Scalar3D{&el.U[tl], &el.V[tl], &el.T[tl], &el.DP3D[tl]}
}

// WriteBlocks writes one field of elements [nets, nete) as "[ie, ilev]"
// headers followed by NP rows of NP values, six significant digits.
func WriteBlocks(w io.Writer, s *state.Store, nets, nete int, field func(*state.Element) *element.Scalar3D) error {
	bw := bufio.NewWriter(w)
	for ie := nets; ie < nete; ie++ {
		f := field(s.Element(ie))
		for l := 0; l < element.NumLev; l++ {
			fmt.Fprintf(bw, "[%d, %d]\n", ie, l)
			for i := 0; i < element.NP; i++ {
				for j := 0; j < element.NP; j++ {
					bw.WriteByte(' ')
					bw.WriteString(strconv.FormatFloat(f[l][i][j], 'g', 6, 64))
				}
				bw.WriteByte('\n')
			}
		}
	}
	return bw.Flush()
}

// WriteDump writes the four dump files of time level tl into dir. Files are
// staged under temporary names and renamed only after all four succeed.
func WriteDump(dir string, s *state.Store, nets, nete, tl int) (err error) {
	var staged []string
	defer func() {
		if err != nil {
			for _, p := range staged {
				os.Remove(p)
			}
		}
	}()

	for k, name := range DumpFiles {
		f, cerr := os.CreateTemp(dir, name+".*")
		if cerr != nil {
			return fmt.Errorf("creating %s: %w", filepath.Join(dir, name), cerr)
		}
		staged = append(staged, f.Name())
		werr := WriteBlocks(f, s, nets, nete, func(el *state.Element) *element.Scalar3D {
			return dumpFields(el, tl)[k]
		})
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("writing %s: %w", filepath.Join(dir, name), werr)
		}
	}
	for k, name := range DumpFiles {
		if rerr := os.Rename(staged[k], filepath.Join(dir, name)); rerr != nil {
			return fmt.Errorf("renaming %s: %w", name, rerr)
		}
	}
	return nil
}

// Block is one parsed "[element, level]" block of a dump file.
type Block struct {
	Element, Level int
	Values         element.Scalar2D
}

var errMalformed = errors.New("malformed dump")

// ReadBlocks parses a dump file written by WriteBlocks.
func ReadBlocks(r io.Reader) ([]Block, error) {
	var (
		blocks []Block
		sc     = bufio.NewScanner(r)
		line   int
	)
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return sc.Text(), true
	}
	for {
		hdr, ok := next()
		if !ok {
			break
		}
		var b Block
		if _, err := fmt.Sscanf(hdr, "[%d, %d]", &b.Element, &b.Level); err != nil {
			return nil, fmt.Errorf("%w: line %d: bad header %q", errMalformed, line, hdr)
		}
		for i := 0; i < element.NP; i++ {
			row, ok := next()
			if !ok {
				return nil, fmt.Errorf("%w: line %d: truncated block", errMalformed, line)
			}
			vals := strings.Fields(row)
			if len(vals) != element.NP {
				return nil, fmt.Errorf("%w: line %d: %d values, want %d",
					errMalformed, line, len(vals), element.NP)
			}
			for j, v := range vals {
				x, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", errMalformed, line, err)
				}
				b.Values[i][j] = x
			}
		}
		blocks = append(blocks, b)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// ReadDump loads the four dump files from dir in DumpFiles order.
func ReadDump(dir string) ([4][]Block, error) {
	var out [4][]Block
	for k, name := range DumpFiles {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return out, err
		}
		out[k], err = ReadBlocks(f)
		f.Close()
		if err != nil {
			return out, fmt.Errorf("%s: %w", name, err)
		}
	}
	return out, nil
}
