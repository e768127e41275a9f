package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/route-sculpture/internal/mesh"
)

// MaxReadSize caps the STL input accepted by Read.
const MaxReadSize = 256 << 20

// ErrMalformed is wrapped by Read for undecodable input.
var ErrMalformed = errors.New("malformed STL")

// Read decodes a binary or ASCII STL into a non-indexed mesh whose
// per-vertex normals are the facet normals. Binary is detected by its
// exact length, so a binary header beginning with "solid" still decodes.
func Read(r io.Reader) (*mesh.Mesh, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxReadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxReadSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrMalformed, MaxReadSize)
	}
	if len(data) >= binaryPreambleN {
		n := binary.LittleEndian.Uint32(data[headerSize:])
		if BinarySize(int(n)) == int64(len(data)) {
			return readBinary(data[binaryPreambleN:], int(n)), nil
		}
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return readASCII(data)
	}
	return nil, fmt.Errorf("%w: neither binary nor ASCII", ErrMalformed)
}

func readBinary(body []byte, n int) *mesh.Mesh {
	m := &mesh.Mesh{
		Positions: make([]float64, 0, n*9),
		Normals:   make([]float64, 0, n*9),
	}
	f := func(off int) float64 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(body[off:])))
	}
	for t := 0; t < n; t++ {
		off := t * triangleRecord
		nx, ny, nz := f(off), f(off+4), f(off+8)
		for v := 0; v < 3; v++ {
			p := off + 12 + 12*v
			m.Positions = append(m.Positions, f(p), f(p+4), f(p+8))
			m.Normals = append(m.Normals, nx, ny, nz)
		}
	}
	return m
}

func readASCII(data []byte) (*mesh.Mesh, error) {
	m := &mesh.Mesh{}
	var normal [3]float64
	inFacet := 0 // vertices seen in the current facet

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "solid":
			if line == 1 && len(fields) > 1 {
				m.Name = strings.Join(fields[1:], " ")
			}
		case "facet":
			if len(fields) != 5 || fields[1] != "normal" {
				return nil, fmt.Errorf("%w: line %d: bad facet", ErrMalformed, line)
			}
			v, err := parseTriple(fields[2:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
			}
			normal = v
			inFacet = 0
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("%w: line %d: bad vertex", ErrMalformed, line)
			}
			v, err := parseTriple(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
			}
			m.Positions = append(m.Positions, v[0], v[1], v[2])
			m.Normals = append(m.Normals, normal[0], normal[1], normal[2])
			inFacet++
		case "endfacet":
			if inFacet != 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices", ErrMalformed, line, inFacet)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseTriple(fields []string) ([3]float64, error) {
	var out [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}
