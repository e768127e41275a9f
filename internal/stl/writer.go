package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/route-sculpture/internal/mesh"
	"github.com/banshee-data/route-sculpture/internal/version"
)

const (
	headerSize      = 80
	triangleRecord  = 50 // normal + 3 vertices as float32, uint16 attribute
	binaryPreambleN = headerSize + 4
)

// BinarySize is the byte length of a binary STL with n triangles.
func BinarySize(n int) int64 {
	return binaryPreambleN + int64(n)*triangleRecord
}

// header is the fixed 80-byte binary preamble. It must not start with
// "solid" or readers may take the file for ASCII.
func header() [headerSize]byte {
	var h [headerSize]byte
	copy(h[:], fmt.Sprintf("route-sculpture %s binary STL", version.Version))
	return h
}

// WriteBinary encodes every triangle of s as little-endian binary STL.
// Facet normals are recomputed from the winding.
func WriteBinary(w io.Writer, s *mesh.Scene) (int64, error) {
	_, triangles := s.Counts()
	if uint64(triangles) > math.MaxUint32 {
		return 0, fmt.Errorf("%d triangles exceed the binary STL limit", triangles)
	}
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	h := header()
	if _, err := bw.Write(h[:]); err != nil {
		return cw.n, err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(triangles)); err != nil {
		return cw.n, err
	}

	var rec [triangleRecord]byte
	var werr error
	s.Walk(func(m *mesh.Mesh) {
		for t := 0; t < m.TriangleCount() && werr == nil; t++ {
			a, b, c := m.Triangle(t)
			n := mesh.FaceNormal(a, b, c)
			putVec(rec[0:], n.X, n.Y, n.Z)
			putVec(rec[12:], a.X, a.Y, a.Z)
			putVec(rec[24:], b.X, b.Y, b.Z)
			putVec(rec[36:], c.X, c.Y, c.Z)
			binary.LittleEndian.PutUint16(rec[48:], 0)
			_, werr = bw.Write(rec[:])
		}
	})
	if werr != nil {
		return cw.n, werr
	}
	err := bw.Flush()
	return cw.n, err
}

func putVec(b []byte, x, y, z float64) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(float32(x)))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(y)))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(z)))
}

// WriteASCII encodes s as an ASCII STL solid called name.
func WriteASCII(w io.Writer, s *mesh.Scene, name string) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	fmt.Fprintf(bw, "solid %s\n", name)
	s.Walk(func(m *mesh.Mesh) {
		for t := 0; t < m.TriangleCount(); t++ {
			a, b, c := m.Triangle(t)
			n := mesh.FaceNormal(a, b, c)
			fmt.Fprintf(bw, "  facet normal %e %e %e\n", n.X, n.Y, n.Z)
			bw.WriteString("    outer loop\n")
			fmt.Fprintf(bw, "      vertex %e %e %e\n", a.X, a.Y, a.Z)
			fmt.Fprintf(bw, "      vertex %e %e %e\n", b.X, b.Y, b.Z)
			fmt.Fprintf(bw, "      vertex %e %e %e\n", c.X, c.Y, c.Z)
			bw.WriteString("    endloop\n  endfacet\n")
		}
	})
	fmt.Fprintf(bw, "endsolid %s\n", name)
	// bufio keeps the first write error and reports it here
	err := bw.Flush()
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
