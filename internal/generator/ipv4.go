package generator

import (
	"io"
	"math/rand/v2"
	"strconv"
)

// MaxIPv4Len is the length of the longest dotted-quad, "255.255.255.255".
const MaxIPv4Len = 15

// IPv4Generator samples dotted-quad IPv4 addresses with uniformly random octets.
//
// The zero value is ready for use after Init.
type IPv4Generator struct {
	rand *rand.Rand
	buf  []byte
}

var _ Generator = (*IPv4Generator)(nil)

func (g *IPv4Generator) Init(r *rand.Rand) {
	g.rand = r
	g.buf = make([]byte, 0, MaxIPv4Len+1)
}

// AppendSample appends a random address to dst.
func (g *IPv4Generator) AppendSample(dst []byte) []byte {
	for i := 0; i < 4; i++ {
		if i > 0 {
			dst = append(dst, '.')
		}
		dst = strconv.AppendUint(dst, uint64(g.rand.IntN(256)), 10)
	}
	return dst
}

// Sample returns a random address.
func (g *IPv4Generator) Sample() string {
	return string(g.AppendSample(make([]byte, 0, MaxIPv4Len)))
}

func (g *IPv4Generator) WriteLine(w io.Writer) error {
	g.buf = g.AppendSample(g.buf[:0])
	g.buf = append(g.buf, '\n')
	_, err := w.Write(g.buf)
	return err
}

func (g *IPv4Generator) Description() string {
	return "IPv4 addresses: one dotted-quad per line"
}
