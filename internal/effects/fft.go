package effects

import (
	"math"
	"math/bits"
)

// fftPlan holds the bit-reversal table and twiddles for one power-of-two size.
type fftPlan struct {
	n       int
	rev     []int
	twiddle []complex128 // e^{-2πik/n}, k < n/2
}

func newFFTPlan(n int) *fftPlan {
	if n < 2 || n&(n-1) != 0 {
		panic("effects: fft size must be a power of two")
	}
	p := &fftPlan{n: n, rev: make([]int, n), twiddle: make([]complex128, n/2)}
	shift := bits.UintSize - bits.Len(uint(n-1))
	for i := range p.rev {
		p.rev[i] = int(bits.Reverse(uint(i)) >> shift)
	}
	for k := range p.twiddle {
		s, c := math.Sincos(-2 * math.Pi * float64(k) / float64(n))
		p.twiddle[k] = complex(c, s)
	}
	return p
}

// forward computes the DFT of x in place.
func (p *fftPlan) forward(x []complex128) {
	p.transform(x, false)
}

// inverse computes the inverse DFT of x in place, including the 1/n scale.
func (p *fftPlan) inverse(x []complex128) {
	p.transform(x, true)
	scale := complex(1/float64(p.n), 0)
	for i := range x {
		x[i] *= scale
	}
}

func (p *fftPlan) transform(x []complex128, inverse bool) {
	n := p.n
	for i, j := range p.rev {
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		step := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				w := p.twiddle[k*step]
				if inverse {
					w = complex(real(w), -imag(w))
				}
				t := w * x[start+k+half]
				x[start+k+half] = x[start+k] - t
				x[start+k] += t
			}
		}
	}
}
