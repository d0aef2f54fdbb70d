package fec

import "fmt"

// yPool hands out fixed-size estimate buffers of one recursion level with a
// bump index. Buffers are never freed one by one: the owning node resets the
// pool when the level below it is finished.
type yPool struct {
	buf   []float64
	size  int
	next  int
	level int
}

func newYPool(level, count int) yPool {
	size := 1 << level
	return yPool{buf: make([]float64, size*count), size: size, level: level}
}

func (p *yPool) pop() []float64 {
	lo := p.next * p.size
	hi := lo + p.size
	if hi > len(p.buf) {
		panic(fmt.Sprintf("fec: level %d buffer pool exhausted (%d buffers)", p.level, len(p.buf)/p.size))
	}
	p.next++
	return p.buf[lo:hi:hi]
}

func (p *yPool) reset() { p.next = 0 }
