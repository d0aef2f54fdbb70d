package fec

import "fmt"

// pathChain stores the decided bits of all candidates as one arena of cons
// cells. A candidate is the index of its newest cell; cells are shared by every
// candidate branched after they were pushed and are only reclaimed by reset.
type pathChain struct {
	bit  []uint8
	prev []int32
	next int32
}

const chainRoot int32 = 0

func newPathChain(cells int) pathChain {
	return pathChain{
		bit:  make([]uint8, cells),
		prev: make([]int32, cells),
	}
}

func (c *pathChain) reset() {
	c.bit[chainRoot] = 0
	c.prev[chainRoot] = -1
	c.next = 1
}

// push appends b after head and returns the new head.
func (c *pathChain) push(head int32, b uint8) int32 {
	i := c.next
	if int(i) >= len(c.bit) {
		panic(fmt.Sprintf("fec: path arena exhausted (%d cells)", len(c.bit)))
	}
	c.bit[i] = b
	c.prev[i] = head
	c.next++
	return i
}

// pushAll appends bits in order and returns the new head.
func (c *pathChain) pushAll(head int32, bits []uint8) int32 {
	for _, b := range bits {
		head = c.push(head, b)
	}
	return head
}

// read fills dst with the len(dst) newest bits ending at head, oldest first.
func (c *pathChain) read(head int32, dst []uint8) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = c.bit[head]
		head = c.prev[head]
	}
}

// overwrite replaces the len(src) newest bits ending at head. Only cells owned
// by a single candidate may be overwritten.
func (c *pathChain) overwrite(head int32, src []uint8) {
	for i := len(src) - 1; i >= 0; i-- {
		c.bit[head] = src[i]
		head = c.prev[head]
	}
}
