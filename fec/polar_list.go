package fec

// polarList is the successive-cancellation list decoder for Polar codes. Every
// leaf is a single bit; the node table has 2^m entries in natural order.
type polarList[F Format] struct {
	*listState[F]
}

func newPolarList[F Format](f F, m, k int, table NodeTable, maxL int) (*polarList[F], error) {
	s, err := newListState(f, m, k, table, maxL, IdentityPermutations(m, k))
	if err != nil {
		return nil, err
	}
	return &polarList[F]{listState: s}, nil
}

func (d *polarList[F]) decode(channel []float64, scale float64) {
	d.start(channel, scale)
	d.inner(d.m)
}

func (d *polarList[F]) inner(m int) {
	if m == 0 {
		if l := d.table[d.node]; l == 0 {
			d.skip()
		} else {
			d.branchBit(l)
		}
		d.node++
		return
	}
	n2 := 1 << (m - 1)
	for _, c := range d.order[:d.size] {
		y := d.y(c, m)
		v := d.pools[m-1].pop()
		for j := range v {
			v[j] = d.f.Xor(y[j], y[j+n2])
		}
		d.setY(c, m-1, v)
	}
	d.inner(m - 1)
	for _, c := range d.order[:d.size] {
		y := d.y(c, m)
		v := d.y(c, m-1)
		u := d.pools[m-1].pop()
		for j := range u {
			u[j] = d.f.Add(y[j]*v[j], y[j+n2])
		}
		d.setY(c, m, v)
		d.setY(c, m-1, u)
	}
	d.inner(m - 1)
	for _, c := range d.order[:d.size] {
		v := d.y(c, m)
		u := d.y(c, m-1)
		out := d.pools[m].pop()
		for j := 0; j < n2; j++ {
			out[j] = v[j] * u[j]
			out[j+n2] = u[j]
		}
		d.setY(c, m, out)
	}
	d.pools[m-1].reset()
}

// skip handles a frozen bit.
func (d *polarList[F]) skip() {
	for _, c := range d.order[:d.size] {
		d.metric[c] += d.f.LnP0(d.y(c, 0)[0])
		out := d.pools[0].pop()
		out[0] = dec0
		d.setY(c, 0, out)
	}
}

// branchBit keeps both values of an information bit.
func (d *polarList[F]) branchBit(l int) {
	f := d.f
	cnt := d.size
	for _, c := range d.order[:cnt] {
		e := d.y(c, 0)[0]
		var x uint8
		if !f.LeansZero(e) {
			e, x = f.Invert(e), 1
		}
		h := d.head[c]
		c1 := d.branch(c, h)
		d.head[c] = d.chain.push(h, x)
		d.metric[c] += f.Est0LnP0(e)
		d.head[c1] = d.chain.push(h, 1-x)
		d.metric[c1] += f.Est0LnP1(e)
	}
	d.prune(l)
	d.inheritRows()
	for _, c := range d.order[:d.size] {
		out := d.pools[0].pop()
		out[0] = decision(d.chain.bit[d.head[c]])
		d.setY(c, 0, out)
	}
}
