package fec

// rmList is the successive-cancellation list decoder for RM(m, r) subcodes.
// The node table has one entry per (m,0) and (m,m) leaf of the recursion.
type rmList[F Format] struct {
	*listState[F]
	r int
}

func newRMList[F Format](f F, m, r, k int, table NodeTable, maxL int, perms *Permutations) (*rmList[F], error) {
	s, err := newListState(f, m, k, table, maxL, perms)
	if err != nil {
		return nil, err
	}
	return &rmList[F]{listState: s, r: r}, nil
}

func (d *rmList[F]) decode(channel []float64, scale float64) {
	d.start(channel, scale)
	d.inner(d.m, d.r)
}

func (d *rmList[F]) inner(m, r int) {
	if r == m {
		switch l := d.table[d.node]; {
		case l == 0:
			d.skipFull(m)
		case m == 1:
			d.branch11(l)
		default:
			d.branchFull(m, l)
		}
		d.node++
		return
	}
	if r == 1 {
		// The (m-1,0) V child is decoded inline.
		d.pools[m-1].reset()
		if l := d.table[d.node]; l == 0 {
			d.skipRep(m)
		} else {
			d.branchRep(m, l)
		}
		d.node++
		d.inner(m-1, 1)
	} else {
		d.splitV(m)
		d.inner(m-1, r-1)
		d.splitU(m)
		d.inner(m-1, r)
	}
	d.combine(m)
}

// splitV computes the V-child estimates xor(y1, y2) into level m-1.
func (d *rmList[F]) splitV(m int) {
	n2 := 1 << (m - 1)
	for _, c := range d.order[:d.size] {
		y := d.y(c, m)
		v := d.pools[m-1].pop()
		for j := range v {
			v[j] = d.f.Xor(y[j], y[j+n2])
		}
		d.setY(c, m-1, v)
	}
}

// splitU folds the V-child decisions into the first half and combines it with
// the second. The decisions move up to level m until combine.
func (d *rmList[F]) splitU(m int) {
	n2 := 1 << (m - 1)
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
}

// combine rebuilds the level-m decisions (v·u | u) and releases level m-1.
func (d *rmList[F]) combine(m int) {
	n2 := 1 << (m - 1)
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

// skipFull handles a frozen (m,m) leaf: every bit is zero.
func (d *rmList[F]) skipFull(m int) {
	for _, c := range d.order[:d.size] {
		y := d.y(c, m)
		out := d.pools[m].pop()
		s := 0.0
		for j, e := range y {
			s += d.f.LnP0(e)
			out[j] = dec0
		}
		d.metric[c] += s
		d.setY(c, m, out)
	}
}

// branch11 expands every candidate into the four words of a (1,1) leaf.
func (d *rmList[F]) branch11(l int) {
	f := d.f
	cnt := d.size
	for _, c := range d.order[:cnt] {
		y := d.y(c, 1)
		y0, y1 := y[0], y[1]
		var x0, x1 uint8
		if !f.LeansZero(y0) {
			y0, x0 = f.Invert(y0), 1
		}
		if !f.LeansZero(y1) {
			y1, x1 = f.Invert(y1), 1
		}
		s00, s01 := f.Est0LnP0(y0), f.Est0LnP1(y0)
		s10, s11 := f.Est0LnP0(y1), f.Est0LnP1(y1)

		h := d.head[c]
		c1 := d.branch(c, h)
		c2 := d.branch(c, h)
		c3 := d.branch(c, h)
		d.head[c] = d.chain.push(d.chain.push(h, x0), x1)
		d.metric[c] += s00 + s10
		d.head[c1] = d.chain.push(d.chain.push(h, 1-x0), x1)
		d.metric[c1] += s01 + s10
		d.head[c2] = d.chain.push(d.chain.push(h, x0), 1-x1)
		d.metric[c2] += s00 + s11
		d.head[c3] = d.chain.push(d.chain.push(h, 1-x0), 1-x1)
		d.metric[c3] += s01 + s11
	}
	d.prune(l)
	d.inheritRows()
	d.finishFull(1)
}

// branchFull keeps the hard decision of an (m,m) leaf and its three most
// likely neighbours: the weakest position flipped, the second weakest flipped,
// and either both of them or the third weakest, whichever costs less.
func (d *rmList[F]) branchFull(m, l int) {
	f := d.f
	n := 1 << m
	xt := d.xtmp[:n]
	cnt := d.size
	for _, c := range d.order[:cnt] {
		y := d.y(c, m)
		i1, i2, i3 := 0, 1, 2
		ym, ym2, ym3 := f.Strongest(), f.Strongest(), f.Strongest()
		s := 0.0
		for j, e := range y {
			var x uint8
			if !f.LeansZero(e) {
				e, x = f.Invert(e), 1
			}
			xt[j] = x
			s += f.Est0LnP0(e)
			if !f.StrongerZero(ym3, e) {
				continue
			}
			switch {
			case f.StrongerZero(ym, e):
				i3, ym3 = i2, ym2
				i2, ym2 = i1, ym
				i1, ym = j, e
			case f.StrongerZero(ym2, e):
				i3, ym3 = i2, ym2
				i2, ym2 = j, e
			default:
				i3, ym3 = j, e
			}
		}
		s1, s2, s3 := f.FlipCost(ym), f.FlipCost(ym2), f.FlipCost(ym3)

		h := d.head[c]
		c1 := d.branch(c, h)
		c2 := d.branch(c, h)
		c3 := d.branch(c, h)
		d.head[c] = d.chain.pushAll(h, xt)
		d.metric[c] += s

		xt[i1] ^= 1
		d.head[c1] = d.chain.pushAll(h, xt)
		d.metric[c1] += s + s1

		xt[i1] ^= 1
		xt[i2] ^= 1
		d.head[c2] = d.chain.pushAll(h, xt)
		d.metric[c2] += s + s2

		if s1+s2 > s3 {
			xt[i1] ^= 1
			d.head[c3] = d.chain.pushAll(h, xt)
			d.metric[c3] += s + s1 + s2
			xt[i1] ^= 1
			xt[i2] ^= 1
		} else {
			xt[i2] ^= 1
			xt[i3] ^= 1
			d.head[c3] = d.chain.pushAll(h, xt)
			d.metric[c3] += s + s3
			xt[i3] ^= 1
		}
	}
	d.prune(l)
	d.inheritRows()
	d.finishFull(m)
}

// finishFull turns the pushed codeword bits of an (m,m) leaf into information
// bits and stores the codeword decisions at level m.
func (d *rmList[F]) finishFull(m int) {
	n := 1 << m
	cw := d.xtmp[:n]
	info := d.xtmp2[:n]
	for _, c := range d.order[:d.size] {
		d.chain.read(d.head[c], cw)
		EncodeMM(m, cw, info)
		d.chain.overwrite(d.head[c], info)
		out := d.pools[m].pop()
		for j, b := range cw {
			out[j] = decision(b)
		}
		d.setY(c, m, out)
	}
}

// skipRep handles a frozen (m-1,0) V child of an (m,1) node.
func (d *rmList[F]) skipRep(m int) {
	n2 := 1 << (m - 1)
	for _, c := range d.order[:d.size] {
		y := d.y(c, m)
		v := d.pools[m-1].pop()
		u := d.pools[m-1].pop()
		s := 0.0
		for j := 0; j < n2; j++ {
			s += d.f.LnP0(d.f.Xor(y[j], y[j+n2]))
			u[j] = d.f.Add(y[j], y[j+n2])
			v[j] = dec0
		}
		d.metric[c] += s
		d.setY(c, m, v)
		d.setY(c, m-1, u)
	}
}

// branchRep tries both values of the repetition bit of the (m-1,0) V child.
func (d *rmList[F]) branchRep(m, l int) {
	f := d.f
	n2 := 1 << (m - 1)
	cnt := d.size
	for _, c := range d.order[:cnt] {
		y := d.y(c, m)
		s0, s1 := 0.0, 0.0
		for j := 0; j < n2; j++ {
			e := f.Xor(y[j], y[j+n2])
			if f.LeansZero(e) {
				s0 += f.Est0LnP0(e)
				s1 += f.Est0LnP1(e)
			} else {
				s0 += f.Est1LnP0(e)
				s1 += f.Est1LnP1(e)
			}
		}
		h := d.head[c]
		c1 := d.branch(c, h)
		if s0 > s1 {
			d.head[c] = d.chain.push(h, 0)
			d.metric[c] += s0
			d.head[c1] = d.chain.push(h, 1)
			d.metric[c1] += s1
		} else {
			d.head[c] = d.chain.push(h, 1)
			d.metric[c] += s1
			d.head[c1] = d.chain.push(h, 0)
			d.metric[c1] += s0
		}
	}
	d.prune(l)
	d.inheritRows()
	for _, c := range d.order[:d.size] {
		y := d.y(c, m)
		v := d.pools[m-1].pop()
		u := d.pools[m-1].pop()
		if d.chain.bit[d.head[c]] == 0 {
			for j := 0; j < n2; j++ {
				u[j] = f.Add(y[j], y[j+n2])
				v[j] = dec0
			}
		} else {
			for j := 0; j < n2; j++ {
				u[j] = f.Add(f.Invert(y[j]), y[j+n2])
				v[j] = dec1
			}
		}
		d.setY(c, m, v)
		d.setY(c, m-1, u)
	}
}
