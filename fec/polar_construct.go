package fec

import (
	"os"
	"sort"
	"strconv"
	"strings"
)

// bhattacharyyaBEC returns the Bhattacharyya parameters of the 2^m synthetic
// channels of a BEC(eps), indexed by leaf in decoding order.
func bhattacharyyaBEC(m int, eps float64) []float64 {
	// Expand level by level: the V child degrades to 2z-z^2, the U child improves to z^2.
	z := []float64{eps}
	for l := 0; l < m; l++ {
		next := make([]float64, 0, 2*len(z))
		for _, v := range z {
			next = append(next, 2*v-v*v, v*v)
		}
		z = next
	}
	return z
}

// PolarMaskBEC selects the k most reliable leaves of a length-2^m Polar code
// designed for a BEC with erasure probability eps.
func PolarMaskBEC(m, k int, eps float64) ([]bool, error) {
	n := 1 << m
	if k <= 0 || k > n {
		return nil, configErrorf("polar_k", "must be in 1..%d", n)
	}
	if eps <= 0 || eps >= 1 {
		return nil, configErrorf("polar_design_eps", "must be in (0, 1)")
	}
	z := bhattacharyyaBEC(m, eps)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return z[idx[a]] < z[idx[b]] })
	mask := make([]bool, n)
	for _, i := range idx[:k] {
		mask[i] = true
	}
	return mask, nil
}

// LoadReliabilityTable reads a Polar reliability table: one "index rank" pair
// per line, blank lines and '#' or '%' comments allowed. It returns the leaf
// indices from the most to the least reliable (highest rank first, lower index
// first on equal rank). A malformed line or a repeated index is a
// *ConfigError; I/O errors are returned as is.
func LoadReliabilityTable(path string) ([]int, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rank := map[int]int{}
	var order []int
	for n, line := range strings.Split(string(src), "\n") {
		if c := strings.IndexAny(line, "#%"); c >= 0 {
			line = line[:c]
		}
		f := strings.Fields(line)
		if len(f) == 0 {
			continue
		}
		if len(f) != 2 {
			return nil, configErrorf("reliability_table", "%s:%d: want index and rank", path, n+1)
		}
		idx, err := strconv.Atoi(f[0])
		if err != nil || idx < 0 {
			return nil, configErrorf("reliability_table", "%s:%d: bad index %q", path, n+1, f[0])
		}
		r, err := strconv.Atoi(f[1])
		if err != nil {
			return nil, configErrorf("reliability_table", "%s:%d: bad rank %q", path, n+1, f[1])
		}
		if _, dup := rank[idx]; dup {
			return nil, configErrorf("reliability_table", "%s:%d: index %d listed twice", path, n+1, idx)
		}
		rank[idx] = r
		order = append(order, idx)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if rank[a] != rank[b] {
			return rank[a] > rank[b]
		}
		return a < b
	})
	return order, nil
}

// PolarMaskFromReliability marks the first k indices of order that fall inside
// a length-n code as free. Larger tables are allowed.
func PolarMaskFromReliability(order []int, n, k int) ([]bool, error) {
	if k <= 0 || k > n {
		return nil, configErrorf("polar_k", "must be in 1..%d", n)
	}
	mask := make([]bool, n)
	got := 0
	for _, idx := range order {
		if idx < 0 || idx >= n || mask[idx] {
			continue
		}
		mask[idx] = true
		if got++; got == k {
			return mask, nil
		}
	}
	return nil, configErrorf("reliability_table", "only %d of %d indices below %d", got, k, n)
}
