package sim

// bin is a small size class.
type bin struct {
	size  uint
	nregs uint32
}

// smallBins computes the small size classes the way jemalloc lays them out
// for a 16 byte quantum: a tiny 8 byte class, quantum spaced classes up to
// 128 bytes, then four classes per doubling up to smallMaxClass. Each bin's
// slab is the smallest whole number of pages its regions fill exactly.
func smallBins(page uint) []bin {
	sizes := []uint{8}
	for s := uint(quantum); s <= 128; s += quantum {
		sizes = append(sizes, s)
	}
	for base := uint(128); ; base *= 2 {
		step := base / 4
		for i := uint(1); i <= 4; i++ {
			s := base + i*step
			if s > smallMaxClass {
				return withRegions(sizes, page)
			}
			sizes = append(sizes, s)
		}
	}
}

func withRegions(sizes []uint, page uint) []bin {
	bins := make([]bin, len(sizes))
	for i, s := range sizes {
		slab := lcm(s, page)
		bins[i] = bin{size: s, nregs: uint32(slab / s)}
	}
	return bins
}

func gcd(a, b uint) uint {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b uint) uint { return a / gcd(a, b) * b }
