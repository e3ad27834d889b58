package kernel

// Reference kernel implementations. All variants are exact: they
// compute identical results element-for-element (summation order
// differs between sum variants, so totals are compared with a
// tolerance in tests). The dispatch optimizer only ever observes
// their aggregate cost.

// blockSize is the per-chunk element count for the blocked variants,
// sized to keep a working set of a few KiB resident in L1.
const blockSize = 1024

func minLen3(a, b, c int) int {
	n := a
	if b < n {
		n = b
	}
	if c < n {
		n = c
	}
	return n
}

func addScalar(dst, a, b []float64) {
	n := minLen3(len(dst), len(a), len(b))
	for i := 0; i < n; i++ {
		dst[i] = a[i] + b[i]
	}
}

func addUnrolled4(dst, a, b []float64) {
	n := minLen3(len(dst), len(a), len(b))
	i := 0
	for ; i+4 <= n; i += 4 {
		dst[i] = a[i] + b[i]
		dst[i+1] = a[i+1] + b[i+1]
		dst[i+2] = a[i+2] + b[i+2]
		dst[i+3] = a[i+3] + b[i+3]
	}
	for ; i < n; i++ {
		dst[i] = a[i] + b[i]
	}
}

func addBlocked(dst, a, b []float64) {
	n := minLen3(len(dst), len(a), len(b))
	for lo := 0; lo < n; lo += blockSize {
		hi := lo + blockSize
		if hi > n {
			hi = n
		}
		addUnrolled4(dst[lo:hi], a[lo:hi], b[lo:hi])
	}
}

func sumScalar(a []float64) float64 {
	var total float64
	for _, v := range a {
		total += v
	}
	return total
}

func sumUnrolled4(a []float64) float64 {
	// Four independent accumulators break the add dependency chain.
	var s0, s1, s2, s3 float64
	i := 0
	for ; i+4 <= len(a); i += 4 {
		s0 += a[i]
		s1 += a[i+1]
		s2 += a[i+2]
		s3 += a[i+3]
	}
	total := s0 + s1 + s2 + s3
	for ; i < len(a); i++ {
		total += a[i]
	}
	return total
}

func sumBlocked(a []float64) float64 {
	var total float64
	for lo := 0; lo < len(a); lo += blockSize {
		hi := lo + blockSize
		if hi > len(a) {
			hi = len(a)
		}
		total += sumUnrolled4(a[lo:hi])
	}
	return total
}

func scaleScalar(dst, a []float64, s float64) {
	n := len(dst)
	if len(a) < n {
		n = len(a)
	}
	for i := 0; i < n; i++ {
		dst[i] = a[i] * s
	}
}

func scaleUnrolled4(dst, a []float64, s float64) {
	n := len(dst)
	if len(a) < n {
		n = len(a)
	}
	i := 0
	for ; i+4 <= n; i += 4 {
		dst[i] = a[i] * s
		dst[i+1] = a[i+1] * s
		dst[i+2] = a[i+2] * s
		dst[i+3] = a[i+3] * s
	}
	for ; i < n; i++ {
		dst[i] = a[i] * s
	}
}

func scaleBlocked(dst, a []float64, s float64) {
	n := len(dst)
	if len(a) < n {
		n = len(a)
	}
	for lo := 0; lo < n; lo += blockSize {
		hi := lo + blockSize
		if hi > n {
			hi = n
		}
		scaleUnrolled4(dst[lo:hi], a[lo:hi], s)
	}
}
