package imaging

// ChannelDistance returns |r1-r2| + |g1-g2| + |b1-b2|.
func ChannelDistance(r1, g1, b1, r2, g2, b2 int) int {
	return absInt(r1-r2) + absInt(g1-g2) + absInt(b1-b2)
}

// WithinTolerance reports whether every channel differs by at most tol.
func WithinTolerance(r1, g1, b1, r2, g2, b2, tol int) bool {
	return absInt(r1-r2) <= tol && absInt(g1-g2) <= tol && absInt(b1-b2) <= tol
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
