package utils

const (
	NODETOL = 1.e-12
	// PIVOTTOL is the magnitude below which a local diagonal entry is
	// treated as structurally zero
	PIVOTTOL = 1.e-10
)
