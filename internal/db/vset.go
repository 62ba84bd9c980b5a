package db

// SimilarityQuery is the input for VSIM.
// Exactly one of Element and Vector is set.
type SimilarityQuery struct {
	Key     string
	Element string
	Vector  []float32
	Count   int
	EF      int
	Epsilon float64
	Filter  string
}

// SimilarityHit is a single element returned by VSIM WITHSCORES.
type SimilarityHit struct {
	Element string
	Score   float64
}

// VInfo is the VINFO reply for one key.
type VInfo struct {
	Key            string
	Exists         bool
	QuantType      string
	Dim            int64
	Size           int64
	MaxLevel       int64
	VSetUID        int64
	HNSWMaxNodeUID int64
}
