// Package keyinfo describes vector set keys.
package keyinfo

// Metadata is the VINFO summary of one key.
type Metadata struct {
	Key            string
	Exists         bool
	QuantType      string
	Dim            int64
	Size           int64
	MaxLevel       int64
	VSetUID        int64
	HNSWMaxNodeUID int64
}
