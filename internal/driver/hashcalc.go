package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/phonometrica/phonometrica-sub000/internal/compiler"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/version"
)

// Digest is a SHA-256 hash.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// cacheKey: H(schema || engine version || path || content hash || options).
// The path is part of the key because routines record their file name.
func cacheKey(f *source.File, opts compiler.Options) Digest {
	h := sha256.New()
	var schema [2]byte
	binary.LittleEndian.PutUint16(schema[:], diskCacheSchemaVersion)
	_, _ = h.Write(schema[:])
	_, _ = h.Write([]byte(version.Version))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(f.Path))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(f.Hash[:])
	_, _ = h.Write([]byte(opts.Name))
	if opts.GlobalDecls {
		_, _ = h.Write([]byte{1})
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
