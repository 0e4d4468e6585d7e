package sentinel

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// FileHash returns the SHA-256 digest of the exact byte content as a
// lowercase hex string. Identical bytes always produce identical output,
// regardless of platform or filesystem.
func FileHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// HashedFile pairs a slash-separated relative path with its content hash.
type HashedFile struct {
	Path string
	Hash string
}

// AggregateHash combines per-file hashes into a single digest for a file
// set. Pairs are sorted by path byte-wise before combining, so the result is
// independent of enumeration order: the same model directory hashed on two
// machines with different traversal orders yields the same aggregate hash.
func AggregateHash(files []HashedFile) string {
	sorted := make([]HashedFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h := sha256.New()
	for _, f := range sorted {
		h.Write([]byte(f.Path))
		h.Write([]byte{0})
		h.Write([]byte(f.Hash))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AggregateHashOf hashes each file's content and returns the aggregate over
// the whole set.
func AggregateHashOf(files FileSet) string {
	pairs := make([]HashedFile, 0, len(files))
	for path, content := range files {
		pairs = append(pairs, HashedFile{Path: path, Hash: FileHash(content)})
	}
	return AggregateHash(pairs)
}

// ShortHashLen is the length of the aggregate-hash suffix embedded in local
// model storage names.
const ShortHashLen = 8

// ShortHash returns the first ShortHashLen characters of a hex digest.
func ShortHash(hash string) string {
	if len(hash) < ShortHashLen {
		return hash
	}
	return hash[:ShortHashLen]
}
