package symex

import (
	"math/big"
	"strings"
)

// UniqueID is the hash-consed identity of a variable or constant leaf:
// either a textual name or a numeric literal, never both. Identifiers are
// immutable after construction and carry a precomputed 64-bit hash.
type UniqueID struct {
	name string
	num  *big.Int
	hash uint64
}

// NewStringUID builds a textual identifier. Empty names are invalid.
func NewStringUID(name string) (*UniqueID, error) {
	if name == "" {
		return nil, ErrStructural
	}
	return &UniqueID{name: name, hash: fnv64([]byte(name))}, nil
}

// MustStringUID is NewStringUID for statically known names.
func MustStringUID(name string) *UniqueID {
	uid, err := NewStringUID(name)
	if err != nil {
		panic("symex: empty identifier name")
	}
	return uid
}

// NewNumericUID builds a numeric identifier.
func NewNumericUID(v *big.Int) *UniqueID {
	n := new(big.Int).Set(v)
	return &UniqueID{num: n, hash: fnv64(n.Bytes()) ^ uint64(n.Sign())}
}

// IsString reports whether the identifier is textual.
func (u *UniqueID) IsString() bool { return u.num == nil }

// IsNumeric reports whether the identifier is a numeric literal.
func (u *UniqueID) IsNumeric() bool { return u.num != nil }

// Name returns the textual form ("" for numeric identifiers).
func (u *UniqueID) Name() string { return u.name }

// Number returns the numeric value (nil for textual identifiers).
func (u *UniqueID) Number() *big.Int { return u.num }

// Hash returns the precomputed identity hash.
func (u *UniqueID) Hash() uint64 { return u.hash }

// Compare orders identifiers hash-first, then by lexical form.
func (u *UniqueID) Compare(o *UniqueID) int {
	switch {
	case u.hash < o.hash:
		return -1
	case u.hash > o.hash:
		return 1
	}
	return strings.Compare(u.String(), o.String())
}

// Equal reports identity equality by (hash, value).
func (u *UniqueID) Equal(o *UniqueID) bool {
	if u == o {
		return true
	}
	if u == nil || o == nil || u.hash != o.hash {
		return false
	}
	if u.IsNumeric() != o.IsNumeric() {
		return false
	}
	if u.IsNumeric() {
		return u.num.Cmp(o.num) == 0
	}
	return u.name == o.name
}

// String returns the debug form: the name, or the decimal literal.
func (u *UniqueID) String() string {
	if u.IsNumeric() {
		return u.num.String()
	}
	return u.name
}

// fnv64 is FNV-1a, the same mixing the hash-consed expression nodes use.
func fnv64(data []byte) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for _, b := range data {
		h ^= uint64(b)
		h *= prime
	}
	return h
}
