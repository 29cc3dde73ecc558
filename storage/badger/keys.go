package badger

import (
	"encoding/binary"
	"strings"

	"github.com/poiesic/scicat/core"
)

// Key prefixes for different data types.
// Every prefix ends in ':' so no prefix is a prefix of another.
const (
	projectPrefix             = "prj:"
	projectNamePrefix         = "prjn:"
	projectRepoPrefix         = "prjr:"
	projectPackagePrefix      = "prjp:"
	projectCorpusPrefix       = "prjc:"
	fieldPrefix               = "fld:"
	fieldNamePrefix           = "fldn:"
	classificationPrefix      = "cls:"
	classificationFieldPrefix = "clsf:"
)

// valueTerminator separates the indexed value from the trailing ID.
const valueTerminator = 0x00

// makeIDKey generates a key for a record by ID.
// Format: prefix + 8-byte big-endian ID
func makeIDKey(prefix string, id core.ID) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePairKey generates a composite key of two IDs.
// Format: prefix + first + second
func makePairKey(prefix string, first, second core.ID) []byte {
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(first))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(second))
	return buf
}

// makePartialPairKey generates the seek prefix for every pair starting with first.
func makePartialPairKey(prefix string, first core.ID) []byte {
	return makeIDKey(prefix, first)
}

// makeValueIndexKey generates a case-insensitive secondary index key.
// Format: prefix + lower(value) + 0x00 + 8-byte ID
func makeValueIndexKey(prefix, value string, id core.ID) []byte {
	value = strings.ToLower(value)
	buf := make([]byte, len(prefix)+len(value)+9)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], value)
	buf[offset] = valueTerminator
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeValueSeekKey generates the seek prefix for an index lookup.
// Exact lookups include the terminator so "numpy" does not match "numpy-extra".
func makeValueSeekKey(prefix, value string, exact bool) []byte {
	value = strings.ToLower(value)
	key := make([]byte, 0, len(prefix)+len(value)+1)
	key = append(key, prefix...)
	key = append(key, value...)
	if exact {
		key = append(key, valueTerminator)
	}
	return key
}

// idFromKey returns the trailing 8-byte ID of a key.
func idFromKey(key []byte) core.ID {
	if len(key) < 8 {
		return 0
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// indexedValue returns the value part of a secondary index key.
func indexedValue(prefix string, key []byte) string {
	end := len(key) - 9
	if end < len(prefix) {
		return ""
	}
	return string(key[len(prefix):end])
}

// makeFieldNameKey generates the key of the field name index.
func makeFieldNameKey(name string) []byte {
	return []byte(fieldNamePrefix + name)
}
