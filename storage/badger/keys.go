package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/weftworks/loom/core"
)

// Key prefixes for different data types
const (
	documentPrefix     = "doc"
	documentDatePrefix = "docd"
	documentFpPrefix   = "docfp"
	documentIDSeq      = "docseq"
	vectorPrefix       = "vec"
	vectorDimKey       = "vecdim"
	graphNodePrefix    = "gnode"
	edgeTriplePrefix   = "gtrip"
	edgeRecordPrefix   = "gedge"
	edgeIDSeq          = "gedgeseq"
)

// makeDocumentKey generates a key for a content item by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentDateKey generates a composite key for the publish-time index.
// Format: prefix:timestamp:id, BigEndian so lexicographic order is time order.
func makeDocumentDateKey(publishTime time.Time, id core.ID) []byte {
	prefix := []byte(documentDatePrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(publishTime.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentDateKey generates a partial key for ranged date scans.
func makePartialDocumentDateKey(publishTime time.Time) []byte {
	prefix := []byte(documentDatePrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(publishTime.UnixMicro()))
	return buf
}

// makeFingerprintKey generates a key for the provenance fingerprint index.
func makeFingerprintKey(fp core.Fingerprint) []byte {
	prefix := []byte(documentFpPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(fp))
	return buf
}

// makeVectorKey generates a key for an embedding by content ID.
func makeVectorKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", vectorPrefix, id))
}

// makeGraphNodeKey generates a key for a graph node by content ID.
func makeGraphNodeKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", graphNodePrefix, id))
}

// makeEdgeTripleKey generates the uniqueness key for an edge's natural key.
// Format: prefix:source:target:type
func makeEdgeTripleKey(source, target core.ID, relType core.RelationType) []byte {
	prefix := []byte(edgeTriplePrefix + ":")
	buf := make([]byte, len(prefix)+24)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(source))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(target))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(relType))
	return buf
}

// makeEdgeRecordKey generates the key an edge record is stored under.
// Format: prefix:type:seq, BigEndian seq so per-type iteration follows
// insertion order.
func makeEdgeRecordKey(relType core.RelationType, seq uint64) []byte {
	prefix := []byte(edgeRecordPrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(relType))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeEdgeTypePrefix generates the scan prefix for all edges of a type.
func makeEdgeTypePrefix(relType core.RelationType) []byte {
	prefix := []byte(edgeRecordPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(relType))
	return buf
}

// marshalID serializes an ID for index values.
func marshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// unmarshalID deserializes an ID from an index value.
func unmarshalID(data []byte) (core.ID, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid id encoding: %d bytes", len(data))
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}
