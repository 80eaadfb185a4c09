package badger

import "fmt"

const (
	indexMetaPrefix   = "idxmeta"
	movieRecordPrefix = "movrec"
	checkpointPrefix  = "ldchkpt"
)

// makeIndexMetaKey generates the marker key recording that an index exists.
func makeIndexMetaKey(index string) []byte {
	return []byte(fmt.Sprintf("%s:%s", indexMetaPrefix, index))
}

// makeMoviePrefix generates the prefix shared by every document of an index.
// Format: prefix:index:
func makeMoviePrefix(index string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", movieRecordPrefix, index))
}

// makeMovieKey generates a key for a document by aid.
// Format: prefix:index:aid
func makeMovieKey(index, aid string) []byte {
	prefix := makeMoviePrefix(index)
	buf := make([]byte, len(prefix)+len(aid))
	offset := copy(buf, prefix)
	copy(buf[offset:], aid)
	return buf
}

// makeCheckpointKey generates a key for a bulk load checkpoint.
func makeCheckpointKey(source string) []byte {
	return []byte(fmt.Sprintf("%s:%s", checkpointPrefix, source))
}
