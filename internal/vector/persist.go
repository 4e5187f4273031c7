package vector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// On-disk layout (little-endian, version 1):
//
//	magic "KIOKUIX1" (8 bytes)
//	format version (u32), dimension (u32)
//	metric id (string), provider id (string)
//	entry count (u32)
//	vector block: count × dimension float32, entries sorted by ID
//	metadata table, same order: id, document id (strings),
//	  start (u32), end (u32), extra pair count (u32), sorted key/value strings
//	document table: count (u32), then document id + content hash strings,
//	  sorted by document id
//
// Strings are u32-length-prefixed UTF-8. The vector block is contiguous and
// separate from metadata so it can be memory-mapped by a future loader.
// Everything is emitted in sorted order so saving the same logical state
// always produces byte-identical files.
var indexMagic = [8]byte{'K', 'I', 'O', 'K', 'U', 'I', 'X', '1'}

// FormatVersion is the current persisted format version.
const FormatVersion uint32 = 1

// maxStringLen bounds length prefixes so a corrupt file fails fast instead of
// allocating gigabytes.
const maxStringLen = 1 << 20

// Save writes the store to path atomically: the bytes go to a temporary file
// in the same directory, which is then renamed over the previous file. A
// crash mid-write leaves the previously committed index intact.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	data, err := s.encodeLocked()
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp index file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit index file: %w", err)
	}
	return nil
}

func (s *Store) encodeLocked() ([]byte, error) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	if _, err := w.Write(indexMagic[:]); err != nil {
		return nil, err
	}
	writeU32(w, FormatVersion)
	writeU32(w, uint32(s.dim))
	writeString(w, string(s.metric))
	writeString(w, s.providerID)

	ids := s.sortedIDs()
	writeU32(w, uint32(len(ids)))
	for _, id := range ids {
		for _, v := range s.vectors[id] {
			writeU32(w, math.Float32bits(v))
		}
	}
	for _, id := range ids {
		m := s.meta[id]
		writeString(w, id)
		writeString(w, m.DocumentID)
		writeU32(w, uint32(m.Start))
		writeU32(w, uint32(m.End))
		keys := make([]string, 0, len(m.Extra))
		for k := range m.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		writeU32(w, uint32(len(keys)))
		for _, k := range keys {
			writeString(w, k)
			writeString(w, m.Extra[k])
		}
	}

	docs := make([]string, 0, len(s.docHashes))
	for id := range s.docHashes {
		docs = append(docs, id)
	}
	sort.Strings(docs)
	writeU32(w, uint32(len(docs)))
	for _, id := range docs {
		writeString(w, id)
		writeString(w, s.docHashes[id])
	}

	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load reads an index file written by Save. A file from a newer format
// version fails with ErrUnsupportedVersion; dimension checks against the
// active embedding provider are the index manager's job.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != indexMagic {
		return nil, fmt.Errorf("%s: not a kioku index file", path)
	}
	version, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version > FormatVersion {
		return nil, fmt.Errorf("file version %d, engine supports up to %d: %w", version, FormatVersion, ErrUnsupportedVersion)
	}
	dim, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read dimension: %w", err)
	}
	metricStr, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("read metric: %w", err)
	}
	metric, err := ParseMetric(metricStr)
	if err != nil {
		return nil, err
	}
	providerID, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("read provider id: %w", err)
	}

	s, err := NewStore(int(dim), metric, providerID)
	if err != nil {
		return nil, err
	}

	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read entry count: %w", err)
	}
	vectors := make([][]float32, count)
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			bits, err := readU32(r)
			if err != nil {
				return nil, fmt.Errorf("read vector %d: %w", i, err)
			}
			vec[j] = math.Float32frombits(bits)
		}
		vectors[i] = vec
	}
	for i := uint32(0); i < count; i++ {
		id, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read entry id: %w", err)
		}
		docID, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read document id: %w", err)
		}
		start, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("read start offset: %w", err)
		}
		end, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("read end offset: %w", err)
		}
		nExtra, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("read extra count: %w", err)
		}
		var extra map[string]string
		if nExtra > 0 {
			extra = make(map[string]string, nExtra)
			for j := uint32(0); j < nExtra; j++ {
				k, err := readString(r)
				if err != nil {
					return nil, fmt.Errorf("read extra key: %w", err)
				}
				v, err := readString(r)
				if err != nil {
					return nil, fmt.Errorf("read extra value: %w", err)
				}
				extra[k] = v
			}
		}
		s.vectors[id] = vectors[i]
		s.meta[id] = Metadata{DocumentID: docID, Start: int(start), End: int(end), Extra: extra}
	}

	nDocs, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read document count: %w", err)
	}
	for i := uint32(0); i < nDocs; i++ {
		docID, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read document id: %w", err)
		}
		hash, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read content hash: %w", err)
		}
		s.docHashes[docID] = hash
	}
	return s, nil
}

func writeU32(w *bufio.Writer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, _ = w.Write(b[:])
}

func writeString(w *bufio.Writer, s string) {
	writeU32(w, uint32(len(s)))
	_, _ = w.WriteString(s)
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", fmt.Errorf("string length %d exceeds limit", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
