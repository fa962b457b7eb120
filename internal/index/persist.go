package index

import (
	"bufio"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/policybot-io/policybot/internal/core/domain"
)

// Artifact names within the index directory. The vector file and the
// metadata sidecar are always written and read together; the manifest
// is written last and acts as the commit marker for a build.
const (
	VectorFile   = "vectors.bin"
	MetadataFile = "chunks.db"
	ManifestFile = "manifest.toml"
)

// vectorMagic identifies the vector file format.
var vectorMagic = [4]byte{'P', 'B', 'V', 'X'}

const vectorVersion uint32 = 1

// Persist writes the index to dir as two co-located artifacts (vector
// file + SQLite metadata sidecar) plus the index manifest. Each file
// is written to a temporary name and atomically renamed into place,
// so a crash mid-write never leaves a partially-written artifact
// visible to readers. The manifest is renamed last: an index without
// a matching manifest is treated as absent, not corrupt.
func Persist(idx *Index, man domain.IndexManifest, dir string) error {
	if idx == nil || idx.Len() == 0 {
		return fmt.Errorf("%w: nothing to persist", domain.ErrIndexBuild)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	man.ChunkCount = idx.Len()
	man.Dimensions = idx.Dimensions()
	man.BuiltAt = idx.BuiltAt()

	if err := writeAtomic(filepath.Join(dir, VectorFile), func(path string) error {
		return writeVectors(path, idx)
	}); err != nil {
		return fmt.Errorf("persist vectors: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, MetadataFile), func(path string) error {
		return writeMetadata(path, idx.Chunks())
	}); err != nil {
		return fmt.Errorf("persist metadata: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, ManifestFile), func(path string) error {
		data, err := toml.Marshal(man)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o600)
	}); err != nil {
		return fmt.Errorf("persist manifest: %w", err)
	}

	return nil
}

// Load reconstructs the index from dir. The metadata-table length
// must equal the number of vectors in the vector file and the count
// recorded in the manifest; any mismatch is a fatal
// domain.ErrIndexLoad, never silently truncated.
func Load(dir string) (*Index, *domain.IndexManifest, error) {
	man, err := LoadManifest(dir)
	if err != nil {
		return nil, nil, err
	}

	vectors, dim, err := readVectors(filepath.Join(dir, VectorFile))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}

	chunks, err := readMetadata(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}

	if len(chunks) != len(vectors) {
		return nil, nil, fmt.Errorf("%w: %d metadata rows but %d vectors",
			domain.ErrIndexLoad, len(chunks), len(vectors))
	}
	if man.ChunkCount != len(vectors) {
		return nil, nil, fmt.Errorf("%w: manifest records %d chunks but %d persisted",
			domain.ErrIndexLoad, man.ChunkCount, len(vectors))
	}
	if man.Dimensions != 0 && man.Dimensions != dim {
		return nil, nil, fmt.Errorf("%w: manifest records dimension %d but vector file has %d",
			domain.ErrIndexLoad, man.Dimensions, dim)
	}

	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	idx, err := Build(chunks)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}
	idx.builtAt = man.BuiltAt

	return idx, man, nil
}

// LoadManifest reads only the index manifest from dir. A missing
// manifest returns os.ErrNotExist so callers can distinguish "no
// index yet" from corruption.
func LoadManifest(dir string) (*domain.IndexManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}

	var man domain.IndexManifest
	if err := toml.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("%w: decode manifest: %w", domain.ErrIndexLoad, err)
	}
	return &man, nil
}

// writeAtomic runs write against a temporary path and renames the
// result over the final path on success.
func writeAtomic(path string, write func(tmp string) error) error {
	tmp := path + ".tmp"
	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// writeVectors writes all embeddings in a flat binary layout:
// magic, version, dimension, count, then count*dimension float32 LE.
func writeVectors(path string, idx *Index) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(vectorMagic[:]); err != nil {
		return err
	}
	header := []uint32{vectorVersion, uint32(idx.Dimensions()), uint32(idx.Len())}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	for _, chunk := range idx.Chunks() {
		if err := binary.Write(w, binary.LittleEndian, chunk.Embedding); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// readVectors reads the flat binary vector file.
func readVectors(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	if magic != vectorMagic {
		return nil, 0, errors.New("bad magic: not a vector file")
	}

	header := make([]uint32, 3)
	if err := binary.Read(r, binary.LittleEndian, header); err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	if header[0] != vectorVersion {
		return nil, 0, fmt.Errorf("unsupported vector file version %d", header[0])
	}

	dim := int(header[1])
	count := int(header[2])
	if dim <= 0 || count < 0 {
		return nil, 0, fmt.Errorf("invalid header: dim=%d count=%d", dim, count)
	}

	vectors := make([][]float32, count)
	for i := range vectors {
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, 0, fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors[i] = vec
	}

	return vectors, dim, nil
}

// writeMetadata writes the parallel chunk-metadata table. Row order
// is the index insertion order; pos is the logical position matching
// the vector file.
func writeMetadata(path string, chunks []domain.Chunk) error {
	// A leftover temp database would corrupt the build.
	os.Remove(path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	const schema = `
CREATE TABLE chunks (
	pos          INTEGER PRIMARY KEY,
	id           TEXT NOT NULL,
	document_id  TEXT NOT NULL,
	source       TEXT NOT NULL,
	start_offset INTEGER NOT NULL,
	end_offset   INTEGER NOT NULL,
	category     TEXT NOT NULL,
	text         TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO chunks (pos, id, document_id, source, start_offset, end_offset, category, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.Exec(i, c.ID, c.DocumentID, c.SourceLocation,
			c.StartOffset, c.EndOffset, string(c.Category), c.Text); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// readMetadata reads the chunk-metadata table in position order.
func readMetadata(path string) ([]domain.Chunk, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(
		`SELECT id, document_id, source, start_offset, end_offset, category, text
		 FROM chunks ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var category string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.SourceLocation,
			&c.StartOffset, &c.EndOffset, &category, &c.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Category = domain.Category(category)
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return chunks, nil
}
