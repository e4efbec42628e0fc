// Package vectorstore owns the paired (vector index, chunk store) unit and
// is its sole read/write gateway. The chunk store is the source of truth;
// the index is a derived, rebuildable cache over it.
package vectorstore

import (
	"encoding/gob"
	"errors"
	"os"
	"sort"
)

// flatIndex is a brute-force nearest-neighbor index over L2-normalized
// vectors. Scoring is the dot product, which equals cosine similarity for
// unit vectors. The vector at position i always belongs to the chunk at
// store position i.
type flatIndex struct {
	Dimension int
	Vectors   [][]float32
}

func newFlatIndex(dimension int) *flatIndex {
	return &flatIndex{Dimension: dimension}
}

func (ix *flatIndex) count() int { return len(ix.Vectors) }

func (ix *flatIndex) add(vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != ix.Dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	ix.Vectors = append(ix.Vectors, vectors...)
	return nil
}

// hit is one ranked index position.
type hit struct {
	position int
	score    float32
}

// search returns up to k positions ranked by similarity, closest first.
// Ties are broken by position so results are deterministic.
func (ix *flatIndex) search(query []float32, k int) []hit {
	if k <= 0 || len(ix.Vectors) == 0 {
		return nil
	}
	if k > len(ix.Vectors) {
		k = len(ix.Vectors)
	}
	hits := make([]hit, len(ix.Vectors))
	for i, v := range ix.Vectors {
		hits[i] = hit{position: i, score: dot(v, query)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].position < hits[j].position
	})
	return hits[:k]
}

func (ix *flatIndex) save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(ix); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func loadFlatIndex(path string) (*flatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ix flatIndex
	if err := gob.NewDecoder(f).Decode(&ix); err != nil {
		return nil, err
	}
	return &ix, nil
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
