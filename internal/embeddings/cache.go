package embeddings

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
)

// Cached wraps an Embedder with an in-memory vector cache and an optional
// on-disk cache. The scorer issues one embedding call per candidate and per
// topic keyword, so repeated corpora texts hit the cache heavily.
type Cached struct {
	inner    Embedder
	modelID  string
	cacheDir string
	mu       sync.RWMutex
	mem      map[string][]float32
}

// NewCached builds the cache layer. cacheDir may be empty to keep the cache
// memory-only.
func NewCached(inner Embedder, modelID, cacheDir string) (*Cached, error) {
	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("embeddings: create cache dir: %w", err)
		}
	}
	return &Cached{
		inner:    inner,
		modelID:  modelID,
		cacheDir: cacheDir,
		mem:      make(map[string][]float32),
	}, nil
}

// Close releases the wrapped embedder.
func (c *Cached) Close() error {
	c.mu.Lock()
	c.mem = nil
	c.mu.Unlock()
	return c.inner.Close()
}

// EmbedText returns a cached vector or computes and stores one.
func (c *Cached) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts resolves cached entries first and batches only the misses into
// the wrapped embedder. Results come back in input order regardless of
// which entries were cached.
func (c *Cached) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		key := c.key(text)
		if vec := c.lookup(key); vec != nil {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}
	computed, err := c.inner.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range computed {
		i := missIdx[j]
		key := c.key(texts[i])
		c.store(key, vec)
		out[i] = vec
	}
	return out, nil
}

func (c *Cached) key(text string) string {
	h := sha1.New()
	_, _ = io.WriteString(h, c.modelID)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, NormalizeText(text))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cached) lookup(key string) []float32 {
	c.mu.RLock()
	vec, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		return cloneVector(vec)
	}
	if vec, err := c.readDisk(key); err == nil {
		c.storeMemory(key, vec)
		return vec
	}
	return nil
}

func (c *Cached) store(key string, vec []float32) {
	c.storeMemory(key, vec)
	_ = c.writeDisk(key, vec)
}

func (c *Cached) storeMemory(key string, vec []float32) {
	c.mu.Lock()
	if c.mem != nil {
		c.mem[key] = cloneVector(vec)
	}
	c.mu.Unlock()
}

func (c *Cached) readDisk(key string) ([]float32, error) {
	if c.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	path := filepath.Join(c.cacheDir, key+".bin")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("embeddings: cache file too small: %s", path)
	}
	length := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) != length*4 {
		return nil, fmt.Errorf("embeddings: cache length mismatch: %s", path)
	}
	vec := make([]float32, length)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4 : (i+1)*4]))
	}
	return vec, nil
}

func (c *Cached) writeDisk(key string, vec []float32) error {
	if c.cacheDir == "" {
		return nil
	}
	path := filepath.Join(c.cacheDir, key+".bin")
	buf := make([]byte, 4+len(vec)*4)
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(vec)))
	off := 4
	for _, v := range vec {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		off += 4
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
