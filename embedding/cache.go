// File: embedding/cache.go
package embedding

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"github.com/hioload-ai/coderuntime/internal/logging"
	"go.uber.org/zap"
)

// Config sizes the three tiers.
type Config struct {
	L1Size int    // max decompressed vectors held in memory
	Dir    string // base directory for L2 records and the L3 snapshot
}

// DefaultConfig returns conservative defaults.
func DefaultConfig(dir string) Config {
	return Config{L1Size: 4096, Dir: dir}
}

// Cache is the tiered embedding cache of spec.md §4.7.
type Cache struct {
	cfg Config
	log *zap.Logger

	l1 *l1Cache
	l2 *l2Store

	mu   sync.RWMutex
	l3   *l3Snapshot // nil until the first Rebuild
	cdc  *codec
	dict []byte

	trainMu  sync.Mutex
	training [][]byte // raw (pre-compression) samples collected for dictionary training
}

// New opens (or creates) a tiered cache rooted at cfg.Dir.
func New(cfg Config) (*Cache, error) {
	if cfg.L1Size <= 0 {
		cfg.L1Size = 4096
	}
	l1, err := newL1Cache(cfg.L1Size)
	if err != nil {
		return nil, err
	}
	l2, err := newL2Store(filepath.Join(cfg.Dir, "l2"))
	if err != nil {
		return nil, err
	}
	cdc, err := newCodec(nil)
	if err != nil {
		return nil, err
	}
	return &Cache{cfg: cfg, log: logging.New("embedding.cache"), l1: l1, l2: l2, cdc: cdc}, nil
}

// Get probes L1 -> L2 -> L3 in order, promoting the first hit to L1.
func (c *Cache) Get(k Key) ([]float32, bool, error) {
	if v, ok := c.l1.get(k); ok {
		return v, true, nil
	}

	c.mu.RLock()
	cdc := c.cdc
	l3 := c.l3
	c.mu.RUnlock()

	if compressed, ok, err := c.l2.get(k); err != nil {
		c.log.Warn("l2 get failed", zap.String("key", keyString(k)), zap.Error(err))
		return nil, false, err
	} else if ok {
		vec, err := cdc.decodeVector(compressed)
		if err != nil {
			return nil, false, err
		}
		c.l1.put(k, vec)
		return vec, true, nil
	}

	if l3 != nil {
		if compressed, ok := l3.get(k); ok {
			vec, err := cdc.decodeVector(compressed)
			if err != nil {
				return nil, false, err
			}
			c.l1.put(k, vec)
			return vec, true, nil
		}
	}
	return nil, false, nil
}

// Put writes vec through to L1 and L2 (the write-through tier), and
// feeds it into the dictionary-training sample set until that set is
// full.
func (c *Cache) Put(k Key, vec []float32) error {
	c.mu.RLock()
	cdc := c.cdc
	c.mu.RUnlock()

	compressed := cdc.encodeVector(vec)
	if err := c.l2.put(k, compressed); err != nil {
		return fmt.Errorf("embedding: put: %w", err)
	}
	c.l1.put(k, vec)
	c.collectTrainingSample(vec)
	return nil
}

func (c *Cache) collectTrainingSample(vec []float32) {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()
	if len(c.training) >= DictTrainingSize {
		return
	}
	c.training = append(c.training, rawVectorBytes(vec))
}

// Train builds a zstd dictionary from the samples collected so far and
// rotates the cache onto a codec using it. Train is one-shot per
// cache instance: once a dictionary is active, records written under
// it carry that dictionary's id in their zstd frame header, so a
// second call would make those records undecodable under a
// differently-trained dictionary. Call Train once after the first
// DictTrainingSize vectors have been Put; it is a no-op thereafter.
func (c *Cache) Train() error {
	c.mu.Lock()
	if c.dict != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.trainMu.Lock()
	samples := append([][]byte(nil), c.training...)
	c.trainMu.Unlock()

	dict := trainDictionary(samples)
	cdc, err := newCodec(dict)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dict != nil {
		cdc.close()
		return nil
	}
	old := c.cdc
	c.cdc = cdc
	c.dict = dict
	old.close()
	return nil
}

// Rebuild packs every L2 record into a fresh L3 snapshot and swaps it
// in atomically: concurrent Get calls see either the old snapshot or
// the new one, never a torn file.
func (c *Cache) Rebuild() error {
	records, err := c.l2.snapshot()
	if err != nil {
		return err
	}
	snapshotPath := filepath.Join(c.cfg.Dir, "l3.snapshot")
	next, err := buildL3Snapshot(snapshotPath, records)
	if err != nil {
		return err
	}

	c.mu.Lock()
	old := c.l3
	c.l3 = next
	c.mu.Unlock()

	if old != nil {
		return old.close()
	}
	return nil
}

// Close releases the L3 mapping, if any, and the active codec.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cdc.close()
	if c.l3 != nil {
		return c.l3.close()
	}
	return nil
}

// rawVectorBytes serializes vec the same way codec.encodeVector does,
// before compression, for use as a dictionary-training sample.
func rawVectorBytes(vec []float32) []byte {
	raw := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(f))
	}
	return raw
}
