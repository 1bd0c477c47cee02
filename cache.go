package tgenmm

// cache.go shares one loaded graph among all the models that use the same
// model file.  A graph is read and validated on its first Acquire and dropped
// when the last holder Releases it.

import (
	"fmt"
	"sync"
)

type cacheEntry struct {
	graph *Graph
	refs  int
}

// ModelCache hands out Models over shared graphs, keyed by model file path.
// It is safe for concurrent use; the Models it returns are not.
type ModelCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	opts    []ModelOption
}

// CreateModelCache is a constructor.  opts apply to every Model handed out,
// ahead of the options given to Acquire
func CreateModelCache(opts ...ModelOption) *ModelCache {
	mc := new(ModelCache)
	mc.entries = make(map[string]*cacheEntry)
	mc.opts = opts
	return mc
}

// Acquire takes a reference on the graph read from modelPath, loading it if needed,
// and returns a Model over it positioned at the start vertex
func (mc *ModelCache) Acquire(modelPath string, opts ...ModelOption) (*Model, error) {
	all := append(append([]ModelOption{}, mc.opts...), opts...)
	mo := resolveModelOptions(all)

	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry, present := mc.entries[modelPath]
	if !present {
		ag, err := LoadGraphFile(modelPath)
		if err != nil {
			mo.metrics.recordLoad(false)
			return nil, err
		}
		g, err := BuildGraph(ag, mo.logger)
		mo.metrics.recordLoad(err == nil)
		if err != nil {
			return nil, err
		}
		entry = &cacheEntry{graph: g}
		mc.entries[modelPath] = entry
		mo.logger.Info("cached markov model", "path", modelPath)
	}
	entry.refs += 1
	return entry.graph.newModel(mo), nil
}

// Release drops one reference on the graph read from modelPath
func (mc *ModelCache) Release(modelPath string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry, present := mc.entries[modelPath]
	if !present {
		return fmt.Errorf("%w: %s", ErrUnknownModel, modelPath)
	}
	entry.refs -= 1
	if entry.refs == 0 {
		delete(mc.entries, modelPath)
	}
	return nil
}

// Refs returns the number of outstanding references on the graph from modelPath
func (mc *ModelCache) Refs(modelPath string) int {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry, present := mc.entries[modelPath]
	if !present {
		return 0
	}
	return entry.refs
}

// Len returns the number of graphs held
func (mc *ModelCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.entries)
}
