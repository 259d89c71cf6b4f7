package system

import (
	"image"
	"sync"
)

// FramePool reuses *image.RGBA buffers to keep the per-frame allocation
// of long synthesis runs constant. Buffers are pooled per rectangle size.
type FramePool struct {
	mu    sync.RWMutex
	pools map[string]*sync.Pool
}

var globalPool = &FramePool{pools: make(map[string]*sync.Pool)}

// GetFrame returns a pooled *image.RGBA for the given rectangle, allocating
// a new one if the pool is empty.
func GetFrame(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutFrame returns a frame buffer to the pool for reuse.
func PutFrame(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *FramePool) Get(rect image.Rectangle) *image.RGBA {
	key := rect.String()

	p.mu.RLock()
	pool, ok := p.pools[key]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		pool, ok = p.pools[key]
		if !ok {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewRGBA(rect)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *FramePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}

	p.mu.RLock()
	pool, ok := p.pools[img.Rect.String()]
	p.mu.RUnlock()

	if ok {
		pool.Put(img)
	}
}
