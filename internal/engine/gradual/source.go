package gradual

import (
	"sync"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/model"
)

// SliceSource adapts a fixed in-memory slice to a Source.
type SliceSource struct {
	objs []model.HitObject
	next int
}

// NewSliceSource creates a Source over objs. The slice is borrowed, not
// copied; callers must not mutate it afterwards.
func NewSliceSource(objs []model.HitObject) *SliceSource {
	return &SliceSource{objs: objs}
}

// Next returns the next object until the slice is drained.
func (s *SliceSource) Next() (model.HitObject, bool) {
	if s.next >= len(s.objs) {
		return model.HitObject{}, false
	}
	o := s.objs[s.next]
	s.next++
	return o, true
}

// Remaining returns the number of unread objects.
func (s *SliceSource) Remaining() int {
	return len(s.objs) - s.next
}

// Buffer is an appendable Source: producers Push objects as they arrive
// while a single consumer drains them through Next. Push is safe for
// concurrent use; Next is called only from the (serialized) driver path.
type Buffer struct {
	mu   sync.Mutex
	objs []model.HitObject
	next int
}

// NewBuffer creates an empty appendable source.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Push appends objects to the tail of the stream.
func (b *Buffer) Push(objs ...model.HitObject) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objs = append(b.objs, objs...)
}

// Next returns the next unread object, or false when the buffer is
// currently drained. More objects may still be pushed later.
func (b *Buffer) Next() (model.HitObject, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.next >= len(b.objs) {
		// Drop consumed objects once in a while so an unbounded stream
		// does not pin its whole history.
		if b.next > 0 {
			b.objs = b.objs[:0]
			b.next = 0
		}
		return model.HitObject{}, false
	}
	o := b.objs[b.next]
	b.next++
	return o, true
}

// Pending returns the number of pushed-but-unread objects.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objs) - b.next
}
