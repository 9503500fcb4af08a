package tracker

import "lecture-rag-be/internal/entity"

const DefaultBackupCapacity = 100

// backupRing keeps the latest chunks of one session for recovery.
// It is guarded by the tracker mutex.
type backupRing struct {
	items []entity.ChunkRecord
	head  int
	size  int
}

func newBackupRing(capacity int) *backupRing {
	if capacity <= 0 {
		capacity = DefaultBackupCapacity
	}
	return &backupRing{items: make([]entity.ChunkRecord, capacity)}
}

func (b *backupRing) add(c entity.ChunkRecord) {
	tail := (b.head + b.size) % len(b.items)
	b.items[tail] = c
	if b.size < len(b.items) {
		b.size++
		return
	}
	b.head = (b.head + 1) % len(b.items)
}

// snapshot returns the held chunks, oldest first.
func (b *backupRing) snapshot() []entity.ChunkRecord {
	out := make([]entity.ChunkRecord, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

func (b *backupRing) len() int {
	return b.size
}
