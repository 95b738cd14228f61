package service

import (
	"hash/fnv"
	"sync"
)

const userLockStripes = 64

// userLocks serializes login pipelines of the same user inside one process.
// Different users may share a stripe.
type userLocks struct {
	stripes [userLockStripes]sync.Mutex
}

func (l *userLocks) lock(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	m := &l.stripes[h.Sum32()%userLockStripes]
	m.Lock()
	return m.Unlock
}
