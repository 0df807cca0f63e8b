package fetch

import (
	"sync"

	"ewintr.nl/chanwatch/model"
)

// channelLocks serializes polls of the same channel. Entries are dropped
// once nobody holds or waits for them.
type channelLocks struct {
	mu    sync.Mutex
	locks map[model.YoutubeChannelID]*channelLock
}

type channelLock struct {
	sync.Mutex
	refs int
}

func newChannelLocks() *channelLocks {
	return &channelLocks{locks: map[model.YoutubeChannelID]*channelLock{}}
}

func (c *channelLocks) lock(channelID model.YoutubeChannelID) func() {
	c.mu.Lock()
	l, ok := c.locks[channelID]
	if !ok {
		l = &channelLock{}
		c.locks[channelID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, channelID)
		}
		c.mu.Unlock()
	}
}
