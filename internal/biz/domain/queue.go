package domain

// DefaultMaxQueueLength is the per-channel queue bound used when none is configured
const DefaultMaxQueueLength = 10

// ChannelQueue is a bounded FIFO of pending messages for one channel.
// When full, Push evicts the oldest entry so the newest always gets in.
// ChannelQueue is not safe for concurrent use; the dispatcher guards it.
type ChannelQueue struct {
	items []PendingMessage
	max   int
}

// NewChannelQueue creates a queue bounded by max entries
func NewChannelQueue(max int) *ChannelQueue {
	if max <= 0 {
		max = DefaultMaxQueueLength
	}
	return &ChannelQueue{max: max}
}

// Push appends msg, evicting from the head until there is room.
// It returns the number of evicted messages.
func (q *ChannelQueue) Push(msg PendingMessage) int {
	evicted := 0
	for len(q.items) >= q.max {
		q.items = q.items[1:]
		evicted++
	}
	q.items = append(q.items, msg)
	return evicted
}

// Peek returns the head without removing it
func (q *ChannelQueue) Peek() (PendingMessage, bool) {
	if len(q.items) == 0 {
		return PendingMessage{}, false
	}
	return q.items[0], true
}

// Pop removes and returns the head
func (q *ChannelQueue) Pop() (PendingMessage, bool) {
	if len(q.items) == 0 {
		return PendingMessage{}, false
	}
	head := q.items[0]
	q.items[0] = PendingMessage{}
	q.items = q.items[1:]
	return head, true
}

// Requeue moves the head to the tail. Length is unchanged.
func (q *ChannelQueue) Requeue() bool {
	head, ok := q.Pop()
	if !ok {
		return false
	}
	q.items = append(q.items, head)
	return true
}

// Len returns the number of queued messages
func (q *ChannelQueue) Len() int {
	return len(q.items)
}

// Max returns the queue bound
func (q *ChannelQueue) Max() int {
	return q.max
}

// SetMax changes the bound. Shrinking drops the oldest entries.
func (q *ChannelQueue) SetMax(max int) {
	if max <= 0 {
		max = DefaultMaxQueueLength
	}
	q.max = max
	if over := len(q.items) - max; over > 0 {
		q.items = q.items[over:]
	}
}

// Snapshot returns a copy of the queued messages, oldest first
func (q *ChannelQueue) Snapshot() []PendingMessage {
	out := make([]PendingMessage, len(q.items))
	copy(out, q.items)
	return out
}
