package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultJanitorInterval is how often expired state is swept
const DefaultJanitorInterval = time.Minute

// Pruner drops expired entries and reports how many went away
type Pruner interface {
	Prune() int
}

// Janitor periodically sweeps closed cooldown windows and logs queue depth
type Janitor struct {
	cooldowns Pruner
	queue     QueueStatuses
	logger    *zap.Logger

	pollInterval time.Duration
	mu           sync.Mutex
	running      bool
	stopCh       chan struct{}
	wg           sync.WaitGroup
}

// QueueStatuses lists per-channel queue state
type QueueStatuses interface {
	Statuses() []ChannelStatus
}

// NewJanitor creates a new janitor
func NewJanitor(cooldowns Pruner, queue QueueStatuses, interval time.Duration, logger *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{
		cooldowns:    cooldowns,
		queue:        queue,
		logger:       logger.Named("janitor"),
		pollInterval: interval,
	}
}

// Start starts the sweep loop
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.wg.Add(1)
	go j.loop(j.stopCh)
	j.logger.Debug("started", zap.Duration("interval", j.pollInterval))
}

// Stop stops the sweep loop and waits for it to exit
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	close(j.stopCh)
	j.mu.Unlock()

	j.wg.Wait()
}

func (j *Janitor) loop(stopCh <-chan struct{}) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.Sweep()
		case <-stopCh:
			return
		}
	}
}

// Sweep runs one pass
func (j *Janitor) Sweep() {
	if n := j.cooldowns.Prune(); n > 0 {
		j.logger.Debug("pruned cooldowns", zap.Int("count", n))
	}

	if j.queue == nil {
		return
	}
	pending, busy := 0, 0
	for _, st := range j.queue.Statuses() {
		pending += st.QueueLength
		if st.IsProcessing {
			busy++
		}
	}
	if pending > 0 {
		j.logger.Info("queue depth",
			zap.Int("pending", pending),
			zap.Int("busy_channels", busy))
	}
}
