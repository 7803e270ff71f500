package service

import (
	"context"
	"fmt"
	"math/rand"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/chatops-lab/discord-autoreply/internal/biz/usecase"
	"go.uber.org/zap"
)

// Fixed waits of the drain loop
const (
	FailureBackoff  = 5 * time.Second
	InterMessageGap = 2 * time.Second
)

// State is what a channel's drain loop is currently doing
type State string

const (
	StateIdle            State = "idle"
	StateWaitingCooldown State = "waiting_cooldown"
	StateGenerating      State = "generating"
	StatePacing          State = "pacing"
	StateSending         State = "sending"
	StateBackoff         State = "backoff"
)

// Generator produces reply text; "" means no reply could be generated
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// Sender posts text to a channel; nil means delivered
type Sender interface {
	Send(ctx context.Context, channelID, text string) error
}

// Cooldowns answers cooldown queries per channel
type Cooldowns interface {
	InCooldown(channelID string) bool
	Remaining(channelID string) time.Duration
}

// QueuedMessage is a queue entry as shown in a status report
type QueuedMessage struct {
	Content     string    `json:"content"`
	Username    string    `json:"username"`
	UserID      string    `json:"user_id"`
	MessageID   string    `json:"message_id"`
	IsMentioned bool      `json:"is_mentioned"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChannelStatus is a point-in-time view of one channel's queue
type ChannelStatus struct {
	ChannelID    string          `json:"channel_id"`
	QueueLength  int             `json:"queue_length"`
	IsProcessing bool            `json:"is_processing"`
	State        State           `json:"state"`
	Messages     []QueuedMessage `json:"messages"`
}

// channelState is guarded by Dispatcher.mu
type channelState struct {
	queue      *domain.ChannelQueue
	processing bool
	state      State
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithSleep replaces the wait primitive
func WithSleep(sleep usecase.SleepFunc) Option {
	return func(d *Dispatcher) { d.sleep = sleep }
}

// WithIntn replaces the random source; intn(n) must return a value in [0, n)
func WithIntn(intn func(int) int) Option {
	return func(d *Dispatcher) { d.intn = intn }
}

// Dispatcher serializes replies per channel.
// Each channel with pending messages has exactly one drain goroutine.
type Dispatcher struct {
	generator Generator
	sender    Sender
	cooldowns Cooldowns
	history   *domain.MessageHistory
	settings  usecase.SettingsProvider
	prompts   usecase.PromptConfig
	sleep     usecase.SleepFunc
	intn      func(int) int
	logger    *zap.Logger

	// Channel states
	mu       sync.Mutex
	channels map[string]*channelState
	stopped  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(
	generator Generator,
	sender Sender,
	cooldowns Cooldowns,
	history *domain.MessageHistory,
	settings usecase.SettingsProvider,
	prompts usecase.PromptConfig,
	logger *zap.Logger,
	opts ...Option,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		generator: generator,
		sender:    sender,
		cooldowns: cooldowns,
		history:   history,
		settings:  settings,
		prompts:   prompts,
		sleep:     usecase.Sleep,
		intn:      rand.Intn,
		logger:    logger.Named("dispatcher"),
		channels:  make(map[string]*channelState),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue appends msg to the channel's queue, evicting the oldest entry when full,
// and starts draining the channel if it is not already. It always returns true.
func (d *Dispatcher) Enqueue(channelID string, msg domain.PendingMessage) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		d.logger.Warn("dispatcher stopped, message dropped", zap.String("channel", channelID))
		return true
	}

	cs := d.channelLocked(channelID)
	evicted := cs.queue.Push(msg)
	length := cs.queue.Len()
	start := !cs.processing
	if start {
		cs.processing = true
		d.wg.Add(1)
	}
	d.mu.Unlock()

	if evicted > 0 {
		d.logger.Info("queue full, oldest message evicted",
			zap.String("channel", channelID),
			zap.Int("evicted", evicted))
	}
	d.logger.Debug("message enqueued",
		zap.String("channel", channelID),
		zap.String("message_id", msg.Metadata.MessageID),
		zap.Int("queue_length", length))

	if start {
		go d.drain(channelID, cs)
	}
	return true
}

// SetMaxQueueLength resizes every queue, evicting from the head where needed
func (d *Dispatcher) SetMaxQueueLength(max int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, cs := range d.channels {
		cs.queue.SetMax(max)
	}
}

// Status returns the status of one channel
func (d *Dispatcher) Status(channelID string) ChannelStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	cs, ok := d.channels[channelID]
	if !ok {
		return ChannelStatus{ChannelID: channelID, State: StateIdle, Messages: []QueuedMessage{}}
	}
	return statusLocked(channelID, cs)
}

// Statuses returns the status of every known channel ordered by id
func (d *Dispatcher) Statuses() []ChannelStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]ChannelStatus, 0, len(d.channels))
	for id, cs := range d.channels {
		out = append(out, statusLocked(id, cs))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out
}

// Stop cancels all drain loops, waits for them to exit and discards queued messages
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()

	d.mu.Lock()
	for _, cs := range d.channels {
		cs.queue = domain.NewChannelQueue(cs.queue.Max())
		cs.processing = false
		cs.state = StateIdle
	}
	d.mu.Unlock()
	d.logger.Info("dispatcher stopped")
}

func (d *Dispatcher) channelLocked(channelID string) *channelState {
	cs, ok := d.channels[channelID]
	if !ok {
		cs = &channelState{
			queue: domain.NewChannelQueue(d.settings.Current().MaxQueueLength),
			state: StateIdle,
		}
		d.channels[channelID] = cs
	}
	return cs
}

func statusLocked(channelID string, cs *channelState) ChannelStatus {
	items := cs.queue.Snapshot()
	msgs := make([]QueuedMessage, 0, len(items))
	for _, m := range items {
		msgs = append(msgs, QueuedMessage{
			Content:     m.Content,
			Username:    m.Metadata.Username,
			UserID:      m.Metadata.UserID,
			MessageID:   m.Metadata.MessageID,
			IsMentioned: m.IsMentioned,
			Timestamp:   m.Metadata.Timestamp,
		})
	}
	return ChannelStatus{
		ChannelID:    channelID,
		QueueLength:  len(items),
		IsProcessing: cs.processing,
		State:        cs.state,
		Messages:     msgs,
	}
}

// drain runs until the channel's queue is empty or the dispatcher stops
func (d *Dispatcher) drain(channelID string, cs *channelState) {
	defer d.wg.Done()

	for {
		more, inFlight, err := d.safeIteration(channelID, cs)
		if err == nil {
			if !more {
				return
			}
			continue
		}

		d.logger.Warn("attempt failed, requeueing",
			zap.String("channel", channelID),
			zap.Error(err))

		d.mu.Lock()
		if head, ok := cs.queue.Peek(); ok && inFlight != nil && sameMessage(head, *inFlight) {
			cs.queue.Requeue()
		}
		cs.state = StateBackoff
		d.mu.Unlock()

		if d.sleep(d.ctx, FailureBackoff) != nil {
			d.finish(cs)
			return
		}
	}
}

// safeIteration runs one iteration and converts a panic into an error.
// On error, inFlight is the message that was at the head when the attempt began.
func (d *Dispatcher) safeIteration(channelID string, cs *channelState) (more bool, inFlight *domain.PendingMessage, err error) {
	var head domain.PendingMessage
	var peeked bool

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in drain loop",
				zap.String("channel", channelID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			more, err = true, fmt.Errorf("panic: %v", r)
		}
		if err != nil && peeked {
			inFlight = &head
		}
	}()

	more, err = d.iteration(channelID, cs, func(m domain.PendingMessage) {
		head, peeked = m, true
	})
	return more, nil, err
}

// iteration handles the head of the queue once; peeked is told which message that is.
// more=false means the loop has ended and the ProcessingFlag is already cleared.
// A non-nil error asks the caller to requeue the head and back off.
func (d *Dispatcher) iteration(channelID string, cs *channelState, peeked func(domain.PendingMessage)) (bool, error) {
	d.mu.Lock()
	msg, ok := cs.queue.Peek()
	if !ok || d.ctx.Err() != nil {
		cs.processing = false
		cs.state = StateIdle
		d.mu.Unlock()
		return false, nil
	}
	d.mu.Unlock()
	peeked(msg)

	if d.cooldowns.InCooldown(channelID) {
		wait := d.cooldowns.Remaining(channelID) + usecase.CooldownMargin
		d.setState(cs, StateWaitingCooldown)
		d.logger.Info("channel in cooldown, waiting",
			zap.String("channel", channelID),
			zap.Duration("wait", wait))
		if d.sleep(d.ctx, wait) != nil {
			return d.finish(cs), nil
		}
		return true, nil
	}

	d.setState(cs, StateGenerating)
	prompt := d.prompts.BuildPrompt(d.history.Last(d.prompts.HistoryCount), msg.Content)
	reply := d.generator.Generate(d.ctx, prompt)
	if d.ctx.Err() != nil {
		return d.finish(cs), nil
	}
	if reply == "" {
		d.popIfHead(cs, msg)
		d.logger.Info("no reply generated, message dropped",
			zap.String("channel", channelID),
			zap.String("message_id", msg.Metadata.MessageID))
		return true, nil
	}

	text := usecase.FormatOutbound(d.prompts.ApplyTemplate(reply, d.intn), msg)

	delay := d.pacingDelay(channelID, d.settings.Current())
	d.setState(cs, StatePacing)
	d.logger.Debug("pacing before send",
		zap.String("channel", channelID),
		zap.Duration("delay", delay))
	if d.sleep(d.ctx, delay) != nil {
		return d.finish(cs), nil
	}

	d.setState(cs, StateSending)
	if err := d.sender.Send(d.ctx, channelID, text); err != nil {
		if d.ctx.Err() != nil {
			return d.finish(cs), nil
		}
		return true, fmt.Errorf("send: %w", err)
	}

	d.mu.Lock()
	if head, ok := cs.queue.Peek(); ok && sameMessage(head, msg) {
		cs.queue.Pop()
	}
	remaining := cs.queue.Len()
	if remaining == 0 {
		cs.processing = false
		cs.state = StateIdle
	}
	d.mu.Unlock()

	if remaining == 0 {
		return false, nil
	}

	d.setState(cs, StatePacing)
	if d.sleep(d.ctx, InterMessageGap) != nil {
		return d.finish(cs), nil
	}
	return true, nil
}

// pacingDelay is max(cooldown remaining + margin, uniform[minDelay, maxDelay])
func (d *Dispatcher) pacingDelay(channelID string, s domain.Settings) time.Duration {
	minMs, maxMs := s.MinDelayMs, s.MaxDelayMs
	if maxMs < minMs {
		maxMs = minMs
	}
	random := time.Duration(minMs+d.intn(maxMs-minMs+1)) * time.Millisecond

	floor := d.cooldowns.Remaining(channelID) + usecase.CooldownMargin
	if floor > random {
		return floor
	}
	return random
}

// popIfHead pops msg if it is still at the head; it may have been evicted meanwhile
func (d *Dispatcher) popIfHead(cs *channelState, msg domain.PendingMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if head, ok := cs.queue.Peek(); ok && sameMessage(head, msg) {
		cs.queue.Pop()
	}
}

func (d *Dispatcher) setState(cs *channelState, state State) {
	d.mu.Lock()
	cs.state = state
	d.mu.Unlock()
}

// finish ends the loop on cancellation
func (d *Dispatcher) finish(cs *channelState) bool {
	d.mu.Lock()
	cs.processing = false
	cs.state = StateIdle
	d.mu.Unlock()
	return false
}

func sameMessage(a, b domain.PendingMessage) bool {
	return a.Metadata.MessageID == b.Metadata.MessageID &&
		a.Metadata.ChannelID == b.Metadata.ChannelID &&
		a.Content == b.Content &&
		a.Metadata.Timestamp.Equal(b.Metadata.Timestamp)
}
