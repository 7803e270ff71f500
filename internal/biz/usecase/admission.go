package usecase

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"go.uber.org/zap"
)

// seenTTL bounds how long a message id is remembered for dedupe
const seenTTL = 5 * time.Minute

// Admission skip reasons
const (
	SkipDisabled    = "disabled"
	SkipInvalid     = "invalid"
	SkipDuplicate   = "duplicate"
	SkipSelf        = "self"
	SkipChannel     = "channel_not_monitored"
	SkipIgnoredUser = "ignored_user"
	SkipBot         = "bot_author"
	SkipNotSelected = "not_selected"
)

// AdmissionResult is the decision for one detected message
type AdmissionResult struct {
	Reply  bool
	Reason string // empty when Reply is true
}

// AdmissionUsecase decides which detected messages get queued for a reply
type AdmissionUsecase struct {
	settings SettingsProvider
	history  *domain.MessageHistory
	selfID   func() string
	now      func() time.Time
	roll     func() float64 // uniform in [0, 1)
	logger   *zap.Logger

	// Message deduplication cache
	seenMu sync.Mutex
	seen   map[string]time.Time
}

// NewAdmissionUsecase creates a new admission usecase.
// selfID returns the id of the account we post as; messages from it are never answered.
func NewAdmissionUsecase(
	settings SettingsProvider,
	history *domain.MessageHistory,
	selfID func() string,
	logger *zap.Logger,
) *AdmissionUsecase {
	if selfID == nil {
		selfID = func() string { return "" }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionUsecase{
		settings: settings,
		history:  history,
		selfID:   selfID,
		now:      time.Now,
		roll:     rand.Float64,
		logger:   logger.Named("admission"),
		seen:     make(map[string]time.Time),
	}
}

// Admit records msg in the history when it is in scope and reports whether to reply
func (uc *AdmissionUsecase) Admit(msg *domain.DetectedMessage) AdmissionResult {
	s := uc.settings.Current()
	if !s.Enabled {
		return skip(SkipDisabled)
	}
	if strings.TrimSpace(msg.Content) == "" || msg.Metadata.ChannelID == "" {
		uc.logger.Debug("message without content or channel",
			zap.String("message_id", msg.Metadata.MessageID))
		return skip(SkipInvalid)
	}
	if msg.Metadata.MessageID != "" && uc.markSeen(msg.Metadata.MessageID) {
		return skip(SkipDuplicate)
	}
	if msg.IsAuthoredBy(uc.selfID()) {
		return skip(SkipSelf)
	}
	if !s.MonitorsChannel(msg.Metadata.ChannelID) {
		return skip(SkipChannel)
	}
	if s.IgnoresUser(msg.Metadata.UserID) {
		return skip(SkipIgnoredUser)
	}

	uc.history.Add(domain.HistoryEntry{
		Username:  msg.Metadata.Username,
		Content:   msg.Content,
		Timestamp: msg.Metadata.Timestamp,
	})

	if msg.IsBot && !msg.IsMentioned {
		return skip(SkipBot)
	}
	if !msg.IsMentioned && uc.roll()*100 >= float64(s.ReplyFrequency) {
		return skip(SkipNotSelected)
	}
	return AdmissionResult{Reply: true}
}

// markSeen records msgID and reports whether it had been seen already
func (uc *AdmissionUsecase) markSeen(msgID string) bool {
	uc.seenMu.Lock()
	defer uc.seenMu.Unlock()

	now := uc.now()
	if ts, ok := uc.seen[msgID]; ok && now.Sub(ts) < seenTTL {
		return true
	}
	uc.seen[msgID] = now

	// Clean up expired records when marking new messages
	cutoff := now.Add(-seenTTL)
	for id, ts := range uc.seen {
		if ts.Before(cutoff) {
			delete(uc.seen, id)
		}
	}
	return false
}

func skip(reason string) AdmissionResult {
	return AdmissionResult{Reason: reason}
}
