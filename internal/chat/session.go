package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/CoachBridge/CoachBridge/internal/history"
)

// reconcileKind selects which temp-identifier family a reconciliation wait
// is correlating: the user's own message or the expected system reply.
type reconcileKind int

const (
	reconcileUser reconcileKind = iota
	reconcileSystem
)

func (k reconcileKind) String() string {
	if k == reconcileSystem {
		return "system"
	}
	return "user"
}

// Session holds the ordered transcript and reconciliation bookkeeping for
// one active conversation. It is created when a conversation becomes active
// and reset only on explicit user action, not between screen navigations.
// All transcript mutation goes through the engine operations; presentation
// code only reads.
type Session struct {
	Key string

	mu            sync.RWMutex
	messages      []Message
	pendingUser   map[string]struct{}
	pendingSystem map[string]struct{}
	lastSyncedAt  time.Time
	loadEpoch     uint64
	fetching      bool
	everSynced    bool
}

// NewSession creates an empty session for the given conversation key.
func NewSession(key string) *Session {
	return &Session{
		Key:           key,
		pendingUser:   make(map[string]struct{}),
		pendingSystem: make(map[string]struct{}),
	}
}

// Messages returns a copy of the transcript in chronological order.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Message, len(s.messages))
	copy(result, s.messages)
	return result
}

// LastSyncedAt returns the time of the last successful authoritative fetch.
func (s *Session) LastSyncedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncedAt
}

// IsAwaitingReply reports whether a system reply is still expected. Drives
// the typing indicator.
func (s *Session) IsAwaitingReply() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pendingSystem) > 0
}

// Clear resets the transcript and all pending reconciliation state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = []Message{}
	s.pendingUser = make(map[string]struct{})
	s.pendingSystem = make(map[string]struct{})
}

// Prime seeds the transcript from a cached snapshot. It is a no-op once the
// session holds messages or has completed an authoritative fetch; the cache
// is never allowed to supersede fresh server state.
func (s *Session) Prime(msgs []Message, syncedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.everSynced || len(s.messages) > 0 {
		return false
	}
	s.messages = make([]Message, len(msgs))
	copy(s.messages, msgs)
	sortByTimestamp(s.messages)
	s.lastSyncedAt = syncedAt
	return true
}

// append adds a locally-originated message. Local inserts always order
// after every currently-known message, even under client/server clock skew.
func (s *Session) append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.messages); n > 0 {
		if last := s.messages[n-1].Timestamp; !msg.Timestamp.After(last) {
			msg.Timestamp = last.Add(time.Millisecond)
		}
	}
	s.messages = append(s.messages, msg)
}

// remove deletes the message whose id or client temp id matches.
func (s *Session) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.messages {
		if m.ID == id || (m.ClientTempID != "" && m.ClientTempID == id) {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return true
		}
	}
	return false
}

// setText updates a message's text in place. Only the streaming reveal
// uses this; persisted text is otherwise immutable.
func (s *Session) setText(id, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Text = text
			return true
		}
	}
	return false
}

func (s *Session) trackPendingUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingUser[id] = struct{}{}
}

func (s *Session) trackPendingSystem(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			s.pendingSystem[id] = struct{}{}
		}
	}
}

// hasPending reports whether any of the ids is still tracked as awaiting
// reconciliation. Doubles as teardown safety: after Clear, nothing is
// pending and waits become no-ops.
func (s *Session) hasPending(ids []string, kind reconcileKind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := s.pendingUser
	if kind == reconcileSystem {
		pending = s.pendingSystem
	}
	for _, id := range ids {
		if _, ok := pending[id]; ok {
			return true
		}
	}
	return false
}

func (s *Session) clearPending(ids []string, kind reconcileKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pendingUser
	if kind == reconcileSystem {
		pending = s.pendingSystem
	}
	for _, id := range ids {
		delete(pending, id)
	}
}

// converged reports whether none of the transcript messages still carries
// one of the given temp identifiers.
func (s *Session) converged(ids []string, kind reconcileKind) bool {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.messages {
		switch kind {
		case reconcileUser:
			if m.ClientTempID != "" {
				if _, ok := set[m.ClientTempID]; ok {
					return false
				}
			}
		case reconcileSystem:
			if m.SystemTempID != "" {
				if _, ok := set[m.SystemTempID]; ok {
					return false
				}
			}
			if m.RunID != "" && m.IsOptimistic {
				if _, ok := set[m.RunID]; ok {
					return false
				}
			}
		}
	}
	return true
}

// beginLoad admits an authoritative-fetch pass. A pass already in flight
// causes non-forced callers to be skipped. Every admitted pass advances the
// load epoch; the epoch value tags the pass for the staleness check in
// applyLoad.
func (s *Session) beginLoad(force bool) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fetching && !force {
		return 0, false
	}
	s.fetching = true
	s.loadEpoch++
	return s.loadEpoch, true
}

// failLoad records a failed fetch pass. The transcript is left unchanged,
// except that the very first load of a session settles on empty so readers
// see a defined state.
func (s *Session) failLoad(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetching = false
	if !s.everSynced && s.messages == nil {
		s.messages = []Message{}
	}
}

// applyLoad installs a completed fetch pass. A pass whose epoch has been
// superseded by a newer admitted pass is discarded unless it was forced.
//
// Full replace rebuilds the transcript from the fresh authoritative set.
// A local optimistic entry survives the replace only if the fresh set
// contains neither its id nor an echo of its temp identifier; an echoed
// temp id means the server now holds the message, so the authoritative row
// takes the local entry's place. Delta mode appends rows with unseen ids.
// Either way the transcript is re-sorted chronologically.
func (s *Session) applyLoad(epoch uint64, force, fullReplace bool, rows []history.RawMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetching = false
	if s.loadEpoch != epoch && !force {
		return false
	}

	if fullReplace {
		ids := make(map[string]struct{}, len(rows))
		echoes := make(map[string]struct{})
		for _, r := range rows {
			ids[r.ID] = struct{}{}
			for _, echo := range []string{r.ClientTempID, r.SystemTempID, r.RunID} {
				if echo != "" {
					echoes[echo] = struct{}{}
				}
			}
		}

		next := make([]Message, 0, len(rows)+4)
		for _, r := range rows {
			next = append(next, fromRaw(r))
		}
		for _, m := range s.messages {
			if !m.IsOptimistic {
				continue
			}
			if _, ok := ids[m.ID]; ok {
				continue
			}
			if m.ClientTempID != "" {
				if _, ok := echoes[m.ClientTempID]; ok {
					continue
				}
			}
			if m.SystemTempID != "" {
				if _, ok := echoes[m.SystemTempID]; ok {
					continue
				}
			}
			next = append(next, m)
		}
		s.messages = next
	} else {
		seen := make(map[string]struct{}, len(s.messages))
		for _, m := range s.messages {
			seen[m.ID] = struct{}{}
		}
		for _, r := range rows {
			if _, ok := seen[r.ID]; !ok {
				s.messages = append(s.messages, fromRaw(r))
			}
		}
	}

	sortByTimestamp(s.messages)
	s.lastSyncedAt = time.Now()
	s.everSynced = true
	return true
}

func sortByTimestamp(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
