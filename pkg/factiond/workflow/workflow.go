package workflow

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionTTL is how long an abandoned session stays resumable. Expired
// sessions are evicted lazily on access.
const SessionTTL = 10 * time.Minute

var (
	ErrUnknownAction = errors.New("unknown workflow action")
	ErrNotFound      = errors.New("workflow session not found")
	ErrNotYours      = errors.New("workflow session belongs to another user")
	ErrWrongField    = errors.New("unexpected field for this step")
	ErrIncomplete    = errors.New("workflow session has remaining steps")
	ErrRequired      = errors.New("a value is required for this step")
)

// Field is one input a workflow collects before its engine call.
type Field struct {
	Name     string `json:"name"`
	Prompt   string `json:"prompt"`
	Required bool   `json:"required"`
}

// actionFields defines, per action, the ordered inputs the driver walks
// the user through. The order mirrors the menu/modal sequence.
var actionFields = map[string][]Field{
	"create": {
		{Name: "name", Prompt: "Faction name", Required: true},
		{Name: "code", Prompt: "Unique code (3-4 letters)", Required: true},
		{Name: "type", Prompt: "Faction type", Required: true},
		{Name: "group_url", Prompt: "Group link", Required: false},
		{Name: "color", Prompt: "Hex color", Required: false},
	},
	"rename": {
		{Name: "name", Prompt: "New name", Required: false},
		{Name: "code", Prompt: "New code", Required: false},
	},
	"promote": {
		{Name: "target", Prompt: "Member to promote", Required: true},
		{Name: "rank", Prompt: "Destination rank", Required: true},
	},
	"demote": {
		{Name: "target", Prompt: "Member to demote", Required: true},
		{Name: "rank", Prompt: "Destination rank", Required: true},
	},
	"kick": {
		{Name: "target", Prompt: "Member to kick", Required: true},
		{Name: "reason", Prompt: "Reason", Required: false},
	},
	"strike": {
		{Name: "target", Prompt: "Member to strike", Required: true},
		{Name: "reason", Prompt: "Reason", Required: true},
	},
	"transfer": {
		{Name: "target", Prompt: "New owner", Required: true},
	},
	"invite": {
		{Name: "users", Prompt: "User ids, space separated (max 10)", Required: true},
	},
	"channel_add": {
		{Name: "name", Prompt: "Channel name", Required: true},
		{Name: "preset", Prompt: "Access preset", Required: true},
	},
	"channel_remove": {
		{Name: "channel", Prompt: "Channel to remove", Required: true},
	},
	"channel_rename": {
		{Name: "channel", Prompt: "Channel to rename", Required: true},
		{Name: "name", Prompt: "New name", Required: true},
	},
	"leave":   {},
	"disband": {},
}

// Actions lists the workflow action names.
func Actions() []string {
	out := make([]string, 0, len(actionFields))
	for name := range actionFields {
		out = append(out, name)
	}
	return out
}

// Session is one user's in-flight multi-step operation. Values accumulate
// until every field is collected, then the session is ready to confirm.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Action    string            `json:"action"`
	Step      int               `json:"step"`
	Values    map[string]string `json:"values"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Ready reports whether every field has been collected.
func (s *Session) Ready() bool {
	return s.Step >= len(actionFields[s.Action])
}

// Next returns the field the session expects, or nil when ready.
func (s *Session) Next() *Field {
	fields := actionFields[s.Action]
	if s.Step >= len(fields) {
		return nil
	}
	f := fields[s.Step]
	return &f
}

// Store holds open sessions, keyed by id. Expired sessions are evicted
// when touched.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
	onCount  func(delta int)
}

// NewStore creates a session store. onCount, if non-nil, is called with
// +1/-1 as sessions open and close, for gauge upkeep.
func NewStore(now func() time.Time, onCount func(delta int)) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{sessions: make(map[string]*Session), now: now, onCount: onCount}
}

func (st *Store) count(delta int) {
	if st.onCount != nil {
		st.onCount(delta)
	}
}

// snapshot copies the session so callers can read it after the store's
// lock is released. The stored session never escapes the lock.
func (s *Session) snapshot() *Session {
	c := *s
	c.Values = make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		c.Values[k] = v
	}
	return &c
}

// Begin opens a session for the user's chosen action.
func (st *Store) Begin(userID, action string) (*Session, error) {
	if _, ok := actionFields[action]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Values:    make(map[string]string),
		ExpiresAt: st.now().Add(SessionTTL),
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	st.count(1)
	return s.snapshot(), nil
}

// lookup loads a live session owned by userID, evicting it if expired.
// Callers must hold st.mu.
func (st *Store) lookup(id, userID string) (*Session, error) {
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if st.now().After(s.ExpiresAt) {
		delete(st.sessions, id)
		st.count(-1)
		return nil, fmt.Errorf("%w: session expired", ErrNotFound)
	}
	if s.UserID != userID {
		return nil, ErrNotYours
	}
	return s, nil
}

// Advance submits the value for the session's current field. The field
// name must match the expected step; optional fields accept empty values.
func (st *Store) Advance(id, userID, field, value string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, err := st.lookup(id, userID)
	if err != nil {
		return nil, err
	}
	expected := s.Next()
	if expected == nil {
		return nil, fmt.Errorf("%w: all steps collected, confirm or abandon", ErrWrongField)
	}
	if field != expected.Name {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrWrongField, expected.Name, field)
	}
	if expected.Required && value == "" {
		return nil, fmt.Errorf("%w: %s", ErrRequired, expected.Name)
	}
	s.Values[field] = value
	s.Step++
	s.ExpiresAt = st.now().Add(SessionTTL)
	return s.snapshot(), nil
}

// Peek returns the session without mutating it.
func (st *Store) Peek(id, userID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, err := st.lookup(id, userID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// Take consumes a ready session, returning its collected values.
func (st *Store) Take(id, userID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, err := st.lookup(id, userID)
	if err != nil {
		return nil, err
	}
	if !s.Ready() {
		return nil, fmt.Errorf("%w: next step is %s", ErrIncomplete, s.Next().Name)
	}
	delete(st.sessions, id)
	st.count(-1)
	return s, nil
}

// Abandon discards a session regardless of progress.
func (st *Store) Abandon(id, userID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, err := st.lookup(id, userID); err != nil {
		return err
	}
	delete(st.sessions, id)
	st.count(-1)
	return nil
}
