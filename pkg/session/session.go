package session

import "github.com/google/uuid"

// Value bag keys. The bag round-trips through JSON, so numeric values may
// come back as float64; the typed accessors below normalize that.
const (
	keyUserID        = "user_id"
	keyUserRole      = "user_role"
	keyTrustLevel    = "trust_level"
	keyPhoneNumber   = "phone_number"
	keyGuestBookings = "guest_bookings"
	keyFlash         = "flash"
)

// Session is a cookie-scoped key/value bag. It is plain data; persistence
// goes through Store.
type Session struct {
	ID     string         `json:"id"`
	Values map[string]any `json:"values"`
}

func New() *Session {
	return &Session{
		ID:     uuid.NewString(),
		Values: map[string]any{},
	}
}

func (s *Session) UserID() (uint, bool) {
	n, ok := asUint(s.Values[keyUserID])
	return n, ok
}

func (s *Session) SetUserID(id uint) {
	s.Values[keyUserID] = id
}

func (s *Session) Role() string {
	role, _ := s.Values[keyUserRole].(string)
	return role
}

func (s *Session) SetRole(role string) {
	s.Values[keyUserRole] = role
}

func (s *Session) IsAdmin() bool {
	return s.Role() == "admin"
}

func (s *Session) TrustLevel() int {
	n, ok := asUint(s.Values[keyTrustLevel])
	if !ok {
		return 0
	}
	return int(n)
}

func (s *Session) SetTrustLevel(level int) {
	s.Values[keyTrustLevel] = level
}

func (s *Session) PhoneNumber() string {
	phone, _ := s.Values[keyPhoneNumber].(string)
	return phone
}

func (s *Session) SetPhoneNumber(phone string) {
	s.Values[keyPhoneNumber] = phone
}

// GuestBookingIDs returns the booking ids created while unauthenticated,
// waiting to be claimed by an account.
func (s *Session) GuestBookingIDs() []uint {
	raw, ok := s.Values[keyGuestBookings].([]any)
	if !ok {
		return nil
	}
	ids := make([]uint, 0, len(raw))
	for _, v := range raw {
		if n, ok := asUint(v); ok {
			ids = append(ids, n)
		}
	}
	return ids
}

func (s *Session) AppendGuestBooking(id uint) {
	raw, _ := s.Values[keyGuestBookings].([]any)
	s.Values[keyGuestBookings] = append(raw, id)
}

// RemoveGuestBookings drops the given ids from the guest list, typically
// after they have been claimed by an account.
func (s *Session) RemoveGuestBookings(ids []uint) {
	claimed := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		claimed[id] = struct{}{}
	}

	var remaining []any
	for _, id := range s.GuestBookingIDs() {
		if _, ok := claimed[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 0 {
		delete(s.Values, keyGuestBookings)
		return
	}
	s.Values[keyGuestBookings] = remaining
}

func (s *Session) SetFlash(msg string) {
	s.Values[keyFlash] = msg
}

// PopFlash returns the pending flash message and clears it.
func (s *Session) PopFlash() string {
	msg, _ := s.Values[keyFlash].(string)
	delete(s.Values, keyFlash)
	return msg
}

func asUint(v any) (uint, bool) {
	switch n := v.(type) {
	case uint:
		return n, true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint(n), true
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint(n), true
	}
	return 0, false
}
