package availability

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type claimKey struct {
	eventID    uuid.UUID
	tableID    uuid.UUID
	seatNumber int
}

// MemoryStore is a mutex-guarded Store with the same semantics as the
// Postgres store. It backs unit tests and local development; the single lock
// plays the role of the claim-row transaction boundary.
type MemoryStore struct {
	mu       sync.Mutex
	holds    map[uuid.UUID]*SeatHold
	bookings map[uuid.UUID]*Booking
	claims   map[claimKey]*SeatClaim
}

// NewMemoryStore creates an empty in-memory availability store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		holds:    make(map[uuid.UUID]*SeatHold),
		bookings: make(map[uuid.UUID]*Booking),
		claims:   make(map[claimKey]*SeatClaim),
	}
}

func (s *MemoryStore) CreateHold(ctx context.Context, hold *SeatHold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hold.ID == uuid.Nil {
		hold.ID = uuid.New()
	}
	if hold.Status == "" {
		hold.Status = HoldActive
	}
	seats := make([]int, 0, len(hold.Seats))
	for i := range hold.Seats {
		if hold.Seats[i].ID == uuid.Nil {
			hold.Seats[i].ID = uuid.New()
		}
		hold.Seats[i].HoldID = hold.ID
		seats = append(seats, hold.Seats[i].SeatNumber)
	}
	sort.Ints(seats)

	if conflicting := s.blockedSeats(hold.EventID, hold.TableID, seats, hold.CreatedAt); len(conflicting) > 0 {
		return NewConflictError(conflicting)
	}

	cp := cloneHold(hold)
	s.holds[cp.ID] = cp
	for _, n := range seats {
		id := cp.ID
		s.claims[claimKey{cp.EventID, cp.TableID, n}] = &SeatClaim{
			ID:         uuid.New(),
			EventID:    cp.EventID,
			TableID:    cp.TableID,
			SeatNumber: n,
			HoldID:     &id,
			CreatedAt:  cp.CreatedAt,
		}
	}
	return nil
}

// blockedSeats reaps stale claims and returns the seats still genuinely
// taken. Caller holds the lock.
func (s *MemoryStore) blockedSeats(eventID, tableID uuid.UUID, seats []int, now time.Time) []int {
	var conflicting []int
	for _, n := range seats {
		key := claimKey{eventID, tableID, n}
		c, ok := s.claims[key]
		if !ok {
			continue
		}
		if s.claimBlocksLocked(c, now) {
			conflicting = append(conflicting, n)
		} else {
			delete(s.claims, key)
		}
	}
	return conflicting
}

func (s *MemoryStore) claimBlocksLocked(c *SeatClaim, now time.Time) bool {
	if c.BookingID != nil {
		if b, ok := s.bookings[*c.BookingID]; ok {
			return b.BlocksSeats()
		}
		return true
	}
	if c.HoldID != nil {
		if h, ok := s.holds[*c.HoldID]; ok {
			return h.EffectivelyActive(now)
		}
		return true
	}
	return false
}

func (s *MemoryStore) GetHold(ctx context.Context, id uuid.UUID) (*SeatHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[id]
	if !ok {
		return nil, ErrHoldNotFound
	}
	return cloneHold(h), nil
}

func (s *MemoryStore) FindActiveHold(ctx context.Context, eventID, tableID uuid.UUID, sessionID string, now time.Time) (*SeatHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newest *SeatHold
	for _, h := range s.holds {
		if h.EventID != eventID || h.TableID != tableID || h.SessionID != sessionID {
			continue
		}
		if !h.EffectivelyActive(now) {
			continue
		}
		if newest == nil || h.CreatedAt.After(newest.CreatedAt) {
			newest = h
		}
	}
	if newest == nil {
		return nil, nil
	}
	return cloneHold(newest), nil
}

func (s *MemoryStore) ReleaseHold(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[id]
	if !ok || h.Status != HoldActive {
		return false, nil
	}
	h.Status = HoldReleased
	released := at
	h.ReleasedAt = &released
	s.dropClaimsLocked(func(c *SeatClaim) bool {
		return c.HoldID != nil && *c.HoldID == id
	})
	return true, nil
}

func (s *MemoryStore) ConsumeHold(ctx context.Context, in ConsumeInput) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.holds[in.HoldID]
	if !ok {
		return nil, ErrHoldNotFound
	}
	switch h.Status {
	case HoldConsumed:
		for _, b := range s.bookings {
			if b.HoldID != nil && *b.HoldID == h.ID {
				return cloneBooking(b), ErrAlreadyConsumed
			}
		}
		return nil, ErrAlreadyConsumed
	case HoldReleased:
		return nil, ErrHoldExpired
	}
	if !h.ExpiresAt.After(in.Now) {
		return nil, ErrHoldExpired
	}

	h.Status = HoldConsumed
	consumed := in.Now
	h.ConsumedAt = &consumed

	paymentRef := in.PaymentRef
	holdID := h.ID
	b := &Booking{
		ID:             uuid.New(),
		EventID:        h.EventID,
		TableID:        h.TableID,
		HoldID:         &holdID,
		Status:         BookingConfirmed,
		PaymentRef:     &paymentRef,
		BookingRef:     in.BookingRef,
		Payload:        in.Payload,
		PayloadVersion: in.PayloadVersion,
		CreatedAt:      in.Now,
		UpdatedAt:      in.Now,
	}
	for _, hs := range h.Seats {
		b.Seats = append(b.Seats, BookingSeat{
			ID:         uuid.New(),
			BookingID:  b.ID,
			SeatNumber: hs.SeatNumber,
		})
	}
	s.bookings[b.ID] = b

	for _, c := range s.claims {
		if c.HoldID != nil && *c.HoldID == h.ID {
			c.HoldID = nil
			id := b.ID
			c.BookingID = &id
		}
	}
	return cloneBooking(b), nil
}

func (s *MemoryStore) CreateBooking(ctx context.Context, booking *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	seats := make([]int, 0, len(booking.Seats))
	for i := range booking.Seats {
		if booking.Seats[i].ID == uuid.Nil {
			booking.Seats[i].ID = uuid.New()
		}
		booking.Seats[i].BookingID = booking.ID
		seats = append(seats, booking.Seats[i].SeatNumber)
	}
	sort.Ints(seats)

	if conflicting := s.blockedSeats(booking.EventID, booking.TableID, seats, booking.CreatedAt); len(conflicting) > 0 {
		return NewConflictError(conflicting)
	}

	cp := cloneBooking(booking)
	s.bookings[cp.ID] = cp
	for _, n := range seats {
		id := cp.ID
		s.claims[claimKey{cp.EventID, cp.TableID, n}] = &SeatClaim{
			ID:         uuid.New(),
			EventID:    cp.EventID,
			TableID:    cp.TableID,
			SeatNumber: n,
			BookingID:  &id,
			CreatedAt:  cp.CreatedAt,
		}
	}
	return nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (s *MemoryStore) CancelBooking(ctx context.Context, id uuid.UUID, refund bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	if b.IsCancelled() {
		return ErrBookingCancelled
	}
	cancelled := at
	b.UpdatedAt = at
	b.CancelledAt = &cancelled
	if refund {
		b.Status = BookingRefunded
		b.RefundedAt = &cancelled
	} else {
		b.Status = BookingCancelled
	}
	s.dropClaimsLocked(func(c *SeatClaim) bool {
		return c.BookingID != nil && *c.BookingID == id
	})
	return nil
}

func (s *MemoryStore) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]SeatHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []SeatHold
	for _, h := range s.holds {
		if h.Status == HoldActive && !h.ExpiresAt.After(now) {
			expired = append(expired, *cloneHold(h))
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (s *MemoryStore) ClaimsForEvent(ctx context.Context, eventID uuid.UUID) ([]SeatClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []SeatClaim
	for _, c := range s.claims {
		if c.EventID != eventID {
			continue
		}
		cp := *c
		if c.HoldID != nil {
			if h, ok := s.holds[*c.HoldID]; ok {
				cp.Hold = cloneHold(h)
			}
		}
		if c.BookingID != nil {
			if b, ok := s.bookings[*c.BookingID]; ok {
				cp.Booking = cloneBooking(b)
			}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TableID != out[j].TableID {
			return out[i].TableID.String() < out[j].TableID.String()
		}
		return out[i].SeatNumber < out[j].SeatNumber
	})
	return out, nil
}

func (s *MemoryStore) dropClaimsLocked(match func(*SeatClaim) bool) {
	for key, c := range s.claims {
		if match(c) {
			delete(s.claims, key)
		}
	}
}

func cloneHold(h *SeatHold) *SeatHold {
	cp := *h
	cp.Seats = make([]HoldSeat, len(h.Seats))
	copy(cp.Seats, h.Seats)
	return &cp
}

func cloneBooking(b *Booking) *Booking {
	cp := *b
	cp.Seats = make([]BookingSeat, len(b.Seats))
	copy(cp.Seats, b.Seats)
	return &cp
}
