package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormStore is the Postgres-backed Store. The claim transaction locks
// existing seat_claims rows FOR UPDATE in ascending seat order, so two
// overlapping claims always acquire locks in the same order and cannot
// deadlock. Seats with no claim row yet are guarded by the unique index on
// (event_id, table_id, seat_number): concurrent inserters race to commit and
// the loser gets a duplicate-key error, surfaced as Conflict.
type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Postgres-backed availability store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) CreateHold(ctx context.Context, hold *SeatHold) error {
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

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conflicting, err := s.clearSeats(tx, hold.EventID, hold.TableID, seats, hold.CreatedAt)
		if err != nil {
			return err
		}
		if len(conflicting) > 0 {
			return NewConflictError(conflicting)
		}

		if err := tx.Create(hold).Error; err != nil {
			return storeErr("create hold", err)
		}

		claims := make([]SeatClaim, 0, len(seats))
		for _, n := range seats {
			claims = append(claims, SeatClaim{
				ID:         uuid.New(),
				EventID:    hold.EventID,
				TableID:    hold.TableID,
				SeatNumber: n,
				HoldID:     &hold.ID,
				CreatedAt:  hold.CreatedAt,
			})
		}
		if err := tx.Create(&claims).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return NewConflictError(seats)
			}
			return storeErr("create claims", err)
		}
		return nil
	})
	return err
}

// clearSeats locks the claim rows for the requested seats, reaps stale rows
// whose hold expired or whose booking was cancelled, and returns the seats
// that are genuinely taken at the given instant.
func (s *gormStore) clearSeats(tx *gorm.DB, eventID, tableID uuid.UUID, seats []int, now time.Time) ([]int, error) {
	var claims []SeatClaim
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Hold").
		Preload("Booking").
		Where("event_id = ? AND table_id = ? AND seat_number IN ?", eventID, tableID, seats).
		Order("seat_number ASC").
		Find(&claims).Error
	if err != nil {
		return nil, storeErr("lock claims", err)
	}

	var conflicting []int
	var staleIDs []uuid.UUID
	for _, c := range claims {
		if claimBlocks(&c, now) {
			conflicting = append(conflicting, c.SeatNumber)
		} else {
			staleIDs = append(staleIDs, c.ID)
		}
	}
	if len(conflicting) > 0 {
		return conflicting, nil
	}
	if len(staleIDs) > 0 {
		if err := tx.Delete(&SeatClaim{}, "id IN ?", staleIDs).Error; err != nil {
			return nil, storeErr("reap stale claims", err)
		}
	}
	return nil, nil
}

// claimBlocks reports whether a locked claim row still excludes other
// claimants at the given instant.
func claimBlocks(c *SeatClaim, now time.Time) bool {
	if c.Booking != nil {
		return c.Booking.BlocksSeats()
	}
	if c.Hold != nil {
		return c.Hold.EffectivelyActive(now)
	}
	// Dangling claim row with neither side loaded: treat as blocking and let
	// the owning transaction clean it up.
	return c.HoldID != nil || c.BookingID != nil
}

func (s *gormStore) GetHold(ctx context.Context, id uuid.UUID) (*SeatHold, error) {
	var hold SeatHold
	err := s.db.WithContext(ctx).Preload("Seats").First(&hold, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, storeErr("get hold", err)
	}
	return &hold, nil
}

func (s *gormStore) FindActiveHold(ctx context.Context, eventID, tableID uuid.UUID, sessionID string, now time.Time) (*SeatHold, error) {
	var hold SeatHold
	err := s.db.WithContext(ctx).
		Preload("Seats").
		Where("event_id = ? AND table_id = ? AND session_id = ? AND status = ? AND expires_at > ?",
			eventID, tableID, sessionID, HoldActive, now).
		Order("created_at DESC").
		First(&hold).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr("find active hold", err)
	}
	return &hold, nil
}

func (s *gormStore) ReleaseHold(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	released := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&SeatHold{}).
			Where("id = ? AND status = ?", id, HoldActive).
			Updates(map[string]interface{}{
				"status":      HoldReleased,
				"released_at": at,
			})
		if res.Error != nil {
			return storeErr("release hold", res.Error)
		}
		if res.RowsAffected == 0 {
			// Missing or already terminal: releasing is idempotent.
			return nil
		}
		released = true
		if err := tx.Delete(&SeatClaim{}, "hold_id = ?", id).Error; err != nil {
			return storeErr("free claims", err)
		}
		return nil
	})
	return released, err
}

func (s *gormStore) ConsumeHold(ctx context.Context, in ConsumeInput) (*Booking, error) {
	var booking *Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var hold SeatHold
		// The row lock on the hold is the arbiter of the consume-vs-release
		// race: whichever transaction commits the status transition first
		// wins, the other sees the terminal state.
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&hold, "id = ?", in.HoldID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHoldNotFound
			}
			return storeErr("lock hold", err)
		}

		switch hold.Status {
		case HoldConsumed:
			existing, err := s.findBookingByHold(tx, hold.ID)
			if err == nil {
				booking = existing
			}
			return ErrAlreadyConsumed
		case HoldReleased:
			return ErrHoldExpired
		}
		if !hold.ExpiresAt.After(in.Now) {
			return ErrHoldExpired
		}

		if err := tx.Model(&SeatHold{}).
			Where("id = ? AND status = ?", hold.ID, HoldActive).
			Updates(map[string]interface{}{
				"status":      HoldConsumed,
				"consumed_at": in.Now,
			}).Error; err != nil {
			return storeErr("consume hold", err)
		}

		var holdSeats []HoldSeat
		if err := tx.Find(&holdSeats, "hold_id = ?", hold.ID).Error; err != nil {
			return storeErr("load hold seats", err)
		}

		paymentRef := in.PaymentRef
		b := &Booking{
			ID:             uuid.New(),
			EventID:        hold.EventID,
			TableID:        hold.TableID,
			HoldID:         &hold.ID,
			Status:         BookingConfirmed,
			PaymentRef:     &paymentRef,
			BookingRef:     in.BookingRef,
			Payload:        in.Payload,
			PayloadVersion: in.PayloadVersion,
			CreatedAt:      in.Now,
			UpdatedAt:      in.Now,
		}
		for _, hs := range holdSeats {
			b.Seats = append(b.Seats, BookingSeat{
				ID:         uuid.New(),
				BookingID:  b.ID,
				SeatNumber: hs.SeatNumber,
			})
		}
		if err := tx.Create(b).Error; err != nil {
			return storeErr("create booking", err)
		}

		// Re-point the claim rows from the hold to the booking so the seats
		// stay continuously covered.
		if err := tx.Model(&SeatClaim{}).
			Where("hold_id = ?", hold.ID).
			Updates(map[string]interface{}{
				"hold_id":    nil,
				"booking_id": b.ID,
			}).Error; err != nil {
			return storeErr("repoint claims", err)
		}

		booking = b
		return nil
	})
	if err != nil {
		return booking, err
	}
	return booking, nil
}

func (s *gormStore) findBookingByHold(tx *gorm.DB, holdID uuid.UUID) (*Booking, error) {
	var b Booking
	err := tx.Preload("Seats").First(&b, "hold_id = ?", holdID).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *gormStore) CreateBooking(ctx context.Context, booking *Booking) error {
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

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conflicting, err := s.clearSeats(tx, booking.EventID, booking.TableID, seats, booking.CreatedAt)
		if err != nil {
			return err
		}
		if len(conflicting) > 0 {
			return NewConflictError(conflicting)
		}

		if err := tx.Create(booking).Error; err != nil {
			return storeErr("create booking", err)
		}

		claims := make([]SeatClaim, 0, len(seats))
		for _, n := range seats {
			claims = append(claims, SeatClaim{
				ID:         uuid.New(),
				EventID:    booking.EventID,
				TableID:    booking.TableID,
				SeatNumber: n,
				BookingID:  &booking.ID,
				CreatedAt:  booking.CreatedAt,
			})
		}
		if err := tx.Create(&claims).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return NewConflictError(seats)
			}
			return storeErr("create claims", err)
		}
		return nil
	})
}

func (s *gormStore) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := s.db.WithContext(ctx).Preload("Seats").First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, storeErr("get booking", err)
	}
	return &booking, nil
}

func (s *gormStore) CancelBooking(ctx context.Context, id uuid.UUID, refund bool, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Booking
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&booking, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return storeErr("lock booking", err)
		}
		if booking.IsCancelled() {
			return ErrBookingCancelled
		}

		updates := map[string]interface{}{
			"status":       BookingCancelled,
			"cancelled_at": at,
			"updated_at":   at,
		}
		if refund {
			updates["status"] = BookingRefunded
			updates["refunded_at"] = at
		}
		if err := tx.Model(&Booking{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return storeErr("cancel booking", err)
		}
		if err := tx.Delete(&SeatClaim{}, "booking_id = ?", id).Error; err != nil {
			return storeErr("free claims", err)
		}
		return nil
	})
}

func (s *gormStore) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]SeatHold, error) {
	var holds []SeatHold
	err := s.db.WithContext(ctx).
		Preload("Seats").
		Where("status = ? AND expires_at < ?", HoldActive, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&holds).Error
	if err != nil {
		return nil, storeErr("list expired holds", err)
	}
	return holds, nil
}

func (s *gormStore) ClaimsForEvent(ctx context.Context, eventID uuid.UUID) ([]SeatClaim, error) {
	var claims []SeatClaim
	err := s.db.WithContext(ctx).
		Preload("Hold").
		Preload("Booking").
		Where("event_id = ?", eventID).
		Order("table_id, seat_number ASC").
		Find(&claims).Error
	if err != nil {
		return nil, storeErr("claims for event", err)
	}
	return claims, nil
}
