package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/zeromonos/internal/events"
	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
	"github.com/Shivanand-hulikatti/zeromonos/internal/repository"
)

// DefaultDailyLimit is the number of bookings a municipality accepts per day.
const DefaultDailyLimit = 5

// BookingOptions tunes admission.
type BookingOptions struct {
	DailyLimit int
	// HistoryOnCreate records the initial RECEIVED status as a history entry.
	HistoryOnCreate bool
}

// BookingService admits bookings and is the only writer of booking history.
type BookingService struct {
	bookings BookingStore
	history  HistoryStore
	events   events.Publisher
	log      logrus.FieldLogger
	opts     BookingOptions

	now      func() time.Time
	newToken func() string
}

// NewBookingService constructs a BookingService with its dependencies.
func NewBookingService(
	bookings BookingStore,
	history HistoryStore,
	pub events.Publisher,
	log logrus.FieldLogger,
	opts BookingOptions,
) *BookingService {
	if opts.DailyLimit <= 0 {
		opts.DailyLimit = DefaultDailyLimit
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &BookingService{
		bookings: bookings,
		history:  history,
		events:   pub,
		log:      log,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: newToken,
	}
}

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
}

// parseDate accepts an ISO local date-time or RFC 3339 and keeps the wall
// clock as given, so the calendar day is the one the citizen asked for.
func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		hh, mm, ss := t.Clock()
		return time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// CreateBooking validates the request and admits it against the daily limit.
func (s *BookingService) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	req.Description = strings.TrimSpace(req.Description)
	req.Municipality = strings.TrimSpace(req.Municipality)
	req.Date = strings.TrimSpace(req.Date)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, fieldError("date", "datetime")
	}

	b := &model.Booking{
		ID:           uuid.NewString(),
		Token:        s.newToken(),
		Description:  req.Description,
		Municipality: req.Municipality,
		Date:         date,
		Status:       model.BookingReceived,
		CreatedAt:    s.now(),
	}
	log := s.log.WithFields(logrus.Fields{
		"municipality": b.Municipality,
		"date":         b.Date.Format(time.DateOnly),
	})

	if err := s.bookings.Create(ctx, b, s.opts.DailyLimit, s.opts.HistoryOnCreate); err != nil {
		if errors.Is(err, repository.ErrBookingLimitReached) {
			log.Warn("booking limit reached")
			return nil, ErrBookingLimitReached
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	log.WithField("token", b.Token).Info("booking created")
	publish(ctx, s.events, s.log, events.BookingCreated, events.NewBookingEvent(b, "", b.CreatedAt))
	return b, nil
}

// GetBookingByToken looks a booking up by its public token. An unknown token
// is reported through found, not as an error.
func (s *BookingService) GetBookingByToken(ctx context.Context, token string) (*model.Booking, bool, error) {
	b, err := s.bookings.GetByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get booking: %w", err)
	}
	return b, true, nil
}

// GetAllBookings returns every booking.
func (s *BookingService) GetAllBookings(ctx context.Context) ([]model.Booking, error) {
	return s.bookings.List(ctx)
}

// GetBookingsByMunicipality returns the bookings for one municipality.
func (s *BookingService) GetBookingsByMunicipality(ctx context.Context, municipality string) ([]model.Booking, error) {
	return s.bookings.ListByMunicipality(ctx, strings.TrimSpace(municipality))
}

// Save persists b as it is and appends one history entry with its status.
func (s *BookingService) Save(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	if err := s.bookings.Save(ctx, b, "", s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("save booking: %w", err)
	}
	return b, nil
}

// UpdateStatus moves the booking identified by token to status, provided
// the transition table allows it.
func (s *BookingService) UpdateStatus(ctx context.Context, token, status string) (*model.Booking, error) {
	b, err := s.mustGet(ctx, token)
	if err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, fieldError("status", "required")
	}
	to, err := model.ParseBookingStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.transition(ctx, b, to)
}

// Cancel cancels the booking identified by token. A booking that is already
// cancelled is returned unchanged together with ErrAlreadyCancelled.
func (s *BookingService) Cancel(ctx context.Context, token string) (*model.Booking, error) {
	b, err := s.mustGet(ctx, token)
	if err != nil {
		return nil, err
	}
	if b.Status == model.BookingCancelled {
		return b, ErrAlreadyCancelled
	}
	return s.transition(ctx, b, model.BookingCancelled)
}

// GetStatusHistory returns the booking's history in insertion order.
func (s *BookingService) GetStatusHistory(ctx context.Context, b *model.Booking) ([]model.HistoryEntry, error) {
	entries, err := s.history.ListByBooking(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return entries, nil
}

func (s *BookingService) mustGet(ctx context.Context, token string) (*model.Booking, error) {
	b, found, err := s.GetBookingByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (s *BookingService) transition(ctx context.Context, b *model.Booking, to model.BookingStatus) (*model.Booking, error) {
	from := b.Status
	if !from.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	next := *b
	next.Status = to
	now := s.now()
	if err := s.bookings.Save(ctx, &next, from, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleStatus):
			return nil, ErrConcurrentUpdate
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("save booking: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"token": next.Token,
		"from":  from,
		"to":    to,
	}).Info("booking status changed")
	publish(ctx, s.events, s.log, events.BookingStatusChanged, events.NewBookingEvent(&next, from, now))
	return &next, nil
}
