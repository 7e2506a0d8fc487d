package service

import (
	"context"
	"fmt"
	"time"

	apperr "pujabook/internal/errors"
	"pujabook/internal/logger"
	"pujabook/internal/messaging"
	"pujabook/internal/metrics"
	"pujabook/internal/models"
	"pujabook/internal/notification"
	"pujabook/internal/repository"
)

const (
	msgBookingNotFound     = "Booking not found"
	msgBookingForbidden    = "Not authorized to access this booking"
	msgBookingNotCancelled = "Booking cannot be cancelled"
)

type BookingService struct {
	bookingRepo *repository.BookingRepository
	pujaRepo    *repository.PujaRepository
	planRepo    *repository.PlanRepository
	chadawaRepo *repository.ChadawaRepository
	pricing     *PricingCalculator
	notifier    Notifier
	publisher   messaging.Publisher
}

func NewBookingService(bookingRepo *repository.BookingRepository, pujaRepo *repository.PujaRepository, planRepo *repository.PlanRepository, chadawaRepo *repository.ChadawaRepository, pricing *PricingCalculator, notifier Notifier, publisher messaging.Publisher) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		pujaRepo:    pujaRepo,
		planRepo:    planRepo,
		chadawaRepo: chadawaRepo,
		pricing:     pricing,
		notifier:    notifier,
		publisher:   publisher,
	}
}

// Create сохраняет бронирование от имени вызывающего пользователя.
// Несуществующие чадавы в выборе пропускаются так же, как при расчете цены.
func (s *BookingService) Create(ctx context.Context, actor Actor, req *models.CreateBookingRequest) (*models.Booking, error) {
	if req.PujaID != nil {
		ok, err := s.pujaRepo.Exists(ctx, *req.PujaID)
		if err != nil {
			return nil, fmt.Errorf("failed to get puja: %w", err)
		}
		if !ok {
			return nil, apperr.New(apperr.ErrNotFound, "Puja not found")
		}
	}
	if req.PlanID != nil {
		plan, err := s.planRepo.GetByID(ctx, *req.PlanID)
		if err != nil {
			return nil, fmt.Errorf("failed to get plan: %w", err)
		}
		if plan == nil {
			return nil, apperr.New(apperr.ErrNotFound, "Plan not found")
		}
	}

	ids := make([]int64, 0, len(req.ChadawaSelections))
	for _, sel := range req.ChadawaSelections {
		ids = append(ids, sel.ChadawaID)
	}
	known, err := s.chadawaRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get chadawas: %w", err)
	}

	attachments := make([]models.BookingChadawa, 0, len(req.ChadawaSelections))
	for _, sel := range req.ChadawaSelections {
		if _, ok := known[sel.ChadawaID]; !ok {
			logger.WithContext(ctx).Warn("Skipping unknown chadawa in booking", "chadawa_id", sel.ChadawaID)
			continue
		}
		attachments = append(attachments, models.BookingChadawa{ChadawaID: sel.ChadawaID, Note: sel.Note})
	}

	bookingDate := time.Now().UTC()
	if req.BookingDate != nil {
		bookingDate = req.BookingDate.UTC()
	}

	booking := &models.Booking{
		UserID:      actor.UserID,
		PujaID:      req.PujaID,
		PlanID:      req.PlanID,
		BookingDate: bookingDate,
		Status:      models.BookingStatusPending,
	}
	if err := s.bookingRepo.Create(ctx, booking, attachments); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	created, err := s.bookingRepo.GetByID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	metrics.BookingsTotal.WithLabelValues("created").Inc()
	logger.WithContext(ctx).Info("Booking created", "booking_id", created.ID, "chadawas", len(created.Chadawas))

	publish(ctx, s.publisher, models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID: created.ID,
		UserID:    created.UserID,
		PujaID:    created.PujaID,
		PlanID:    created.PlanID,
		Chadawas:  len(created.Chadawas),
		Timestamp: time.Now(),
	})

	s.notifyCreated(ctx, created)
	return created, nil
}

func (s *BookingService) notifyCreated(ctx context.Context, booking *models.Booking) {
	if s.notifier == nil || booking.User == nil {
		return
	}

	total, err := s.pricing.ForBooking(ctx, booking)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to price booking for notification", "error", err, "booking_id", booking.ID)
		return
	}

	s.notifier.BookingConfirmed(ctx, notification.BookingNotice{
		BookingID:   booking.ID,
		Name:        booking.User.Name,
		Email:       booking.User.Email,
		Mobile:      booking.User.Mobile,
		ServiceName: serviceName(booking),
		BookingDate: booking.BookingDate,
		Total:       total,
	})
}

// serviceName is the plan name when a plan is booked, otherwise the puja name
func serviceName(booking *models.Booking) string {
	name := "Custom"
	if booking.Puja != nil {
		name = booking.Puja.Name
	}
	if booking.Plan != nil {
		name = booking.Plan.Name
	}
	return name
}

// Get returns the booking with every relation loaded, to its owner or staff
func (s *BookingService) Get(ctx context.Context, actor Actor, id int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.New(apperr.ErrNotFound, msgBookingNotFound)
	}
	if !actor.CanAccess(booking.UserID) {
		return nil, apperr.New(apperr.ErrForbidden, msgBookingForbidden)
	}
	return booking, nil
}

func (s *BookingService) ListForUser(ctx context.Context, actor Actor, page models.Page) ([]models.Booking, error) {
	bookings, err := s.bookingRepo.ListByUser(ctx, actor.UserID, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	return bookings, nil
}

func (s *BookingService) ListAll(ctx context.Context, status *models.BookingStatus, page models.Page) ([]models.Booking, error) {
	if status != nil && !status.Valid() {
		return nil, apperr.New(apperr.ErrInvalidInput, "Invalid booking status")
	}
	bookings, err := s.bookingRepo.List(ctx, status, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	return bookings, nil
}

// Update применяет частичное изменение администратора.
// Смена статуса проходит по тем же переходам, что и остальной жизненный цикл.
func (s *BookingService) Update(ctx context.Context, actor Actor, id int64, patch *models.BookingPatch) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.New(apperr.ErrNotFound, msgBookingNotFound)
	}

	if patch.Status != nil && *patch.Status != booking.Status {
		next := *patch.Status
		if !next.Valid() {
			return nil, apperr.New(apperr.ErrInvalidInput, "Invalid booking status")
		}
		if !booking.Status.CanTransitionTo(next) {
			return nil, apperr.New(apperr.ErrPrecondition,
				fmt.Sprintf("Cannot change booking status from %s to %s", booking.Status, next))
		}
		ok, err := s.bookingRepo.TransitionStatus(ctx, id, []models.BookingStatus{booking.Status}, next)
		if err != nil {
			return nil, fmt.Errorf("failed to update booking status: %w", err)
		}
		if !ok {
			return nil, apperr.New(apperr.ErrPrecondition, "Booking status changed, reload and try again")
		}
		booking.Status = next
	}

	if patch.PujaLink != nil {
		booking.PujaLink = patch.PujaLink
		if err := s.bookingRepo.UpdateFields(ctx, booking); err != nil {
			return nil, fmt.Errorf("failed to update booking: %w", err)
		}
	}

	updated, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	metrics.BookingsTotal.WithLabelValues("updated").Inc()
	publish(ctx, s.publisher, models.EventBookingUpdated, models.BookingUpdatedEvent{
		BookingID: id,
		Status:    updated.Status,
		UpdatedBy: actor.UserID,
		Timestamp: time.Now(),
	})

	return updated, nil
}

// Cancel moves a pending or confirmed booking to cancelled
func (s *BookingService) Cancel(ctx context.Context, actor Actor, id int64) (*models.Booking, error) {
	booking, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.Cancellable() {
		return nil, apperr.New(apperr.ErrPrecondition, msgBookingNotCancelled)
	}

	ok, err := s.bookingRepo.TransitionStatus(ctx, id,
		[]models.BookingStatus{models.BookingStatusPending, models.BookingStatusConfirmed},
		models.BookingStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if !ok {
		return nil, apperr.New(apperr.ErrPrecondition, msgBookingNotCancelled)
	}

	metrics.BookingsTotal.WithLabelValues("cancelled").Inc()
	logger.WithContext(ctx).Info("Booking cancelled", "booking_id", id, "previous_status", booking.Status)

	publish(ctx, s.publisher, models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID:      id,
		PreviousStatus: booking.Status,
		CancelledBy:    actor.UserID,
		Timestamp:      time.Now(),
	})

	booking.Status = models.BookingStatusCancelled
	return booking, nil
}

// AttachChadawa adds a chadawa to a pending booking, or updates the note of an existing attachment
func (s *BookingService) AttachChadawa(ctx context.Context, actor Actor, bookingID int64, sel *models.ChadawaSelection) (*models.Booking, error) {
	booking, err := s.editableBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	chadawa, err := s.chadawaRepo.GetByID(ctx, sel.ChadawaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chadawa: %w", err)
	}
	if chadawa == nil {
		return nil, apperr.New(apperr.ErrNotFound, "Chadawa not found")
	}

	if err := s.bookingRepo.AttachChadawa(ctx, &models.BookingChadawa{
		BookingID: booking.ID,
		ChadawaID: chadawa.ID,
		Note:      sel.Note,
	}); err != nil {
		return nil, fmt.Errorf("failed to attach chadawa: %w", err)
	}

	return s.reload(ctx, bookingID)
}

func (s *BookingService) DetachChadawa(ctx context.Context, actor Actor, bookingID, chadawaID int64) (*models.Booking, error) {
	if _, err := s.editableBooking(ctx, actor, bookingID); err != nil {
		return nil, err
	}

	removed, err := s.bookingRepo.DetachChadawa(ctx, bookingID, chadawaID)
	if err != nil {
		return nil, fmt.Errorf("failed to detach chadawa: %w", err)
	}
	if !removed {
		return nil, apperr.New(apperr.ErrNotFound, "Chadawa association not found")
	}

	return s.reload(ctx, bookingID)
}

// editableBooking returns a booking whose add-ons may still change
func (s *BookingService) editableBooking(ctx context.Context, actor Actor, id int64) (*models.Booking, error) {
	booking, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, apperr.New(apperr.ErrPrecondition, "Chadawas can only be changed on pending bookings")
	}
	// сумма открытого заказа уже передана в шлюз
	if booking.Payment != nil && booking.Payment.Status == models.PaymentStatusCreated {
		return nil, apperr.New(apperr.ErrPrecondition, "Chadawas cannot be changed while a payment order is open")
	}
	return booking, nil
}

func (s *BookingService) reload(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.New(apperr.ErrNotFound, msgBookingNotFound)
	}
	return booking, nil
}
