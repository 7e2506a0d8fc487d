package service

import (
	"context"
	"testing"

	apperr "pujabook/internal/errors"
	"pujabook/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "9876543210", models.RoleUser)
	puja := env.createPuja(t, "Rudrabhishek")
	plan := env.createPlan(t, 1000, 800)
	flowers := env.createChadawa(t, "Flowers", 300)
	lamp := env.createChadawa(t, "Lamp", 200)
	note := "Gotra: Kashyap"

	booking, err := env.services.Bookings.Create(ctx, actorOf(user), &models.CreateBookingRequest{
		PujaID: &puja.ID,
		PlanID: &plan.ID,
		ChadawaSelections: []models.ChadawaSelection{
			{ChadawaID: flowers.ID, Note: &note},
			{ChadawaID: lamp.ID},
			{ChadawaID: 9999},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, booking.UserID)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.False(t, booking.BookingDate.IsZero())
	require.Len(t, booking.Chadawas, 2)
	assert.Equal(t, flowers.ID, booking.Chadawas[0].ChadawaID)
	require.NotNil(t, booking.Chadawas[0].Note)
	assert.Equal(t, note, *booking.Chadawas[0].Note)
	require.NotNil(t, booking.Puja)
	assert.Equal(t, "Rudrabhishek", booking.Puja.Name)

	assert.Contains(t, env.publisher.subjects, models.EventBookingCreated)
	require.Len(t, env.notifier.bookings, 1)
	assert.Equal(t, "Basic", env.notifier.bookings[0].ServiceName)
	assert.True(t, env.notifier.bookings[0].Total.Equal(decimal.NewFromInt(1300)))
}

func TestCreateBookingUnknownReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "9876543210", models.RoleUser)
	missing := int64(404)

	_, err := env.services.Bookings.Create(ctx, actorOf(user), &models.CreateBookingRequest{PujaID: &missing})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.services.Bookings.Create(ctx, actorOf(user), &models.CreateBookingRequest{PlanID: &missing})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBookingAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "9000000001", models.RoleUser)
	other := env.createUser(t, "9000000002", models.RoleUser)
	admin := env.createUser(t, "9000000003", models.RoleAdmin)

	booking, err := env.services.Bookings.Create(ctx, actorOf(owner), &models.CreateBookingRequest{})
	require.NoError(t, err)

	_, err = env.services.Bookings.Get(ctx, actorOf(owner), booking.ID)
	assert.NoError(t, err)

	_, err = env.services.Bookings.Get(ctx, actorOf(other), booking.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = env.services.Bookings.Get(ctx, actorOf(admin), booking.ID)
	assert.NoError(t, err)

	_, err = env.services.Bookings.Get(ctx, actorOf(owner), booking.ID+100)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.services.Bookings.Cancel(ctx, actorOf(other), booking.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	mine, err := env.services.Bookings.ListForUser(ctx, actorOf(other), models.Page{Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestCancelBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "9876543210", models.RoleUser)

	booking, err := env.services.Bookings.Create(ctx, actorOf(user), &models.CreateBookingRequest{})
	require.NoError(t, err)

	cancelled, err := env.services.Bookings.Cancel(ctx, actorOf(user), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	assert.Contains(t, env.publisher.subjects, models.EventBookingCancelled)

	_, err = env.services.Bookings.Cancel(ctx, actorOf(user), booking.ID)
	require.ErrorIs(t, err, apperr.ErrPrecondition)
	assert.Equal(t, "Booking cannot be cancelled", apperr.Detail(err, ""))
}

func TestCancelConfirmedBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, booking := pricedBooking(t, env)

	order, err := env.services.Payments.CreateOrder(ctx, actorOf(user), booking.ID)
	require.NoError(t, err)
	_, err = env.services.Payments.Verify(ctx, actorOf(user), signedRequest(order.OrderID, "pay_1"))
	require.NoError(t, err)

	cancelled, err := env.services.Bookings.Cancel(ctx, actorOf(user), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	stored, err := env.repos.Bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, stored.Status)
}

func TestAdminStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "9876543210", models.RoleUser)
	admin := env.createUser(t, "9000000003", models.RoleAdmin)

	booking, err := env.services.Bookings.Create(ctx, actorOf(user), &models.CreateBookingRequest{})
	require.NoError(t, err)

	status := func(s models.BookingStatus) *models.BookingPatch {
		return &models.BookingPatch{Status: &s}
	}

	_, err = env.services.Bookings.Update(ctx, actorOf(admin), booking.ID, status(models.BookingStatusCompleted))
	assert.ErrorIs(t, err, apperr.ErrPrecondition)

	updated, err := env.services.Bookings.Update(ctx, actorOf(admin), booking.ID, status(models.BookingStatusConfirmed))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, updated.Status)

	link := "https://stream.example.com/live/1"
	updated, err = env.services.Bookings.Update(ctx, actorOf(admin), booking.ID, &models.BookingPatch{PujaLink: &link})
	require.NoError(t, err)
	require.NotNil(t, updated.PujaLink)
	assert.Equal(t, link, *updated.PujaLink)
	assert.Equal(t, models.BookingStatusConfirmed, updated.Status)

	updated, err = env.services.Bookings.Update(ctx, actorOf(admin), booking.ID, status(models.BookingStatusCompleted))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, updated.Status)

	_, err = env.services.Bookings.Cancel(ctx, actorOf(user), booking.ID)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)

	_, err = env.services.Bookings.Update(ctx, actorOf(admin), booking.ID, status("archived"))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = env.services.Bookings.Update(ctx, actorOf(admin), 9999, status(models.BookingStatusConfirmed))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBookingChadawaAttachments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "9876543210", models.RoleUser)
	flowers := env.createChadawa(t, "Flowers", 300)

	booking, err := env.services.Bookings.Create(ctx, actorOf(user), &models.CreateBookingRequest{})
	require.NoError(t, err)

	booking, err = env.services.Bookings.AttachChadawa(ctx, actorOf(user), booking.ID, &models.ChadawaSelection{ChadawaID: flowers.ID})
	require.NoError(t, err)
	require.Len(t, booking.Chadawas, 1)
	assert.Nil(t, booking.Chadawas[0].Note)

	note := "for my parents"
	booking, err = env.services.Bookings.AttachChadawa(ctx, actorOf(user), booking.ID, &models.ChadawaSelection{ChadawaID: flowers.ID, Note: &note})
	require.NoError(t, err)
	require.Len(t, booking.Chadawas, 1)
	require.NotNil(t, booking.Chadawas[0].Note)
	assert.Equal(t, note, *booking.Chadawas[0].Note)

	_, err = env.services.Bookings.AttachChadawa(ctx, actorOf(user), booking.ID, &models.ChadawaSelection{ChadawaID: 9999})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	booking, err = env.services.Bookings.DetachChadawa(ctx, actorOf(user), booking.ID, flowers.ID)
	require.NoError(t, err)
	assert.Empty(t, booking.Chadawas)

	_, err = env.services.Bookings.DetachChadawa(ctx, actorOf(user), booking.ID, flowers.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.services.Bookings.Cancel(ctx, actorOf(user), booking.ID)
	require.NoError(t, err)
	_, err = env.services.Bookings.AttachChadawa(ctx, actorOf(user), booking.ID, &models.ChadawaSelection{ChadawaID: flowers.ID})
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
}

func TestListAllBookingsByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "9876543210", models.RoleUser)

	first, err := env.services.Bookings.Create(ctx, actorOf(user), &models.CreateBookingRequest{})
	require.NoError(t, err)
	_, err = env.services.Bookings.Create(ctx, actorOf(user), &models.CreateBookingRequest{})
	require.NoError(t, err)
	_, err = env.services.Bookings.Cancel(ctx, actorOf(user), first.ID)
	require.NoError(t, err)

	all, err := env.services.Bookings.ListAll(ctx, nil, models.Page{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cancelled := models.BookingStatusCancelled
	only, err := env.services.Bookings.ListAll(ctx, &cancelled, models.Page{Limit: 100})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, first.ID, only[0].ID)

	page, err := env.services.Bookings.ListForUser(ctx, actorOf(user), models.Page{Skip: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
