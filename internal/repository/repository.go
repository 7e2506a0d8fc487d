package repository

import (
	"errors"

	"pujabook/internal/database"

	"gorm.io/gorm"
)

type Repositories struct {
	Users    *UserRepository
	OTPs     *OTPRepository
	Pujas    *PujaRepository
	Plans    *PlanRepository
	Chadawas *ChadawaRepository
	Bookings *BookingRepository
	Payments *PaymentRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		OTPs:     NewOTPRepository(db),
		Pujas:    NewPujaRepository(db),
		Plans:    NewPlanRepository(db),
		Chadawas: NewChadawaRepository(db),
		Bookings: NewBookingRepository(db),
		Payments: NewPaymentRepository(db),
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func paginate(skip, limit int) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if skip > 0 {
			q = q.Offset(skip)
		}
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q
	}
}
