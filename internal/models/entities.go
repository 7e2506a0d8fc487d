package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a user in the system
type User struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"size:255;not null"`
	Email         *string   `json:"email" gorm:"size:255;uniqueIndex"`
	Mobile        string    `json:"mobile" gorm:"size:20;not null;uniqueIndex"`
	Role          Role      `json:"role" gorm:"type:varchar(20);not null;default:user"`
	IsActive      bool      `json:"is_active" gorm:"not null;default:false"`
	EmailVerified bool      `json:"email_verified" gorm:"not null;default:false"`
	PasswordHash  *string   `json:"-" gorm:"column:password;size:255"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OTPLogin represents an outstanding one-time password challenge
type OTPLogin struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	UserID     int64     `json:"user_id" gorm:"not null;index"`
	OTPCode    string    `json:"-" gorm:"column:otp_code;size:6;not null"`
	IsVerified bool      `json:"is_verified" gorm:"not null;default:false"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Puja represents a bookable ritual offering
type Puja struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description *string   `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Images   []PujaImage `json:"images,omitempty" gorm:"foreignKey:PujaID;constraint:OnDelete:CASCADE"`
	Plans    []Plan      `json:"plans,omitempty" gorm:"many2many:puja_plans;"`
	Chadawas []Chadawa   `json:"chadawas,omitempty" gorm:"many2many:puja_chadawas;"`
}

// PujaImage is an image attached to a puja
type PujaImage struct {
	ID       int64  `json:"id" gorm:"primaryKey"`
	PujaID   int64  `json:"puja_id" gorm:"not null;index"`
	ImageURL string `json:"image_url" gorm:"size:1024;not null"`
}

// Plan represents a priced package
type Plan struct {
	ID              int64               `json:"id" gorm:"primaryKey"`
	Name            string              `json:"name" gorm:"size:255;not null"`
	Description     *string             `json:"description" gorm:"type:text"`
	ImageURL        *string             `json:"image_url" gorm:"size:1024"`
	ActualPrice     decimal.Decimal     `json:"actual_price" gorm:"type:numeric(10,2);not null"`
	DiscountedPrice decimal.NullDecimal `json:"discounted_price" gorm:"type:numeric(10,2)"`
	CreatedAt       time.Time           `json:"created_at"`
}

// EffectivePrice returns the discounted price when set, otherwise the actual price
func (p *Plan) EffectivePrice() decimal.Decimal {
	if p.DiscountedPrice.Valid {
		return p.DiscountedPrice.Decimal
	}
	return p.ActualPrice
}

// Chadawa represents an optional add-on offering
type Chadawa struct {
	ID           int64           `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name" gorm:"size:255;not null"`
	Description  *string         `json:"description" gorm:"type:text"`
	ImageURL     *string         `json:"image_url" gorm:"size:1024"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	RequiresNote bool            `json:"requires_note" gorm:"not null;default:false"`
}

// PujaPlan links a plan to a puja
type PujaPlan struct {
	PujaID int64 `json:"puja_id" gorm:"primaryKey"`
	PlanID int64 `json:"plan_id" gorm:"primaryKey"`
}

// PujaChadawa links a chadawa to a puja
type PujaChadawa struct {
	PujaID    int64 `json:"puja_id" gorm:"primaryKey"`
	ChadawaID int64 `json:"chadawa_id" gorm:"primaryKey"`
}

// Booking represents a user's reservation of a puja
type Booking struct {
	ID          int64         `json:"id" gorm:"primaryKey"`
	UserID      int64         `json:"user_id" gorm:"not null;index"`
	PujaID      *int64        `json:"puja_id" gorm:"index"`
	PlanID      *int64        `json:"plan_id" gorm:"index"`
	BookingDate time.Time     `json:"booking_date" gorm:"not null"`
	Status      BookingStatus `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	PujaLink    *string       `json:"puja_link" gorm:"size:1024"`
	CreatedAt   time.Time     `json:"created_at"`

	User     *User            `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Puja     *Puja            `json:"puja,omitempty" gorm:"foreignKey:PujaID;constraint:OnDelete:SET NULL"`
	Plan     *Plan            `json:"plan,omitempty" gorm:"foreignKey:PlanID;constraint:OnDelete:SET NULL"`
	Chadawas []BookingChadawa `json:"chadawas" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	Payment  *Payment         `json:"payment,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
}

// BookingChadawa attaches a chadawa to a booking
type BookingChadawa struct {
	ID        int64   `json:"id" gorm:"primaryKey"`
	BookingID int64   `json:"booking_id" gorm:"not null;uniqueIndex:idx_booking_chadawa"`
	ChadawaID int64   `json:"chadawa_id" gorm:"not null;uniqueIndex:idx_booking_chadawa"`
	Note      *string `json:"note" gorm:"type:text"`

	Chadawa *Chadawa `json:"chadawa,omitempty" gorm:"foreignKey:ChadawaID;constraint:OnDelete:CASCADE"`
}

// Payment represents a gateway payment for a booking
type Payment struct {
	ID                int64           `json:"id" gorm:"primaryKey"`
	BookingID         int64           `json:"booking_id" gorm:"not null;uniqueIndex"`
	RazorpayOrderID   string          `json:"razorpay_order_id" gorm:"size:255;not null;uniqueIndex"`
	RazorpayPaymentID *string         `json:"razorpay_payment_id" gorm:"size:255"`
	RazorpaySignature *string         `json:"razorpay_signature" gorm:"size:512"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:numeric(10,2);not null"`
	Currency          string          `json:"currency" gorm:"size:3;not null;default:INR"`
	Status            PaymentStatus   `json:"status" gorm:"type:varchar(20);not null;default:created;index"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// All returns every persisted entity in dependency order
func All() []any {
	return []any{
		&User{},
		&OTPLogin{},
		&Puja{},
		&PujaImage{},
		&Plan{},
		&PujaPlan{},
		&Chadawa{},
		&PujaChadawa{},
		&Booking{},
		&BookingChadawa{},
		&Payment{},
	}
}
