package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Auth

// SignupRequest - регистрация обычного пользователя
type SignupRequest struct {
	Name   string  `json:"name" binding:"required"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Mobile string  `json:"mobile" binding:"required,mobile"`
	Role   *string `json:"role,omitempty"`
}

// OTPRequest - запрос одноразового кода
type OTPRequest struct {
	Mobile string `json:"mobile" binding:"required,mobile"`
}

// OTPRequestResponse - ответ на запрос кода
type OTPRequestResponse struct {
	Message string `json:"message"`
	DevOTP  string `json:"dev_otp,omitempty"`
}

// OTPVerifyRequest - проверка одноразового кода
type OTPVerifyRequest struct {
	Mobile  string `json:"mobile" binding:"required,mobile"`
	OTPCode string `json:"otp_code" binding:"required"`
}

// PasswordLoginRequest - вход администратора по паролю.
// Поля совпадают с OAuth2 password grant, поэтому принимаются и form, и JSON.
type PasswordLoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// TokenResponse - выданный токен доступа
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Users

// UserPatch - частичное обновление профиля, nil поля не меняются
type UserPatch struct {
	Name   *string `json:"name"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Mobile *string `json:"mobile" binding:"omitempty,mobile"`
}

// CreateAdminRequest - создание администратора супер-админом
type CreateAdminRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Mobile   string  `json:"mobile" binding:"required,mobile"`
	Password string  `json:"password" binding:"required,min=8"`
	Role     *string `json:"role,omitempty"`
}

// Catalog

// PujaInput - создание и обновление пуджи
type PujaInput struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// PujaImageInput - добавление изображения к пудже
type PujaImageInput struct {
	PujaID   int64  `json:"puja_id" binding:"required,min=1"`
	ImageURL string `json:"image_url" binding:"required,url"`
}

// PlanInput - создание плана
type PlanInput struct {
	Name            string           `json:"name" binding:"required"`
	Description     *string          `json:"description"`
	ImageURL        *string          `json:"image_url"`
	ActualPrice     decimal.Decimal  `json:"actual_price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price"`
}

// PlanPatch - частичное обновление плана
type PlanPatch struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	ImageURL        *string          `json:"image_url"`
	ActualPrice     *decimal.Decimal `json:"actual_price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price"`
}

// ChadawaInput - создание чадавы
type ChadawaInput struct {
	Name         string          `json:"name" binding:"required"`
	Description  *string         `json:"description"`
	ImageURL     *string         `json:"image_url"`
	Price        decimal.Decimal `json:"price"`
	RequiresNote bool            `json:"requires_note"`
}

// ChadawaPatch - частичное обновление чадавы
type ChadawaPatch struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	ImageURL     *string          `json:"image_url"`
	Price        *decimal.Decimal `json:"price"`
	RequiresNote *bool            `json:"requires_note"`
}

// PujaSearchResult - результат поиска по каталогу
type PujaSearchResult struct {
	Items []Puja `json:"items"`
	Total int64  `json:"total"`
}

// Bookings

// ChadawaSelection - выбранная чадава с необязательной заметкой
type ChadawaSelection struct {
	ChadawaID int64   `json:"chadawa_id" binding:"required,min=1"`
	Note      *string `json:"note"`
}

// CreateBookingRequest - модель для создания бронирования.
// user_id намеренно отсутствует: владелец всегда берется из токена.
type CreateBookingRequest struct {
	PujaID            *int64             `json:"puja_id"`
	PlanID            *int64             `json:"plan_id"`
	BookingDate       *time.Time         `json:"booking_date"`
	ChadawaSelections []ChadawaSelection `json:"chadawa_selections" binding:"dive"`
}

// BookingPatch - частичное обновление бронирования администратором
type BookingPatch struct {
	Status   *BookingStatus `json:"status"`
	PujaLink *string        `json:"puja_link"`
}

// Payments

// CreateOrderResponse - данные для оплаты на клиенте
type CreateOrderResponse struct {
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	RazorpayKeyID string          `json:"razorpay_key_id"`
}

// VerifyPaymentRequest - подпись, полученная клиентом от платежного шлюза
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

// Common

// Page - параметры пагинации skip/limit
type Page struct {
	Skip  int `form:"skip,default=0" binding:"min=0"`
	Limit int `form:"limit,default=100" binding:"min=1,max=100"`
}

// MessageResponse - простой ответ с сообщением
type MessageResponse struct {
	Message string `json:"message"`
}
