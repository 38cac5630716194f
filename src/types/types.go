package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any
type JSONBArray []any

// IDSlice is a jsonb-backed list of record ids. Payments keep the ids of the
// bookings they cover in one of these.
type IDSlice []uint

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

func (a JSONBArray) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONBArray) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

func (a IDSlice) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *IDSlice) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type BookingStatus string

const (
	BOOKING_UNASSIGNED  BookingStatus = "unassigned"
	BOOKING_PENDING     BookingStatus = "pending"
	BOOKING_ASSIGNED    BookingStatus = "assigned"
	BOOKING_CONFIRMED   BookingStatus = "confirmed"
	BOOKING_ACCEPTED    BookingStatus = "accepted"
	BOOKING_IN_PROGRESS BookingStatus = "in-progress"
	BOOKING_COMPLETED   BookingStatus = "completed"
	BOOKING_REJECTED    BookingStatus = "rejected"
	BOOKING_CANCELLED   BookingStatus = "cancelled"
)

type BookingPaymentStatus string

const (
	PAYMENT_PENDING  BookingPaymentStatus = "pending"
	PAYMENT_PAID     BookingPaymentStatus = "paid"
	PAYMENT_REFUNDED BookingPaymentStatus = "refunded"
	PAYMENT_FAILED   BookingPaymentStatus = "failed"
)

type PaymentMethod string

const (
	METHOD_CASH   PaymentMethod = "cash"
	METHOD_ONLINE PaymentMethod = "online"
	METHOD_WALLET PaymentMethod = "wallet"
)

// OrderStatus is the lifecycle of a gateway order, distinct from the
// per-booking payment status above.
type OrderStatus string

const (
	ORDER_CREATED   OrderStatus = "CREATED"
	ORDER_ACTIVE    OrderStatus = "ACTIVE"
	ORDER_PAID      OrderStatus = "PAID"
	ORDER_EXPIRED   OrderStatus = "EXPIRED"
	ORDER_FAILED    OrderStatus = "FAILED"
	ORDER_CANCELLED OrderStatus = "CANCELLED"
)

type RefundStatus string

const (
	REFUND_NONE      RefundStatus = "none"
	REFUND_PENDING   RefundStatus = "pending"
	REFUND_PROCESSED RefundStatus = "processed"
	REFUND_FAILED    RefundStatus = "failed"
)

type CancelActor string

const (
	CANCELLED_BY_USER   CancelActor = "user"
	CANCELLED_BY_VENDOR CancelActor = "vendor"
	CANCELLED_BY_ADMIN  CancelActor = "admin"
)

const (
	ROLE_USER   = "user"
	ROLE_VENDOR = "vendor"
	ROLE_ADMIN  = "admin"
)

type Env string

const (
	Local      Env = "local"
	Test       Env = "test"
	Production Env = "production"
)

type CreateBookingRequestBody struct {
	ServiceID           uint    `json:"service_id" binding:"required"`
	VendorID            *uint   `json:"vendor_id,omitempty" binding:"omitempty"`
	ServiceDate         string  `json:"service_date" binding:"required,futuredate" time_format:"2006-01-02"`
	ServiceTime         string  `json:"service_time" binding:"required"`
	Address             string  `json:"address" binding:"required"`
	Location            JSONB   `json:"location,omitempty" binding:"omitempty"`
	Description         string  `json:"description,omitempty"`
	SpecialInstructions string  `json:"special_instructions,omitempty"`
	PaymentMethod       *string `json:"payment_method,omitempty" binding:"omitempty,oneof=cash online wallet"`
}

type CancelBookingRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

type AcceptBookingRequestBody struct {
	VendorNotes string `json:"vendor_notes,omitempty"`
}

type RejectBookingRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

type RateBookingRequestBody struct {
	Rating uint8  `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review,omitempty"`
}

type AssignVendorRequestBody struct {
	VendorID uint `json:"vendor_id" binding:"required"`
}

type UpdateBookingStatusRequestBody struct {
	Status    string `json:"status" binding:"required,oneof=pending assigned confirmed in-progress completed cancelled rejected"`
	AdminNote string `json:"admin_note,omitempty"`
}

type CreateOrderRequestBody struct {
	BookingIDs []uint `json:"booking_ids" binding:"required,min=1"`
}

type VerifyPaymentRequestBody struct {
	OrderID string `json:"order_id" binding:"required"`
}

type RequestOTPRequestBody struct {
	Phone string `json:"phone" binding:"required,len=10,numeric"`
	Role  string `json:"role,omitempty" binding:"omitempty,oneof=user vendor"`
}

type VerifyOTPRequestBody struct {
	Phone string `json:"phone" binding:"required,len=10,numeric"`
	OTP   string `json:"otp" binding:"required"`
	Role  string `json:"role,omitempty" binding:"omitempty,oneof=user vendor"`
	Name  string `json:"name,omitempty"`
}

type AdminLoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateCategoryRequestBody struct {
	Name string `json:"name" binding:"required"`
	Icon string `json:"icon,omitempty"`
}

type CreateServiceRequestBody struct {
	CategoryID  uint   `json:"category_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price" binding:"required,gt=0"`
	Duration    uint   `json:"duration,omitempty"`
	Image       string `json:"image,omitempty"`
}

type UpdateVendorAvailabilityRequestBody struct {
	Active *bool `json:"active" binding:"required"`
}

type IDURIParams struct {
	ID uint `uri:"id" binding:"required"`
}

type OrderIDURIParams struct {
	OrderID string `uri:"orderId" binding:"required"`
}

type BookingsQueryFilters struct {
	Status string `form:"status,omitempty" binding:"omitempty"`
}

type Handler func(payload string)
