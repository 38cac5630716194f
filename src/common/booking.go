package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"vrober/src/config"
	"vrober/src/db"
	"vrober/src/lib"
	"vrober/src/lib/mailer"
	"vrober/src/models"
	"vrober/src/types"
	"vrober/src/utils"

	"firebase.google.com/go/v4/messaging"
	"gorm.io/gorm"
)

const (
	DefaultRejectReason = "Rejected by partner"
	DefaultCancelReason = "No reason provided"
)

// Transition sources for each vendor/user operation. Admin overrides bypass
// these through OverrideBookingStatus.
var (
	acceptableFrom  = []string{string(types.BOOKING_ASSIGNED), string(types.BOOKING_PENDING)}
	startableFrom   = []string{string(types.BOOKING_ACCEPTED)}
	completableFrom = []string{string(types.BOOKING_ACCEPTED), string(types.BOOKING_IN_PROGRESS)}
	cancellableFrom = []string{
		string(types.BOOKING_UNASSIGNED),
		string(types.BOOKING_PENDING),
		string(types.BOOKING_ASSIGNED),
		string(types.BOOKING_ACCEPTED),
	}
	assignableFrom = []string{
		string(types.BOOKING_UNASSIGNED),
		string(types.BOOKING_PENDING),
		string(types.BOOKING_ASSIGNED),
	}
)

func CreateBooking(userId uint, params *types.CreateBookingRequestBody) (*models.Booking, error) {
	serviceDate, err := time.ParseInLocation(config.DATE_PARSE_FORMAT, params.ServiceDate, time.Local)
	if err != nil {
		return nil, &types.ValidationError{Detail: fmt.Sprintf("invalid service_date: %s", err.Error())}
	}

	paymentMethod := string(types.METHOD_CASH)
	if params.PaymentMethod != nil {
		paymentMethod = *params.PaymentMethod
	}

	booking := models.Booking{
		UserID:              userId,
		ServiceID:           params.ServiceID,
		ServiceDate:         serviceDate,
		ServiceTime:         params.ServiceTime,
		Address:             params.Address,
		Location:            params.Location,
		Description:         params.Description,
		SpecialInstructions: params.SpecialInstructions,
		PaymentMethod:       paymentMethod,
		PaymentStatus:       string(types.PAYMENT_PENDING),
	}

	gdb := db.GetDb()
	err = gdb.Transaction(func(tx *gorm.DB) error {
		var service models.Service
		if err := tx.
			Where("id = ? AND active = ?", params.ServiceID, true).
			First(&service).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "service", ID: fmt.Sprintf("%d", params.ServiceID)}
			}
			return err
		}
		// Price always comes from the catalog, never from the client.
		booking.Price = service.Price

		if params.VendorID != nil {
			var vendor models.Vendor
			if err := tx.
				Where("id = ? AND active = ?", *params.VendorID, true).
				First(&vendor).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &types.NotFoundError{Resource: "vendor", ID: fmt.Sprintf("%d", *params.VendorID)}
				}
				return err
			}
			booking.VendorID = params.VendorID
			booking.Status = string(types.BOOKING_PENDING)
		} else {
			booking.Status = string(types.BOOKING_UNASSIGNED)
		}

		if err := tx.Create(&booking).Error; err != nil {
			log.Printf("Error creating booking: %s\n", err.Error())
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The booking count on the service is incremented by a consumer; the
	// response never waits on it.
	go PublishBookingCreated(booking.ServiceID, booking.ID)
	go lib.PusherTriggerBookingUpdate(booking.ID, booking.Status)

	return &booking, nil
}

// transitionBooking applies a conditional status update and, on a miss,
// re-reads the row so the error reports the actual current status.
func transitionBooking(tx *gorm.DB, id uint, from []string, updates map[string]any) error {
	res := tx.
		Model(&models.Booking{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var booking models.Booking
		if err := tx.Where("id = ?", id).First(&booking).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "booking", ID: fmt.Sprintf("%d", id)}
			}
			return err
		}
		return &types.PreconditionError{
			Resource: "booking",
			ID:       fmt.Sprintf("%d", id),
			Current:  booking.Status,
			Wanted:   from,
		}
	}
	return nil
}

// loadBookingForVendor fetches the booking and enforces that the caller is
// the assigned vendor.
func loadBookingForVendor(tx *gorm.DB, id uint, vendorId uint) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.Where("id = ?", id).First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Resource: "booking", ID: fmt.Sprintf("%d", id)}
		}
		return nil, err
	}
	if booking.VendorID == nil || *booking.VendorID != vendorId {
		return nil, &types.ForbiddenError{Detail: "booking is not assigned to this partner"}
	}
	return &booking, nil
}

func loadBookingForUser(tx *gorm.DB, id uint, userId uint) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.Where("id = ?", id).First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Resource: "booking", ID: fmt.Sprintf("%d", id)}
		}
		return nil, err
	}
	if booking.UserID != userId {
		return nil, &types.ForbiddenError{Detail: "booking belongs to another account"}
	}
	return &booking, nil
}

func AcceptBooking(vendorId uint, id uint, notes string) error {
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if _, err := loadBookingForVendor(tx, id, vendorId); err != nil {
			return err
		}
		return transitionBooking(tx, id, acceptableFrom, map[string]any{
			"status":       string(types.BOOKING_ACCEPTED),
			"vendor_notes": notes,
		})
	})
	if err != nil {
		return err
	}
	go lib.PusherTriggerBookingUpdate(id, string(types.BOOKING_ACCEPTED))
	return nil
}

func RejectBooking(vendorId uint, id uint, reason string) error {
	if reason == "" {
		reason = DefaultRejectReason
	}
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if _, err := loadBookingForVendor(tx, id, vendorId); err != nil {
			return err
		}
		// A reject puts the booking back in the admin's assignment queue.
		return transitionBooking(tx, id, acceptableFrom, map[string]any{
			"cancellation_reason": reason,
			"cancelled_by":        string(types.CANCELLED_BY_VENDOR),
			"status":              string(types.BOOKING_UNASSIGNED),
			"vendor_id":           nil,
		})
	})
	if err != nil {
		return err
	}
	go lib.PusherTriggerBookingUpdate(id, string(types.BOOKING_UNASSIGNED))
	return nil
}

func StartBooking(vendorId uint, id uint) error {
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if _, err := loadBookingForVendor(tx, id, vendorId); err != nil {
			return err
		}
		return transitionBooking(tx, id, startableFrom, map[string]any{
			"status": string(types.BOOKING_IN_PROGRESS),
		})
	})
	if err != nil {
		return err
	}
	go lib.PusherTriggerBookingUpdate(id, string(types.BOOKING_IN_PROGRESS))
	return nil
}

func CompleteBooking(vendorId uint, id uint) error {
	now := time.Now()
	var completed models.Booking
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		booking, err := loadBookingForVendor(tx, id, vendorId)
		if err != nil {
			return err
		}
		updates := map[string]any{
			"completion_date": now,
			"status":          string(types.BOOKING_COMPLETED),
		}
		// Cash settles on completion; online bookings settle via webhook.
		if booking.PaymentMethod == string(types.METHOD_CASH) {
			updates["payment_status"] = string(types.PAYMENT_PAID)
		}
		if err := transitionBooking(tx, id, completableFrom, updates); err != nil {
			return err
		}
		completed = *booking
		return nil
	})
	if err != nil {
		return err
	}
	go lib.PusherTriggerBookingUpdate(id, string(types.BOOKING_COMPLETED))
	go sendCompletionEmail(&completed)
	return nil
}

func CancelBooking(userId uint, id uint, reason string) error {
	if reason == "" {
		reason = DefaultCancelReason
	}
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if _, err := loadBookingForUser(tx, id, userId); err != nil {
			return err
		}
		return transitionBooking(tx, id, cancellableFrom, map[string]any{
			"cancellation_reason": reason,
			"cancelled_by":        string(types.CANCELLED_BY_USER),
			"status":              string(types.BOOKING_CANCELLED),
		})
	})
	if err != nil {
		return err
	}
	go lib.PusherTriggerBookingUpdate(id, string(types.BOOKING_CANCELLED))
	return nil
}

func RateBooking(userId uint, id uint, rating uint8, review string) error {
	gdb := db.GetDb()
	return gdb.Transaction(func(tx *gorm.DB) error {
		booking, err := loadBookingForUser(tx, id, userId)
		if err != nil {
			return err
		}
		if booking.Status != string(types.BOOKING_COMPLETED) {
			return &types.PreconditionError{
				Resource: "booking",
				ID:       fmt.Sprintf("%d", id),
				Current:  booking.Status,
				Wanted:   []string{string(types.BOOKING_COMPLETED)},
			}
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", id).
			Updates(map[string]any{"rating": rating, "review": review}).
			Error; err != nil {
			return err
		}
		if booking.VendorID == nil {
			return nil
		}
		var vendor models.Vendor
		if err := tx.Where("id = ?", *booking.VendorID).First(&vendor).Error; err != nil {
			return err
		}
		count := vendor.RatingCount + 1
		avg := (vendor.Rating*float32(vendor.RatingCount) + float32(rating)) / float32(count)
		return tx.
			Model(&models.Vendor{}).
			Where("id = ?", vendor.ID).
			Updates(map[string]any{"rating": avg, "rating_count": count}).
			Error
	})
}

func AssignVendor(id uint, vendorId uint) error {
	var assigned models.Vendor
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var vendor models.Vendor
		if err := tx.Where("id = ? AND active = ?", vendorId, true).First(&vendor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "vendor", ID: fmt.Sprintf("%d", vendorId)}
			}
			return err
		}
		if err := transitionBooking(tx, id, assignableFrom, map[string]any{
			"status":    string(types.BOOKING_ASSIGNED),
			"vendor_id": vendorId,
		}); err != nil {
			return err
		}
		assigned = vendor
		return nil
	})
	if err != nil {
		return err
	}
	go notifyVendorAssigned(&assigned, id)
	go lib.PusherTriggerBookingUpdate(id, string(types.BOOKING_ASSIGNED))
	return nil
}

// OverrideBookingStatus is the admin escape hatch: any valid target status,
// no source-state restriction.
func OverrideBookingStatus(id uint, status string, adminNote string) error {
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Booking{}).
			Where("id = ?", id).
			Updates(map[string]any{"admin_note": adminNote, "status": status})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &types.NotFoundError{Resource: "booking", ID: fmt.Sprintf("%d", id)}
		}
		return nil
	})
	if err != nil {
		return err
	}
	go lib.PusherTriggerBookingUpdate(id, status)
	return nil
}

// DeleteBooking removes the row for real. Everything else in the system
// soft-deletes; only an explicit admin action lands here.
func DeleteBooking(id uint) error {
	gdb := db.GetDb()
	res := gdb.Unscoped().Where("id = ?", id).Delete(&models.Booking{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &types.NotFoundError{Resource: "booking", ID: fmt.Sprintf("%d", id)}
	}
	return nil
}

func GetUserBookings(userId uint, status string) ([]models.Booking, error) {
	gdb := db.GetDb()
	var bookings []models.Booking
	q := gdb.
		Model(&models.Booking{}).
		Where("user_id = ?", userId).
		Preload("Service").
		Preload("Vendor").
		Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&bookings).Error
	return bookings, err
}

func GetVendorBookings(vendorId uint, status string) ([]models.Booking, error) {
	gdb := db.GetDb()
	var bookings []models.Booking
	q := gdb.
		Model(&models.Booking{}).
		Where("vendor_id = ?", vendorId).
		Preload("Service").
		Preload("User").
		Order("service_date ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&bookings).Error
	return bookings, err
}

func GetBooking(id uint) (*models.Booking, error) {
	gdb := db.GetDb()
	var booking models.Booking
	if err := gdb.
		Preload("Service").
		Preload("Vendor").
		Preload("User").
		Where("id = ?", id).
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Resource: "booking", ID: fmt.Sprintf("%d", id)}
		}
		return nil, err
	}
	return &booking, nil
}

// PublishBookingCreated emits the post-commit booking event. Kafka locally,
// SNS topic in production. Failures are logged, never surfaced.
func PublishBookingCreated(serviceId uint, bookingId uint) {
	payload := types.JSONB{
		"booking_id": bookingId,
		"service_id": serviceId,
	}
	topic := utils.WithSuffix("BookingEvents")
	if config.API_ENV == string(types.Production) {
		body, err := json.Marshal(&payload)
		if err != nil {
			log.Printf("[BookingEvents] Error serializing payload: %s\n", err.Error())
			return
		}
		if err := lib.SNSProduceMessage(topic, string(body)); err != nil {
			log.Printf("[BookingEvents] Error publishing booking %d: %s\n", bookingId, err.Error())
		}
		return
	}
	if err := lib.KafkaProduceMessage("bookings", topic, &payload); err != nil {
		log.Printf("[BookingEvents] Error publishing booking %d: %s\n", bookingId, err.Error())
	}
}

func notifyVendorAssigned(vendor *models.Vendor, bookingId uint) {
	if vendor.FCMToken == nil {
		return
	}
	fcm, err := lib.GetFirebaseMessaging()
	if err != nil {
		log.Printf("Error retrieving FCM client: %s\n", err.Error())
		return
	}
	_, err = fcm.Send(context.Background(), &messaging.Message{
		Token: *vendor.FCMToken,
		Notification: &messaging.Notification{
			Title: "New job assigned",
			Body:  fmt.Sprintf("Booking #%d has been assigned to you", bookingId),
		},
		Data: map[string]string{
			"booking_id": fmt.Sprintf("%d", bookingId),
			"type":       "booking-assigned",
		},
	})
	if err != nil {
		log.Printf("Error sending push to vendor %d: %s\n", vendor.ID, err.Error())
	}
}

func sendCompletionEmail(booking *models.Booking) {
	gdb := db.GetDb()
	var user models.User
	if err := gdb.Where("id = ?", booking.UserID).First(&user).Error; err != nil {
		log.Printf("Could not load user %d for completion email: %s\n", booking.UserID, err.Error())
		return
	}
	if user.Email == "" {
		return
	}
	err := mailer.NewMailerMessage(&lib.SendMailInput{
		From:     "no-reply@vrober.com",
		FromName: "Vrober",
		To:       []string{user.Email},
		Subject:  "Your service is complete",
		Body:     fmt.Sprintf("Booking #%d has been completed. Thank you for choosing Vrober!", booking.ID),
	})
	if err != nil {
		log.Printf("Error queueing completion email for booking %d: %s\n", booking.ID, err.Error())
	}
}
