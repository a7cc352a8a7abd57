package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/granary/backend/internal/domain/billing"
	"github.com/granary/backend/internal/domain/identity"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PhoneDirectory resolves a customer ID to an SMS-capable phone number.
// Customers without a registered phone are simply not notified.
type PhoneDirectory interface {
	PhoneByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (string, error)
}

// UserPhoneDirectory answers phone lookups from the user accounts table.
// Only customers who also hold a login account receive receipts.
type UserPhoneDirectory struct {
	users identity.UserRepository
}

// NewUserPhoneDirectory creates a new UserPhoneDirectory
func NewUserPhoneDirectory(users identity.UserRepository) *UserPhoneDirectory {
	return &UserPhoneDirectory{users: users}
}

// PhoneByCustomer returns the phone of the matching active user account
func (d *UserPhoneDirectory) PhoneByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (string, error) {
	user, err := d.users.FindByID(ctx, customerID)
	if err != nil {
		return "", err
	}
	if user.TenantID != tenantID || !user.Active {
		return "", shared.ErrNotFound
	}
	return user.Phone, nil
}

// BillReceiptHandler sends SMS receipts for settled bills and applied
// payments. It runs after the settlement transaction committed; a gateway
// failure is logged and never affects the bill itself.
type BillReceiptHandler struct {
	sender    Sender
	directory PhoneDirectory
	logger    *zap.Logger
}

// NewBillReceiptHandler creates a new BillReceiptHandler
func NewBillReceiptHandler(sender Sender, directory PhoneDirectory, logger *zap.Logger) *BillReceiptHandler {
	return &BillReceiptHandler{
		sender:    sender,
		directory: directory,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler subscribes to
func (h *BillReceiptHandler) EventTypes() []string {
	return []string{
		billing.EventTypeOutflowSettled,
		billing.EventTypePaymentApplied,
	}
}

// Handle sends the receipt matching the event type
func (h *BillReceiptHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *billing.OutflowSettledEvent:
		return h.send(ctx, event.TenantID(), e.CustomerID, settlementReceipt(e))
	case *billing.PaymentAppliedEvent:
		return h.send(ctx, event.TenantID(), e.CustomerID, paymentReceipt(e))
	default:
		return nil
	}
}

func (h *BillReceiptHandler) send(ctx context.Context, tenantID, customerID uuid.UUID, message string) error {
	phone, err := h.directory.PhoneByCustomer(ctx, tenantID, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Debug("no phone registered for customer, skipping receipt",
				zap.String("customer_id", customerID.String()),
			)
			return nil
		}
		return err
	}
	return h.sender.SendSMS(ctx, phone, message)
}

func settlementReceipt(e *billing.OutflowSettledEvent) string {
	return fmt.Sprintf(
		"Bill %s: %s bags of %s withdrawn from %s. Storage %s + insurance %s + labour %s = %s. Paid %s, balance %s.",
		e.BillNumber,
		e.QuantityWithdrawn.String(),
		e.Snapshot.CropTypeName,
		e.Snapshot.LocationName,
		e.StorageCost.String(),
		e.InsuranceCharge.String(),
		e.LabourCharge.String(),
		e.TotalBill.String(),
		e.AmountPaid.String(),
		e.BalanceDue.String(),
	)
}

func paymentReceipt(e *billing.PaymentAppliedEvent) string {
	return fmt.Sprintf(
		"Payment of %s (%s) received against bill %s. Paid so far %s, balance %s.",
		e.Amount.String(),
		string(e.Method),
		e.BillNumber,
		e.AmountPaid.String(),
		e.BalanceDue.String(),
	)
}

var _ shared.EventHandler = (*BillReceiptHandler)(nil)
