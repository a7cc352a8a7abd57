package notification

import (
	"context"
	"testing"

	"github.com/granary/backend/internal/domain/billing"
	"github.com/granary/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	to       []string
	messages []string
}

func (s *fakeSender) SendSMS(_ context.Context, to, message string) error {
	s.to = append(s.to, to)
	s.messages = append(s.messages, message)
	return nil
}

type fakeDirectory struct {
	phones map[uuid.UUID]string
}

func (d *fakeDirectory) PhoneByCustomer(_ context.Context, _ uuid.UUID, customerID uuid.UUID) (string, error) {
	if phone, ok := d.phones[customerID]; ok {
		return phone, nil
	}
	return "", shared.ErrNotFound
}

func settledEvent(customerID uuid.UUID) *billing.OutflowSettledEvent {
	outflow := &billing.Outflow{
		BillNumber:        "OF-20260831-00001",
		CustomerID:        customerID,
		QuantityWithdrawn: decimal.NewFromInt(40),
		StorageMonths:     3,
		StorageCost:       decimal.NewFromInt(880),
		InsuranceCharge:   decimal.NewFromInt(400),
		LabourCharge:      decimal.NewFromInt(200),
		TotalBill:         decimal.NewFromInt(1480),
		AmountPaid:        decimal.NewFromInt(1000),
		BalanceDue:        decimal.NewFromInt(480),
		Snapshot: billing.BillingSnapshot{
			CustomerName: "Ram Kumar",
			LocationName: "North Godown",
			CropTypeName: "Potato",
		},
	}
	outflow.ID = uuid.New()
	outflow.TenantID = uuid.New()
	return billing.NewOutflowSettledEvent(outflow)
}

func TestBillReceiptHandler_SendsSettlementReceipt(t *testing.T) {
	customerID := uuid.New()
	sender := &fakeSender{}
	directory := &fakeDirectory{phones: map[uuid.UUID]string{customerID: "+919800000001"}}
	handler := NewBillReceiptHandler(sender, directory, zap.NewNop())

	err := handler.Handle(context.Background(), settledEvent(customerID))

	require.NoError(t, err)
	require.Len(t, sender.messages, 1)
	assert.Equal(t, "+919800000001", sender.to[0])
	assert.Contains(t, sender.messages[0], "OF-20260831-00001")
	assert.Contains(t, sender.messages[0], "Potato")
	assert.Contains(t, sender.messages[0], "480")
}

func TestBillReceiptHandler_SkipsCustomerWithoutPhone(t *testing.T) {
	sender := &fakeSender{}
	handler := NewBillReceiptHandler(sender, &fakeDirectory{}, zap.NewNop())

	err := handler.Handle(context.Background(), settledEvent(uuid.New()))

	require.NoError(t, err)
	assert.Empty(t, sender.messages)
}

func TestBillReceiptHandler_IgnoresUnrelatedEvents(t *testing.T) {
	sender := &fakeSender{}
	handler := NewBillReceiptHandler(sender, &fakeDirectory{}, zap.NewNop())

	base := shared.NewBaseDomainEvent("InflowCreated", "Inflow", uuid.New(), uuid.New())
	err := handler.Handle(context.Background(), &base)

	require.NoError(t, err)
	assert.Empty(t, sender.messages)
}
