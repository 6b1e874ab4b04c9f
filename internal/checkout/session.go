package checkout

import (
	"errors"
	"sync"
	"time"

	"adegamanager/backend/internal/domain"
)

// AmountTolerance is the monetary epsilon used for every sum comparison.
// Amounts are floats, so split totals and change are reconciled within
// this tolerance rather than by exact equality.
const AmountTolerance = 0.05

var (
	ErrSubmitInFlight      = errors.New("submission already in progress")
	ErrDraftInvalid        = errors.New("sale draft is not valid for submission")
	ErrPaymentAmount       = errors.New("payment amount must be greater than zero")
	ErrPaymentExceedsTotal = errors.New("payments would exceed the sale total")
	ErrUnknownMethod       = errors.New("payment method not found in catalog")
	ErrPaymentOutOfRange   = errors.New("payment index out of range")
	ErrInstallmentsRange   = errors.New("installments must be between 1 and 12")

	// ErrFiadoMethodMissing is a configuration error, not a user-input
	// error: the catalog has no resolvable store-credit method and the
	// operator cannot fix that from the checkout form.
	ErrFiadoMethodMissing = errors.New("no store-credit payment method configured, contact support")
)

const maxInstallments = 12

// Session holds the sale draft for one checkout surface. Fields are
// created empty when the surface opens, mutated exclusively through the
// methods below, and torn down on success or explicit cancellation.
type Session struct {
	mu sync.Mutex

	id        string
	catalog   []domain.PaymentMethodDescriptor
	createdAt time.Time

	items      []domain.CartItem
	channel    domain.SaleChannel
	subChannel domain.StoreCreditSubChannel

	customer *domain.Customer
	address  domain.DeliveryAddress

	deliveryPersonID string
	discount         float64
	deliveryFee      float64
	taxIDOnInvoice   string

	multiPayment     bool
	payments         []domain.PaymentAllocation
	selectedMethodID string
	partialAmount    float64
	installments     int
	cashReceived     float64

	submitting bool
}

// NewSession opens a fresh draft against an immutable catalog snapshot.
func NewSession(id string, catalog []domain.PaymentMethodDescriptor) *Session {
	return &Session{
		id:           id,
		catalog:      catalog,
		channel:      domain.ChannelCounter,
		subChannel:   domain.SubChannelCounter,
		installments: 1,
		createdAt:    time.Now().UTC(),
	}
}

func (s *Session) ID() string { return s.id }

// Update is the single mutation entry point for the draft. Nil fields are
// left untouched; setting Channel or MultiPayment carries the reset side
// effects described on the individual setters.
type Update struct {
	Items            *[]domain.CartItem
	Channel          *domain.SaleChannel
	SubChannel       *domain.StoreCreditSubChannel
	Address          *domain.DeliveryAddress
	DeliveryPersonID *string
	Discount         *float64
	DeliveryFee      *float64
	TaxIDOnInvoice   *string
	CashReceived     *float64
	PartialAmount    *float64
	Installments     *int
	MultiPayment     *bool
}

func (s *Session) Apply(update Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if update.Channel != nil {
		s.setChannelLocked(*update.Channel)
	}
	if update.SubChannel != nil {
		s.subChannel = *update.SubChannel
	}
	if update.MultiPayment != nil {
		s.setMultiPaymentLocked(*update.MultiPayment)
	}
	if update.Items != nil {
		s.items = append([]domain.CartItem(nil), (*update.Items)...)
	}
	if update.Address != nil {
		s.address = *update.Address
	}
	if update.DeliveryPersonID != nil {
		s.deliveryPersonID = *update.DeliveryPersonID
	}
	if update.Discount != nil {
		if *update.Discount < 0 {
			return ErrPaymentAmount
		}
		s.discount = *update.Discount
	}
	if update.DeliveryFee != nil {
		if *update.DeliveryFee < 0 {
			return ErrPaymentAmount
		}
		s.deliveryFee = *update.DeliveryFee
	}
	if update.TaxIDOnInvoice != nil {
		s.taxIDOnInvoice = *update.TaxIDOnInvoice
	}
	if update.CashReceived != nil {
		s.cashReceived = *update.CashReceived
	}
	if update.PartialAmount != nil {
		s.partialAmount = *update.PartialAmount
	}
	if update.Installments != nil {
		if *update.Installments < 1 || *update.Installments > maxInstallments {
			return ErrInstallmentsRange
		}
		s.installments = *update.Installments
		s.resetInstallmentsLocked()
	}
	return nil
}

// setChannelLocked switches the sale channel and clears every
// channel-dependent field so no stale cross-channel state survives.
func (s *Session) setChannelLocked(channel domain.SaleChannel) {
	if channel == s.channel {
		return
	}
	s.channel = channel
	s.subChannel = domain.SubChannelCounter
	s.discount = 0
	s.deliveryFee = 0
	s.selectedMethodID = ""
	s.payments = nil
	s.partialAmount = 0
	s.cashReceived = 0
	s.installments = 1
}

// IsDelivery reports whether delivery fields (address, delivery person,
// fee) are in play for the current channel.
func (s *Session) IsDelivery() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isDeliveryLocked()
}

func (s *Session) isDeliveryLocked() bool {
	if s.channel == domain.ChannelDelivery {
		return true
	}
	return s.channel == domain.ChannelStoreCredit && s.subChannel == domain.SubChannelDelivery
}

// LoadCustomer attaches a customer to the draft and pre-fills the delivery
// address from the customer's loosely-typed address record.
func (s *Session) LoadCustomer(customer *domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customer = customer
	if customer == nil {
		return
	}
	if mapped := addressFromCustomer(customer.Address); mapped != (domain.DeliveryAddress{}) {
		s.address = mapped
	}
}

// FillFromLookup merges a postal-code lookup result into the address and
// returns the field input focus should move to. Lookup failures are
// handled by the caller and never reach this method, so existing fields
// are only ever improved.
func (s *Session) FillFromLookup(frag domain.AddressFragment) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.address = mergeLookup(s.address, frag)
	return FocusNumberField
}

// BeginSubmit validates the draft and flips the in-flight guard. A second
// call before FinishSubmit fails with ErrSubmitInFlight, mirroring the
// disabled submit control on the checkout surface.
func (s *Session) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return ErrSubmitInFlight
	}
	if v := s.validateLocked(); !v.Valid {
		if v.ConfigError {
			return ErrFiadoMethodMissing
		}
		return ErrDraftInvalid
	}
	s.submitting = true
	return nil
}

// FinishSubmit releases the in-flight guard. On success the whole draft is
// reset; on failure every field is preserved so the operator can correct
// and resubmit.
func (s *Session) FinishSubmit(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	if !success {
		return
	}
	s.items = nil
	s.channel = domain.ChannelCounter
	s.subChannel = domain.SubChannelCounter
	s.customer = nil
	s.address = domain.DeliveryAddress{}
	s.deliveryPersonID = ""
	s.discount = 0
	s.deliveryFee = 0
	s.taxIDOnInvoice = ""
	s.multiPayment = false
	s.payments = nil
	s.selectedMethodID = ""
	s.partialAmount = 0
	s.installments = 1
	s.cashReceived = 0
}

// BuildSale assembles the persistence payload from the validated draft.
// Store-credit maps onto the two underlying channels with the payment
// method tagged as fiado.
func (s *Session) BuildSale(storeID string) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v := s.validateLocked(); !v.Valid {
		if v.ConfigError {
			return domain.Sale{}, ErrFiadoMethodMissing
		}
		return domain.Sale{}, ErrDraftInvalid
	}

	sale := domain.Sale{
		StoreID:      storeID,
		Items:        append([]domain.CartItem(nil), s.items...),
		Subtotal:     s.subtotalLocked(),
		Discount:     s.discount,
		DeliveryFee:  s.deliveryFee,
		Total:        s.totalLocked(),
		Installments: s.installments,
		CreatedAt:    time.Now().UTC(),
	}

	switch s.channel {
	case domain.ChannelStoreCredit:
		method := ResolveStoreCredit(s.catalog)
		sale.PaymentMethodID = method.ID
		sale.PaymentMethod = method.Slug
		sale.Installments = 1
		if s.subChannel == domain.SubChannelDelivery {
			sale.Channel = domain.ChannelDelivery
		} else {
			sale.Channel = domain.ChannelCounter
		}
	default:
		sale.Channel = s.channel
		if s.multiPayment {
			sale.Allocations = append([]domain.PaymentAllocation(nil), s.payments...)
		} else {
			method := findMethod(s.catalog, s.selectedMethodID)
			sale.PaymentMethodID = method.ID
			sale.PaymentMethod = method.Slug
			if !isCreditMethod(method) {
				sale.Installments = 1
			}
			if isCashMethod(method) {
				sale.CashReceived = s.cashReceived
				sale.Change = s.changeLocked()
			}
		}
	}

	if s.customer != nil {
		sale.CustomerID = s.customer.ID
	}
	if s.isDeliveryLocked() {
		address := s.address
		sale.Address = &address
		sale.DeliveryPersonID = s.deliveryPersonID
	}
	sale.TaxIDOnInvoice = s.taxIDOnInvoice
	return sale, nil
}

// Snapshot is a read-only copy of the draft for rendering and tests.
type Snapshot struct {
	ID               string                           `json:"id"`
	Items            []domain.CartItem                `json:"items"`
	Channel          domain.SaleChannel               `json:"channel"`
	SubChannel       domain.StoreCreditSubChannel     `json:"sub_channel"`
	IsDelivery       bool                             `json:"is_delivery"`
	Customer         *domain.Customer                 `json:"customer,omitempty"`
	Address          domain.DeliveryAddress           `json:"address"`
	DeliveryPersonID string                           `json:"delivery_person_id,omitempty"`
	Subtotal         float64                          `json:"subtotal"`
	Discount         float64                          `json:"discount"`
	DeliveryFee      float64                          `json:"delivery_fee"`
	Total            float64                          `json:"total"`
	MultiPayment     bool                             `json:"multi_payment"`
	Payments         []domain.PaymentAllocation       `json:"payments"`
	SelectedMethodID string                           `json:"selected_method_id,omitempty"`
	Remaining        float64                          `json:"remaining"`
	Installments     int                              `json:"installments"`
	InstallmentPlan  []domain.InstallmentOption       `json:"installment_plan"`
	CashReceived     float64                          `json:"cash_received"`
	Change           float64                          `json:"change"`
	Catalog          []domain.PaymentMethodDescriptor `json:"catalog"`
	Valid            bool                             `json:"valid"`
	ValidationReason string                           `json:"validation_reason,omitempty"`
	ConfigError      bool                             `json:"config_error,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.validateLocked()
	return Snapshot{
		ID:               s.id,
		Items:            append([]domain.CartItem(nil), s.items...),
		Channel:          s.channel,
		SubChannel:       s.subChannel,
		IsDelivery:       s.isDeliveryLocked(),
		Customer:         s.customer,
		Address:          s.address,
		DeliveryPersonID: s.deliveryPersonID,
		Subtotal:         s.subtotalLocked(),
		Discount:         s.discount,
		DeliveryFee:      s.deliveryFee,
		Total:            s.totalLocked(),
		MultiPayment:     s.multiPayment,
		Payments:         append([]domain.PaymentAllocation(nil), s.payments...),
		SelectedMethodID: s.selectedMethodID,
		Remaining:        s.remainingLocked(),
		Installments:     s.installments,
		InstallmentPlan:  s.installmentOptionsLocked(),
		CashReceived:     s.cashReceived,
		Change:           s.changeLocked(),
		Catalog:          append([]domain.PaymentMethodDescriptor(nil), s.catalog...),
		Valid:            v.Valid,
		ValidationReason: v.Reason,
		ConfigError:      v.ConfigError,
	}
}

// subtotalLocked reduces the cart line items. Items are owned by the cart
// collaborator and read-only here.
func (s *Session) subtotalLocked() float64 {
	subtotal := 0.0
	for _, item := range s.items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	return subtotal
}

func (s *Session) totalLocked() float64 {
	total := s.subtotalLocked() - s.discount + s.deliveryFee
	if total < 0 {
		return 0
	}
	return total
}
