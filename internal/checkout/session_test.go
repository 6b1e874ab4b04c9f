package checkout

import (
	"errors"
	"math"
	"testing"

	"adegamanager/backend/internal/domain"
)

func testCatalog() []domain.PaymentMethodDescriptor {
	return []domain.PaymentMethodDescriptor{
		{ID: "pm-cash", Name: "Dinheiro", Slug: "cash", Code: "01", Type: domain.MethodTypeCash},
		{ID: "pm-credit", Name: "Cartão de Crédito", Slug: "credit_card", Code: "03", Type: domain.MethodTypeCredit},
		{ID: "pm-debit", Name: "Cartão de Débito", Slug: "debit_card", Code: "04", Type: domain.MethodTypeDebit},
		{ID: "pm-pix", Name: "Pix", Slug: "pix", Code: "17", Type: domain.MethodTypePix},
		{ID: "pm-fiado", Name: "Fiado", Slug: "fiado", Code: "05", Type: domain.MethodTypeStoreCredit},
	}
}

func sessionWithItems(t *testing.T, catalog []domain.PaymentMethodDescriptor, items ...domain.CartItem) *Session {
	t.Helper()
	s := NewSession("chk-test", catalog)
	if err := s.Apply(Update{Items: &items}); err != nil {
		t.Fatalf("apply items: %v", err)
	}
	return s
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSplitPaymentsWithinTolerance(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})

	multi := true
	if err := s.Apply(Update{MultiPayment: &multi}); err != nil {
		t.Fatalf("enable split: %v", err)
	}

	first := 60.0
	if err := s.Apply(Update{PartialAmount: &first}); err != nil {
		t.Fatalf("set partial: %v", err)
	}
	if err := s.AddPayment("pm-pix"); err != nil {
		t.Fatalf("add first payment: %v", err)
	}

	second := 40.03
	if err := s.Apply(Update{PartialAmount: &second}); err != nil {
		t.Fatalf("set partial: %v", err)
	}
	if err := s.AddPayment("pm-debit"); err != nil {
		t.Fatalf("add second payment: %v", err)
	}

	if v := s.Validate(); !v.Valid {
		t.Fatalf("expected 60 + 40.03 against 100 to validate, got reason %q", v.Reason)
	}
}

func TestSplitPaymentsOutsideTolerance(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})

	multi := true
	if err := s.Apply(Update{MultiPayment: &multi}); err != nil {
		t.Fatalf("enable split: %v", err)
	}

	for _, amount := range []float64{60, 39.90} {
		partial := amount
		if err := s.Apply(Update{PartialAmount: &partial}); err != nil {
			t.Fatalf("set partial: %v", err)
		}
		if err := s.AddPayment("pm-pix"); err != nil {
			t.Fatalf("add payment %.2f: %v", amount, err)
		}
	}

	v := s.Validate()
	if v.Valid {
		t.Fatal("expected 60 + 39.90 against 100 to fail validation")
	}
	if v.Reason != "payments do not add up to the sale total" {
		t.Fatalf("unexpected reason %q", v.Reason)
	}
}

func TestSplitPaymentCannotExceedTotal(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})

	multi := true
	_ = s.Apply(Update{MultiPayment: &multi})

	partial := 120.0
	_ = s.Apply(Update{PartialAmount: &partial})
	if err := s.AddPayment("pm-pix"); !errors.Is(err, ErrPaymentExceedsTotal) {
		t.Fatalf("expected ErrPaymentExceedsTotal, got %v", err)
	}
}

func TestSplitPaymentDefaultsToRemaining(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})

	multi := true
	_ = s.Apply(Update{MultiPayment: &multi})

	partial := 30.0
	_ = s.Apply(Update{PartialAmount: &partial})
	if err := s.AddPayment("pm-cash"); err != nil {
		t.Fatalf("add partial payment: %v", err)
	}
	// No partial amount typed: the second payment takes the remainder.
	if err := s.AddPayment("pm-pix"); err != nil {
		t.Fatalf("add remainder payment: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(snap.Payments))
	}
	if !approx(snap.Payments[1].Amount, 70) {
		t.Fatalf("expected remainder 70, got %.2f", snap.Payments[1].Amount)
	}
	if !approx(snap.Remaining, 0) {
		t.Fatalf("expected zero remaining, got %.2f", snap.Remaining)
	}
}

func TestRemovePayment(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})

	multi := true
	_ = s.Apply(Update{MultiPayment: &multi})
	partial := 30.0
	_ = s.Apply(Update{PartialAmount: &partial})
	_ = s.AddPayment("pm-cash")

	if err := s.RemovePayment(5); !errors.Is(err, ErrPaymentOutOfRange) {
		t.Fatalf("expected ErrPaymentOutOfRange, got %v", err)
	}
	if err := s.RemovePayment(0); err != nil {
		t.Fatalf("remove payment: %v", err)
	}
	if snap := s.Snapshot(); len(snap.Payments) != 0 {
		t.Fatalf("expected empty plan, got %d payments", len(snap.Payments))
	}
}

func TestCashChangeIsDerivedAndNeverNegative(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Espumante", UnitPrice: 45.50, Quantity: 1})

	if err := s.AddPayment("pm-cash"); err != nil {
		t.Fatalf("select cash: %v", err)
	}

	received := 50.0
	_ = s.Apply(Update{CashReceived: &received})
	if snap := s.Snapshot(); !approx(snap.Change, 4.50) {
		t.Fatalf("expected change 4.50, got %.2f", snap.Change)
	}

	received = 40.0
	_ = s.Apply(Update{CashReceived: &received})
	if snap := s.Snapshot(); !approx(snap.Change, 0) {
		t.Fatalf("expected change 0 for underpayment, got %.2f", snap.Change)
	}
}

func TestChangeOnlyForCashMethod(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Espumante", UnitPrice: 45.50, Quantity: 1})

	received := 50.0
	_ = s.Apply(Update{CashReceived: &received})
	if err := s.AddPayment("pm-pix"); err != nil {
		t.Fatalf("select pix: %v", err)
	}
	if snap := s.Snapshot(); !approx(snap.Change, 0) {
		t.Fatalf("expected no change for pix, got %.2f", snap.Change)
	}
}

func TestInstallmentsResetOnNonCreditMethod(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 120, Quantity: 1})

	if err := s.AddPayment("pm-credit"); err != nil {
		t.Fatalf("select credit: %v", err)
	}
	n := 6
	if err := s.Apply(Update{Installments: &n}); err != nil {
		t.Fatalf("set installments: %v", err)
	}
	if snap := s.Snapshot(); snap.Installments != 6 {
		t.Fatalf("expected 6 installments on credit, got %d", snap.Installments)
	}

	if err := s.AddPayment("pm-pix"); err != nil {
		t.Fatalf("switch to pix: %v", err)
	}
	if snap := s.Snapshot(); snap.Installments != 1 {
		t.Fatalf("expected installments reset to 1 after switching to pix, got %d", snap.Installments)
	}
}

func TestInstallmentsRange(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 120, Quantity: 1})
	_ = s.AddPayment("pm-credit")

	for _, n := range []int{0, 13, -1} {
		count := n
		if err := s.Apply(Update{Installments: &count}); !errors.Is(err, ErrInstallmentsRange) {
			t.Fatalf("expected ErrInstallmentsRange for %d, got %v", n, err)
		}
	}

	snap := s.Snapshot()
	if len(snap.InstallmentPlan) != 12 {
		t.Fatalf("expected 12 installment options, got %d", len(snap.InstallmentPlan))
	}
	if !approx(snap.InstallmentPlan[11].PerCharge, 10) {
		t.Fatalf("expected 120/12 = 10 per charge, got %.2f", snap.InstallmentPlan[11].PerCharge)
	}
}

func TestModeSwitchDiscardsOtherModeState(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})

	multi := true
	_ = s.Apply(Update{MultiPayment: &multi})
	partial := 30.0
	_ = s.Apply(Update{PartialAmount: &partial})
	_ = s.AddPayment("pm-cash")

	single := false
	_ = s.Apply(Update{MultiPayment: &single})
	snap := s.Snapshot()
	if len(snap.Payments) != 0 {
		t.Fatalf("expected allocations discarded on switch to single, got %d", len(snap.Payments))
	}

	_ = s.AddPayment("pm-pix")
	_ = s.Apply(Update{MultiPayment: &multi})
	if snap := s.Snapshot(); snap.SelectedMethodID != "" {
		t.Fatalf("expected selection discarded on switch to split, got %q", snap.SelectedMethodID)
	}
}

func TestChannelSwitchResetsChannelDependentState(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})

	discount := 10.0
	fee := 8.0
	delivery := domain.ChannelDelivery
	_ = s.Apply(Update{Channel: &delivery, DeliveryFee: &fee, Discount: &discount})
	_ = s.AddPayment("pm-pix")

	counter := domain.ChannelCounter
	_ = s.Apply(Update{Channel: &counter})

	snap := s.Snapshot()
	if snap.Discount != 0 || snap.DeliveryFee != 0 {
		t.Fatalf("expected discount and fee reset, got %.2f / %.2f", snap.Discount, snap.DeliveryFee)
	}
	if snap.SelectedMethodID != "" {
		t.Fatalf("expected method selection reset, got %q", snap.SelectedMethodID)
	}
	if snap.IsDelivery {
		t.Fatal("counter channel must not be delivery")
	}
}

func TestDeliveryValidationGate(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})

	delivery := domain.ChannelDelivery
	_ = s.Apply(Update{Channel: &delivery})

	if v := s.Validate(); v.Valid || v.Reason != "delivery address needs street and number" {
		t.Fatalf("expected address gate, got valid=%v reason=%q", v.Valid, v.Reason)
	}

	addr := domain.DeliveryAddress{Street: "Rua Augusta", Number: "900", City: "São Paulo", State: "SP"}
	_ = s.Apply(Update{Address: &addr})
	if v := s.Validate(); v.Valid || v.Reason != "assign a delivery person" {
		t.Fatalf("expected courier gate, got valid=%v reason=%q", v.Valid, v.Reason)
	}

	courier := "dp-01"
	_ = s.Apply(Update{DeliveryPersonID: &courier})
	if v := s.Validate(); v.Valid || v.Reason != "select a payment method" {
		t.Fatalf("expected payment gate after delivery fields, got valid=%v reason=%q", v.Valid, v.Reason)
	}

	_ = s.AddPayment("pm-pix")
	if v := s.Validate(); !v.Valid {
		t.Fatalf("expected valid delivery draft, got reason %q", v.Reason)
	}
}

func TestStoreCreditNeedsCustomer(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})

	credit := domain.ChannelStoreCredit
	_ = s.Apply(Update{Channel: &credit})

	if v := s.Validate(); v.Valid || v.Reason != "store-credit sales need a customer" {
		t.Fatalf("expected customer gate, got valid=%v reason=%q", v.Valid, v.Reason)
	}

	s.LoadCustomer(&domain.Customer{ID: "cust-ana", Name: "Ana"})
	if v := s.Validate(); !v.Valid {
		t.Fatalf("expected valid store-credit draft without payment selection, got reason %q", v.Reason)
	}
}

func TestStoreCreditDeliverySubChannel(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})

	credit := domain.ChannelStoreCredit
	sub := domain.SubChannelDelivery
	_ = s.Apply(Update{Channel: &credit, SubChannel: &sub})

	if !s.IsDelivery() {
		t.Fatal("store-credit delivery leg must require delivery fields")
	}

	s.LoadCustomer(&domain.Customer{ID: "cust-ana", Name: "Ana", Address: map[string]any{
		"logradouro": "Avenida Paulista",
		"numero":     "1578",
		"localidade": "São Paulo",
		"uf":         "SP",
	}})
	courier := "dp-01"
	_ = s.Apply(Update{DeliveryPersonID: &courier})

	if v := s.Validate(); !v.Valid {
		t.Fatalf("expected valid draft, got reason %q", v.Reason)
	}

	sale, err := s.BuildSale("main-store")
	if err != nil {
		t.Fatalf("build sale: %v", err)
	}
	if sale.Channel != domain.ChannelDelivery {
		t.Fatalf("expected store-credit delivery to persist as delivery, got %s", sale.Channel)
	}
	if sale.PaymentMethod != domain.FiadoSlug {
		t.Fatalf("expected fiado payment method, got %q", sale.PaymentMethod)
	}
	if sale.Installments != 1 {
		t.Fatalf("store-credit sale must persist 1 installment, got %d", sale.Installments)
	}
	if sale.Address == nil || sale.Address.Street != "Avenida Paulista" {
		t.Fatalf("expected customer address on sale, got %+v", sale.Address)
	}
}

func TestStoreCreditCounterMapsToCounter(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})

	credit := domain.ChannelStoreCredit
	_ = s.Apply(Update{Channel: &credit})
	s.LoadCustomer(&domain.Customer{ID: "cust-ana", Name: "Ana"})

	sale, err := s.BuildSale("main-store")
	if err != nil {
		t.Fatalf("build sale: %v", err)
	}
	if sale.Channel != domain.ChannelCounter {
		t.Fatalf("expected counter channel, got %s", sale.Channel)
	}
	if sale.CustomerID != "cust-ana" {
		t.Fatalf("expected customer on sale, got %q", sale.CustomerID)
	}
}

func TestSubmitInFlightGuard(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})
	_ = s.AddPayment("pm-pix")

	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("first begin: %v", err)
	}
	if err := s.BeginSubmit(); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	s.FinishSubmit(false)
	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("begin after failed finish: %v", err)
	}
}

func TestBeginSubmitRejectsInvalidDraft(t *testing.T) {
	s := NewSession("chk-empty", testCatalog())
	if err := s.BeginSubmit(); !errors.Is(err, ErrDraftInvalid) {
		t.Fatalf("expected ErrDraftInvalid for empty cart, got %v", err)
	}
}

func TestFinishSubmitResetOnSuccessPreserveOnFailure(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Vinho Tinto", UnitPrice: 50, Quantity: 2})
	discount := 5.0
	_ = s.Apply(Update{Discount: &discount})
	_ = s.AddPayment("pm-pix")

	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	s.FinishSubmit(false)

	snap := s.Snapshot()
	if len(snap.Items) != 1 || snap.Discount != 5 || snap.SelectedMethodID != "pm-pix" {
		t.Fatalf("expected draft preserved after failure, got %+v", snap)
	}

	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("second begin: %v", err)
	}
	s.FinishSubmit(true)

	snap = s.Snapshot()
	if len(snap.Items) != 0 || snap.Discount != 0 || snap.SelectedMethodID != "" {
		t.Fatalf("expected draft reset after success, got %+v", snap)
	}
	if snap.Channel != domain.ChannelCounter {
		t.Fatalf("expected channel back to counter, got %s", snap.Channel)
	}
}

func TestFillFromLookupNeverTouchesNumber(t *testing.T) {
	s := NewSession("chk-addr", testCatalog())

	addr := domain.DeliveryAddress{Number: "42", Complement: "Fundos"}
	_ = s.Apply(Update{Address: &addr})

	focus := s.FillFromLookup(domain.AddressFragment{
		PostalCode:   "01310-100",
		Street:       "Avenida Paulista",
		Neighborhood: "Bela Vista",
		City:         "São Paulo",
		State:        "SP",
	})
	if focus != FocusNumberField {
		t.Fatalf("expected focus hint %q, got %q", FocusNumberField, focus)
	}

	snap := s.Snapshot()
	if snap.Address.Number != "42" || snap.Address.Complement != "Fundos" {
		t.Fatalf("lookup must not overwrite number or complement, got %+v", snap.Address)
	}
	if snap.Address.Street != "Avenida Paulista" || snap.Address.City != "São Paulo" {
		t.Fatalf("lookup fields not merged, got %+v", snap.Address)
	}
}

func TestTotalNeverNegative(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Taça", UnitPrice: 10, Quantity: 1})

	discount := 25.0
	_ = s.Apply(Update{Discount: &discount})
	if snap := s.Snapshot(); snap.Total != 0 {
		t.Fatalf("expected total floored at 0, got %.2f", snap.Total)
	}
}

func TestBuildSaleSingleCash(t *testing.T) {
	s := sessionWithItems(t, testCatalog(), domain.CartItem{VariantID: "v1", Name: "Espumante", UnitPrice: 45.50, Quantity: 1})
	_ = s.AddPayment("pm-cash")
	received := 50.0
	_ = s.Apply(Update{CashReceived: &received})

	sale, err := s.BuildSale("main-store")
	if err != nil {
		t.Fatalf("build sale: %v", err)
	}
	if sale.PaymentMethodID != "pm-cash" || sale.PaymentMethod != "cash" {
		t.Fatalf("unexpected method on sale: %q/%q", sale.PaymentMethodID, sale.PaymentMethod)
	}
	if !approx(sale.CashReceived, 50) || !approx(sale.Change, 4.50) {
		t.Fatalf("expected received 50 change 4.50, got %.2f / %.2f", sale.CashReceived, sale.Change)
	}
}
