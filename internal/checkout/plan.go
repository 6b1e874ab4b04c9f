package checkout

import (
	"adegamanager/backend/internal/domain"
)

// AddPayment records a payment by method id. In single mode it only
// selects the method, replacing any prior selection. In split mode it
// appends an allocation: the explicit partial-amount input when one was
// typed, otherwise the remaining unpaid balance.
func (s *Session) AddPayment(methodID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	method := findMethod(s.catalog, methodID)
	if method == nil {
		return ErrUnknownMethod
	}

	if !s.multiPayment {
		s.selectedMethodID = method.ID
		s.resetInstallmentsLocked()
		return nil
	}

	amountToAdd := s.partialAmount
	if amountToAdd <= 0 {
		amountToAdd = s.remainingLocked()
	}
	if amountToAdd <= 0 {
		return ErrPaymentAmount
	}
	if s.paidLocked()+amountToAdd > s.totalLocked()+AmountTolerance {
		return ErrPaymentExceedsTotal
	}

	installments := 1
	if isCreditMethod(method) {
		installments = s.installments
	}
	s.payments = append(s.payments, domain.PaymentAllocation{
		MethodID:     method.ID,
		MethodName:   method.Name,
		MethodCode:   method.Code,
		Amount:       amountToAdd,
		Installments: installments,
	})
	s.partialAmount = 0
	s.selectedMethodID = ""
	return nil
}

// RemovePayment splices an allocation out of the plan; the remaining
// balance is recomputed on the next read.
func (s *Session) RemovePayment(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.payments) {
		return ErrPaymentOutOfRange
	}
	s.payments = append(s.payments[:index], s.payments[index+1:]...)
	return nil
}

// setMultiPaymentLocked toggles split mode. The two modes are mutually
// exclusive and never merged: toggling always discards the allocation
// list and any single-mode selection.
func (s *Session) setMultiPaymentLocked(multi bool) {
	s.multiPayment = multi
	s.payments = nil
	s.selectedMethodID = ""
	s.partialAmount = 0
	s.installments = 1
}

func (s *Session) paidLocked() float64 {
	paid := 0.0
	for _, allocation := range s.payments {
		paid += allocation.Amount
	}
	return paid
}

func (s *Session) remainingLocked() float64 {
	remaining := s.totalLocked() - s.paidLocked()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// changeLocked derives cash change. It is never stored, never negative,
// and only meaningful when the active single-mode method is cash.
func (s *Session) changeLocked() float64 {
	if s.multiPayment {
		return 0
	}
	if !isCashMethod(findMethod(s.catalog, s.selectedMethodID)) {
		return 0
	}
	change := s.cashReceived - s.totalLocked()
	if change < 0 {
		return 0
	}
	return change
}

// resetInstallmentsLocked drops the installment selection back to 1
// whenever the active method is not credit-type, so a stale
// multi-installment plan never survives a method switch.
func (s *Session) resetInstallmentsLocked() {
	if s.multiPayment {
		return
	}
	if !isCreditMethod(findMethod(s.catalog, s.selectedMethodID)) {
		s.installments = 1
	}
}

func (s *Session) installmentOptionsLocked() []domain.InstallmentOption {
	total := s.totalLocked()
	options := make([]domain.InstallmentOption, 0, maxInstallments)
	for n := 1; n <= maxInstallments; n++ {
		options = append(options, domain.InstallmentOption{
			Count:     n,
			PerCharge: total / float64(n),
		})
	}
	return options
}
