package checkout

import (
	"math"
	"strings"

	"adegamanager/backend/internal/domain"
)

// Validation is the gate result. ConfigError distinguishes a catalog
// misconfiguration (not fixable from the form) from ordinary user-input
// problems.
type Validation struct {
	Valid       bool
	Reason      string
	ConfigError bool
}

// Validate runs the submission gate over the current draft. Checks
// short-circuit on the first failure; callers never attempt submission
// while Valid is false.
func (s *Session) Validate() Validation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

func (s *Session) validateLocked() Validation {
	if len(s.items) == 0 {
		return invalid("add at least one item to the cart")
	}

	if s.isDeliveryLocked() {
		if strings.TrimSpace(s.address.Street) == "" || strings.TrimSpace(s.address.Number) == "" {
			return invalid("delivery address needs street and number")
		}
		if s.deliveryPersonID == "" {
			return invalid("assign a delivery person")
		}
	}

	if s.channel == domain.ChannelStoreCredit {
		if s.customer == nil || s.customer.ID == "" {
			return invalid("store-credit sales need a customer")
		}
		if ResolveStoreCredit(s.catalog) == nil {
			return Validation{Reason: ErrFiadoMethodMissing.Error(), ConfigError: true}
		}
		// Store-credit sales carry no immediate payment, so the plan
		// checks below do not apply.
		return Validation{Valid: true}
	}

	if s.multiPayment {
		if len(s.payments) == 0 {
			return invalid("add at least one payment")
		}
		if math.Abs(s.totalLocked()-s.paidLocked()) > AmountTolerance {
			return invalid("payments do not add up to the sale total")
		}
		return Validation{Valid: true}
	}

	if s.selectedMethodID == "" {
		return invalid("select a payment method")
	}
	return Validation{Valid: true}
}

func invalid(reason string) Validation {
	return Validation{Reason: reason}
}
