package checkout

import (
	"log"
	"strings"

	"adegamanager/backend/internal/domain"
)

// storeCreditSlugs are the catalog slugs accepted as a dedicated
// store-credit method.
var storeCreditSlugs = map[string]bool{
	"fiado":         true,
	"account":       true,
	"on_account":    true,
	"crediario":     true,
	"conta_cliente": true,
}

// methodStrategy inspects the catalog and returns the store-credit method
// it recognizes, or nil. Strategies are evaluated in order; the first hit
// wins.
type methodStrategy func(catalog []domain.PaymentMethodDescriptor) *domain.PaymentMethodDescriptor

var storeCreditChain = []methodStrategy{
	matchDedicatedSlug,
	matchDisguisedAlias,
}

// ResolveStoreCredit resolves the semantic store-credit ("fiado") method
// against the session catalog. It returns nil when no strategy matches,
// which the validation gate treats as a configuration error rather than a
// user-input error.
func ResolveStoreCredit(catalog []domain.PaymentMethodDescriptor) *domain.PaymentMethodDescriptor {
	for _, strategy := range storeCreditChain {
		if method := strategy(catalog); method != nil {
			return method
		}
	}
	return nil
}

func matchDedicatedSlug(catalog []domain.PaymentMethodDescriptor) *domain.PaymentMethodDescriptor {
	for _, method := range catalog {
		slug := strings.ToLower(strings.TrimSpace(method.Slug))
		if storeCreditSlugs[slug] || strings.Contains(strings.ToLower(method.Name), "fiado") {
			found := method
			found.Slug = domain.FiadoSlug
			return &found
		}
	}
	return nil
}

// matchDisguisedAlias accepts a generic "other"/code-99 method as a
// stand-in so a misconfigured catalog does not block store-credit sales
// entirely. The alias is renamed for display and its slug forced to the
// canonical value.
func matchDisguisedAlias(catalog []domain.PaymentMethodDescriptor) *domain.PaymentMethodDescriptor {
	for _, method := range catalog {
		slug := strings.ToLower(strings.TrimSpace(method.Slug))
		if method.Code == "99" || slug == "other" {
			log.Printf("[checkout] WARN: no dedicated fiado method in catalog, aliasing method id=%s slug=%s", method.ID, method.Slug)
			aliased := method
			aliased.Slug = domain.FiadoSlug
			aliased.Name = method.Name + " (fiado)"
			return &aliased
		}
	}
	return nil
}

// findMethod looks a descriptor up by id in the session catalog.
func findMethod(catalog []domain.PaymentMethodDescriptor, id string) *domain.PaymentMethodDescriptor {
	for _, method := range catalog {
		if method.ID == id {
			found := method
			return &found
		}
	}
	return nil
}

// isCreditMethod reports whether a method participates in installment
// plans. The catalog is external, so both the slug and the type are
// checked.
func isCreditMethod(method *domain.PaymentMethodDescriptor) bool {
	if method == nil {
		return false
	}
	return strings.Contains(strings.ToLower(method.Slug), "credit") || method.Type == domain.MethodTypeCredit
}

func isCashMethod(method *domain.PaymentMethodDescriptor) bool {
	if method == nil {
		return false
	}
	slug := strings.ToLower(method.Slug)
	return method.Type == domain.MethodTypeCash || slug == "cash" || slug == "dinheiro"
}
