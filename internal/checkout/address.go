package checkout

import (
	"strings"

	"adegamanager/backend/internal/domain"
)

// FocusNumberField is the focus hint returned after a postal-code lookup:
// lookups never return a house number, so input moves straight to it.
const FocusNumberField = "number"

// addressFromCustomer maps a loosely-typed customer address record onto
// the canonical delivery-address shape. Structured fields win; a bare
// string is treated as the street line.
func addressFromCustomer(raw any) domain.DeliveryAddress {
	switch v := raw.(type) {
	case nil:
		return domain.DeliveryAddress{}
	case string:
		return domain.DeliveryAddress{Street: strings.TrimSpace(v)}
	case domain.DeliveryAddress:
		return v
	case *domain.DeliveryAddress:
		if v == nil {
			return domain.DeliveryAddress{}
		}
		return *v
	case map[string]any:
		return domain.DeliveryAddress{
			PostalCode:     pickString(v, "postal_code", "cep", "zip"),
			Street:         pickString(v, "street", "logradouro", "rua", "address"),
			Number:         pickString(v, "number", "numero"),
			Neighborhood:   pickString(v, "neighborhood", "bairro"),
			Complement:     pickString(v, "complement", "complemento"),
			City:           pickString(v, "city", "cidade", "localidade"),
			State:          pickString(v, "state", "uf", "estado"),
			ReferencePoint: pickString(v, "reference_point", "referencia", "ponto_referencia"),
		}
	default:
		return domain.DeliveryAddress{}
	}
}

// mergeLookup fills the lookup-provided fields of an address, leaving the
// number, complement and reference untouched. Existing values are
// overwritten only when the fragment carries a replacement.
func mergeLookup(current domain.DeliveryAddress, frag domain.AddressFragment) domain.DeliveryAddress {
	merged := current
	if frag.PostalCode != "" {
		merged.PostalCode = frag.PostalCode
	}
	if frag.Street != "" {
		merged.Street = frag.Street
	}
	if frag.Neighborhood != "" {
		merged.Neighborhood = frag.Neighborhood
	}
	if frag.City != "" {
		merged.City = frag.City
	}
	if frag.State != "" {
		merged.State = frag.State
	}
	return merged
}

func pickString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if raw, ok := m[key]; ok {
			if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
