package checkout

import (
	"testing"

	"adegamanager/backend/internal/domain"
)

func TestResolveStoreCreditDedicatedSlug(t *testing.T) {
	for _, slug := range []string{"fiado", "account", "on_account", "crediario", "conta_cliente"} {
		catalog := []domain.PaymentMethodDescriptor{
			{ID: "pm-pix", Name: "Pix", Slug: "pix", Code: "17"},
			{ID: "pm-sc", Name: "Conta", Slug: slug, Code: "05"},
		}
		method := ResolveStoreCredit(catalog)
		if method == nil {
			t.Fatalf("expected slug %q to resolve", slug)
		}
		if method.ID != "pm-sc" {
			t.Fatalf("resolved wrong method %q for slug %q", method.ID, slug)
		}
		if method.Slug != domain.FiadoSlug {
			t.Fatalf("expected canonical slug, got %q", method.Slug)
		}
	}
}

func TestResolveStoreCreditByName(t *testing.T) {
	catalog := []domain.PaymentMethodDescriptor{
		{ID: "pm-x", Name: "Venda Fiado", Slug: "custom_tender", Code: "05"},
	}
	method := ResolveStoreCredit(catalog)
	if method == nil || method.ID != "pm-x" {
		t.Fatalf("expected name containing fiado to resolve, got %+v", method)
	}
	if method.Slug != domain.FiadoSlug {
		t.Fatalf("expected canonical slug, got %q", method.Slug)
	}
}

func TestResolveStoreCreditAliasFallback(t *testing.T) {
	catalog := []domain.PaymentMethodDescriptor{
		{ID: "pm-pix", Name: "Pix", Slug: "pix", Code: "17"},
		{ID: "pm-other", Name: "Outros", Slug: "other", Code: "99"},
	}
	method := ResolveStoreCredit(catalog)
	if method == nil || method.ID != "pm-other" {
		t.Fatalf("expected other/99 alias to resolve, got %+v", method)
	}
	if method.Slug != domain.FiadoSlug {
		t.Fatalf("alias must carry the canonical slug, got %q", method.Slug)
	}
	if method.Name != "Outros (fiado)" {
		t.Fatalf("alias must be renamed for display, got %q", method.Name)
	}
}

func TestResolveStoreCreditDedicatedWinsOverAlias(t *testing.T) {
	catalog := []domain.PaymentMethodDescriptor{
		{ID: "pm-other", Name: "Outros", Slug: "other", Code: "99"},
		{ID: "pm-fiado", Name: "Fiado", Slug: "fiado", Code: "05"},
	}
	method := ResolveStoreCredit(catalog)
	if method == nil || method.ID != "pm-fiado" {
		t.Fatalf("dedicated method must win over the alias, got %+v", method)
	}
}

func TestResolveStoreCreditUnresolvable(t *testing.T) {
	catalog := []domain.PaymentMethodDescriptor{
		{ID: "pm-pix", Name: "Pix", Slug: "pix", Code: "17"},
		{ID: "pm-cash", Name: "Dinheiro", Slug: "cash", Code: "01"},
	}
	if method := ResolveStoreCredit(catalog); method != nil {
		t.Fatalf("expected nil for catalog without store credit, got %+v", method)
	}
}

func TestStoreCreditConfigErrorSurfacesAtGate(t *testing.T) {
	catalog := []domain.PaymentMethodDescriptor{
		{ID: "pm-pix", Name: "Pix", Slug: "pix", Code: "17"},
	}
	s := sessionWithItems(t, catalog, domain.CartItem{VariantID: "v1", Name: "Vinho", UnitPrice: 30, Quantity: 1})
	credit := domain.ChannelStoreCredit
	_ = s.Apply(Update{Channel: &credit})
	s.LoadCustomer(&domain.Customer{ID: "cust-ana", Name: "Ana"})

	v := s.Validate()
	if v.Valid {
		t.Fatal("expected invalid draft when no store-credit method resolves")
	}
	if !v.ConfigError {
		t.Fatal("missing fiado method must be flagged as a configuration error")
	}
	if v.Reason != ErrFiadoMethodMissing.Error() {
		t.Fatalf("unexpected reason %q", v.Reason)
	}
}
