package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ALLOWED_ORIGIN", "DATABASE_URL", "REDIS_ADDR", "DEFAULT_STORE_ID",
		"CATALOG_TTL_SECONDS", "AUTH_SECRET", "ACCESS_TOKEN_TTL_MINUTES",
		"CEP_BASE_URL", "FISCAL_BASE_URL", "FISCAL_PRINT_DELAY_MS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
	if cfg.StoreID != "main-store" {
		t.Fatalf("unexpected store id %q", cfg.StoreID)
	}
	if cfg.CatalogTTLSeconds != 300 {
		t.Fatalf("unexpected catalog ttl %d", cfg.CatalogTTLSeconds)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("unexpected token ttl %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.CepBaseURL != "https://viacep.com.br/ws" {
		t.Fatalf("unexpected cep base url %q", cfg.CepBaseURL)
	}
	if cfg.FiscalPrintDelayMS != 600 {
		t.Fatalf("unexpected print delay %d", cfg.FiscalPrintDelayMS)
	}
}

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("empty AUTH_SECRET must stay empty so startup validation can reject it, got %q", cfg.AuthSecret)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_STORE_ID", "loja-centro")
	t.Setenv("CATALOG_TTL_SECONDS", "60")
	t.Setenv("FISCAL_PRINT_DELAY_MS", "0")
	t.Setenv("FISCAL_BASE_URL", " https://fiscal.example ")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("unexpected port %q", cfg.Port)
	}
	if cfg.StoreID != "loja-centro" {
		t.Fatalf("unexpected store id %q", cfg.StoreID)
	}
	if cfg.CatalogTTLSeconds != 60 {
		t.Fatalf("unexpected catalog ttl %d", cfg.CatalogTTLSeconds)
	}
	if cfg.FiscalPrintDelayMS != 0 {
		t.Fatalf("zero print delay must be honored, got %d", cfg.FiscalPrintDelayMS)
	}
	if cfg.FiscalBaseURL != "https://fiscal.example" {
		t.Fatalf("fiscal base url not trimmed: %q", cfg.FiscalBaseURL)
	}
}

func TestLoadRejectsGarbageNumbers(t *testing.T) {
	t.Setenv("CATALOG_TTL_SECONDS", "not-a-number")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-5")

	cfg := Load()
	if cfg.CatalogTTLSeconds != 300 {
		t.Fatalf("garbage ttl must fall back to default, got %d", cfg.CatalogTTLSeconds)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("negative token ttl must fall back to default, got %d", cfg.AccessTokenTTLMinutes)
	}
}
