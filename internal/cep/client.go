// Package cep resolves Brazilian postal codes into partial addresses
// through a ViaCEP-compatible HTTP service. Lookups are best-effort: a
// failure never blocks checkout, it only skips the address pre-fill.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"adegamanager/backend/internal/domain"
)

var (
	ErrInvalidCode = errors.New("postal code must have 8 digits")
	ErrNotFound    = errors.New("no address found for postal code")
)

type Lookup interface {
	Lookup(ctx context.Context, code string) (domain.AddressFragment, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Normalize strips formatting from a postal code, keeping digits only.
func Normalize(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c *Client) Lookup(ctx context.Context, code string) (domain.AddressFragment, error) {
	digits := Normalize(code)
	if len(digits) != 8 {
		return domain.AddressFragment{}, ErrInvalidCode
	}

	url := fmt.Sprintf("%s/%s/json/", c.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.AddressFragment{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.AddressFragment{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.AddressFragment{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return domain.AddressFragment{}, fmt.Errorf("postal lookup returned status %d", resp.StatusCode)
	}

	var payload struct {
		CEP        string `json:"cep"`
		Logradouro string `json:"logradouro"`
		Bairro     string `json:"bairro"`
		Localidade string `json:"localidade"`
		UF         string `json:"uf"`
		Erro       bool   `json:"erro"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.AddressFragment{}, err
	}
	if payload.Erro {
		return domain.AddressFragment{}, ErrNotFound
	}

	return domain.AddressFragment{
		PostalCode:   payload.CEP,
		Street:       payload.Logradouro,
		Neighborhood: payload.Bairro,
		City:         payload.Localidade,
		State:        payload.UF,
	}, nil
}
