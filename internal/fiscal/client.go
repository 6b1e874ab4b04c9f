// Package fiscal talks to the consumer-invoice (NFC-e) emission gateway.
// Emission is a post-sale step: the sale is already persisted before any
// request leaves this package, and a rejected or failed emission leaves
// the sale untouched on the managerial receipt.
package fiscal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"adegamanager/backend/internal/domain"
)

var ErrRejected = errors.New("fiscal document rejected by the authority")

type Emitter interface {
	Emit(ctx context.Context, sale domain.Sale, taxID string) (domain.FiscalDocument, error)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL string, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type emitRequest struct {
	SaleID string  `json:"sale_id"`
	Total  float64 `json:"total"`
	TaxID  string  `json:"tax_id,omitempty"`
}

type emitResponse struct {
	Status                string `json:"status"`
	DocumentKey           string `json:"document_key"`
	PDFURL                string `json:"pdf_url"`
	ScanCodeURL           string `json:"scan_code_url"`
	Number                string `json:"number"`
	Series                string `json:"series"`
	AuthorizationProtocol string `json:"authorization_protocol"`
	Message               string `json:"message"`
}

func (c *Client) Emit(ctx context.Context, sale domain.Sale, taxID string) (domain.FiscalDocument, error) {
	body, err := json.Marshal(emitRequest{SaleID: sale.ID, Total: sale.Total, TaxID: taxID})
	if err != nil {
		return domain.FiscalDocument{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/invoices", bytes.NewReader(body))
	if err != nil {
		return domain.FiscalDocument{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.FiscalDocument{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return domain.FiscalDocument{}, fmt.Errorf("fiscal gateway returned status %d", resp.StatusCode)
	}

	var payload emitResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.FiscalDocument{}, err
	}

	doc := domain.FiscalDocument{
		Status:                domain.FiscalStatus(payload.Status),
		DocumentKey:           payload.DocumentKey,
		PDFURL:                payload.PDFURL,
		ScanCodeURL:           payload.ScanCodeURL,
		Number:                payload.Number,
		Series:                payload.Series,
		AuthorizationProtocol: payload.AuthorizationProtocol,
	}
	if doc.Status == "" {
		doc.Status = domain.FiscalPending
	}
	if doc.Status == domain.FiscalRejected {
		return doc, fmt.Errorf("%w: %s", ErrRejected, payload.Message)
	}
	return doc, nil
}
