package receipt

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"sync"
	"time"

	"adegamanager/backend/internal/domain"
	"adegamanager/backend/internal/fiscal"
)

// ErrEmissionDisabled is returned when no fiscal gateway is configured.
var ErrEmissionDisabled = errors.New("fiscal emission is not configured")

// Printer pushes a rendered ESC/POS payload to the physical printer (or a
// bridge in front of it). Print failures are surfaced as warnings, never
// as checkout failures.
type Printer interface {
	Print(payload []byte) error
}

// Coordinator decides which receipt layout a sale prints with. Every sale
// starts on the managerial layout; once the fiscal document comes back
// authorized the sale flips to the fiscal layout and a print is scheduled
// after a short rendering delay so the scan code is part of the output.
type Coordinator struct {
	emitter    fiscal.Emitter
	printer    Printer
	printDelay time.Duration

	mu    sync.Mutex
	modes map[string]string
}

func NewCoordinator(emitter fiscal.Emitter, printer Printer, printDelay time.Duration) *Coordinator {
	return &Coordinator{
		emitter:    emitter,
		printer:    printer,
		printDelay: printDelay,
		modes:      make(map[string]string),
	}
}

// Mode reports the active receipt layout for a sale.
func (c *Coordinator) Mode(saleID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mode, ok := c.modes[saleID]; ok {
		return mode
	}
	return ModeManagerial
}

// EmitFiscalDocument requests emission for an already persisted sale. On
// authorization the sale switches to the fiscal layout and the fiscal
// receipt is printed after the configured delay. Any other outcome keeps
// the managerial layout active.
func (c *Coordinator) EmitFiscalDocument(ctx context.Context, sale domain.Sale, taxID string) (domain.FiscalDocument, error) {
	if c.emitter == nil {
		return domain.FiscalDocument{}, ErrEmissionDisabled
	}
	doc, err := c.emitter.Emit(ctx, sale, taxID)
	if err != nil {
		return doc, err
	}
	if doc.Status != domain.FiscalAuthorized {
		return doc, nil
	}

	c.mu.Lock()
	c.modes[sale.ID] = ModeFiscal
	c.mu.Unlock()

	printed := sale
	printed.Fiscal = &doc
	c.schedulePrint(printed)
	return doc, nil
}

// Print renders the sale in its active layout and sends it to the
// printer. The caller treats an error as a warning.
func (c *Coordinator) Print(sale domain.Sale) (domain.ReceiptResponse, error) {
	rendered := Render(sale, c.Mode(sale.ID))
	if c.printer == nil {
		return rendered, nil
	}
	payload, err := base64.StdEncoding.DecodeString(rendered.EscposBase64)
	if err != nil {
		return rendered, err
	}
	if err := c.printer.Print(payload); err != nil {
		return rendered, err
	}
	return rendered, nil
}

// Receipt renders without touching the printer.
func (c *Coordinator) Receipt(sale domain.Sale) domain.ReceiptResponse {
	return Render(sale, c.Mode(sale.ID))
}

// Forget drops the per-sale layout state, typically after the sale's
// checkout surface is torn down.
func (c *Coordinator) Forget(saleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.modes, saleID)
}

func (c *Coordinator) schedulePrint(sale domain.Sale) {
	print := func() {
		if _, err := c.Print(sale); err != nil {
			log.Printf("[receipt] WARN: fiscal print failed sale=%s: %v", sale.ID, err)
		}
	}
	if c.printDelay <= 0 {
		print()
		return
	}
	time.AfterFunc(c.printDelay, print)
}
