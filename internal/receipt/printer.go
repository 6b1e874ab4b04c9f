package receipt

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"time"
)

// BridgePrinter posts ESC/POS payloads to a local printer bridge, the
// small daemon that owns the USB/serial connection to the thermal
// printer.
type BridgePrinter struct {
	url        string
	httpClient *http.Client
}

func NewBridgePrinter(url string) *BridgePrinter {
	return &BridgePrinter{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *BridgePrinter) Print(payload []byte) error {
	resp, err := p.httpClient.Post(p.url, "application/octet-stream", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("printer bridge returned status %d", resp.StatusCode)
	}
	return nil
}

// LogPrinter is the dev fallback when no bridge is configured.
type LogPrinter struct{}

func (LogPrinter) Print(payload []byte) error {
	log.Printf("[printer] %d bytes spooled (no bridge configured)", len(payload))
	return nil
}
