package receipt

import (
	"encoding/base64"
	"fmt"
	"strings"

	"adegamanager/backend/internal/domain"
)

const (
	ModeManagerial = "managerial"
	ModeFiscal     = "fiscal"
)

// Render builds the printable receipt for a sale in the given mode. The
// managerial layout is always available; the fiscal layout requires an
// authorized document and carries its key and scan-code reference.
func Render(sale domain.Sale, mode string) domain.ReceiptResponse {
	lines := []string{
		"Adega Manager",
		"========================",
	}
	if mode == ModeFiscal && sale.Fiscal != nil {
		lines = append(lines,
			"NFC-e "+sale.Fiscal.Number+" Serie "+sale.Fiscal.Series,
			"Chave: "+sale.Fiscal.DocumentKey,
		)
	} else {
		lines = append(lines, "RECIBO GERENCIAL")
	}
	lines = append(lines,
		"Venda: "+sale.ID,
		"Data: "+sale.CreatedAt.Format("2006-01-02 15:04:05"),
		"Canal: "+string(sale.Channel),
		"------------------------",
	)

	for _, item := range sale.Items {
		lines = append(lines, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
		lines = append(lines, fmt.Sprintf("  R$ %.2f", item.UnitPrice*float64(item.Quantity)))
	}
	lines = append(lines,
		"------------------------",
		fmt.Sprintf("Subtotal : R$ %.2f", sale.Subtotal),
		fmt.Sprintf("Desconto : R$ %.2f", sale.Discount),
	)
	if sale.DeliveryFee > 0 {
		lines = append(lines, fmt.Sprintf("Entrega  : R$ %.2f", sale.DeliveryFee))
	}
	lines = append(lines, fmt.Sprintf("Total    : R$ %.2f", sale.Total))

	if len(sale.Allocations) > 0 {
		lines = append(lines, "------------------------")
		for _, alloc := range sale.Allocations {
			label := alloc.MethodName
			if alloc.Installments > 1 {
				label = fmt.Sprintf("%s %dx", alloc.MethodName, alloc.Installments)
			}
			lines = append(lines, fmt.Sprintf("%-12s R$ %.2f", label, alloc.Amount))
		}
	} else if sale.PaymentMethod != "" {
		lines = append(lines, "Pagamento: "+sale.PaymentMethod)
		if sale.Installments > 1 {
			lines = append(lines, fmt.Sprintf("Parcelas : %dx de R$ %.2f", sale.Installments, sale.Total/float64(sale.Installments)))
		}
		if sale.CashReceived > 0 {
			lines = append(lines,
				fmt.Sprintf("Recebido : R$ %.2f", sale.CashReceived),
				fmt.Sprintf("Troco    : R$ %.2f", sale.Change),
			)
		}
	}

	if sale.Address != nil {
		lines = append(lines,
			"------------------------",
			"Entrega: "+sale.Address.Street+", "+sale.Address.Number,
			sale.Address.Neighborhood+" - "+sale.Address.City+"/"+sale.Address.State,
		)
		if sale.Address.ReferencePoint != "" {
			lines = append(lines, "Ref: "+sale.Address.ReferencePoint)
		}
	}
	if sale.TaxIDOnInvoice != "" {
		lines = append(lines, "CPF/CNPJ: "+sale.TaxIDOnInvoice)
	}
	if mode == ModeFiscal && sale.Fiscal != nil && sale.Fiscal.ScanCodeURL != "" {
		lines = append(lines, "Consulte: "+sale.Fiscal.ScanCodeURL)
	}
	lines = append(lines,
		"========================",
		"Obrigado, volte sempre",
		"",
	)

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	return domain.ReceiptResponse{
		SaleID:       sale.ID,
		Mode:         mode,
		EscposBase64: base64.StdEncoding.EncodeToString(escpos),
		PreviewText:  strings.Join(lines, "\n"),
		FileName:     fmt.Sprintf("receipt-%s.bin", sale.ID),
	}
}
