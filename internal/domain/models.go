package domain

import "time"

// SaleChannel identifies how a sale is fulfilled and settled.
type SaleChannel string

const (
	ChannelCounter     SaleChannel = "counter"
	ChannelDelivery    SaleChannel = "delivery"
	ChannelStoreCredit SaleChannel = "store_credit"
)

// StoreCreditSubChannel narrows a store-credit sale to the fulfillment leg
// it rides on. Only meaningful when the channel is store_credit.
type StoreCreditSubChannel string

const (
	SubChannelCounter  StoreCreditSubChannel = "counter"
	SubChannelDelivery StoreCreditSubChannel = "delivery"
)

type CartItem struct {
	VariantID string  `json:"variant_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type DeliveryAddress struct {
	PostalCode     string `json:"postal_code"`
	Street         string `json:"street"`
	Number         string `json:"number"`
	Neighborhood   string `json:"neighborhood"`
	Complement     string `json:"complement,omitempty"`
	City           string `json:"city"`
	State          string `json:"state"`
	ReferencePoint string `json:"reference_point,omitempty"`
}

// PaymentMethodDescriptor is one entry of the external payment-method
// catalog. The catalog is fetched once per checkout session and treated as
// immutable for the session's duration.
type PaymentMethodDescriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Code string `json:"code"`
	Type string `json:"type"`
}

const (
	MethodTypeCash        = "cash"
	MethodTypeCredit      = "credit"
	MethodTypeDebit       = "debit"
	MethodTypePix         = "pix"
	MethodTypeStoreCredit = "store_credit"
	MethodTypeOther       = "other"
)

// FiadoSlug is the canonical slug for the store-credit payment method. The
// resolver forces aliased methods onto this slug so downstream reporting
// never sees a disguised "other" tender on a fiado sale.
const FiadoSlug = "fiado"

type PaymentAllocation struct {
	MethodID     string  `json:"method_id"`
	MethodName   string  `json:"method_name"`
	MethodCode   string  `json:"method_code"`
	Amount       float64 `json:"amount"`
	Installments int     `json:"installments"`
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	TaxID string `json:"tax_id,omitempty"`
	// Address is a loosely-typed record from the customer collaborator: it
	// may be a bare string (the street line) or a structured object with
	// inconsistent field naming. The address resolver normalizes it.
	Address any `json:"address,omitempty"`
}

// AddressFragment is the partial address returned by the postal-code
// lookup collaborator. Lookups never return a house number.
type AddressFragment struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type DeliveryPerson struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Active bool   `json:"active"`
}

// InstallmentOption is one of the 1..12 entries offered for credit-card
// payments; PerCharge is the sale total divided by Count.
type InstallmentOption struct {
	Count     int     `json:"count"`
	PerCharge float64 `json:"per_charge"`
}

type FiscalStatus string

const (
	FiscalPending    FiscalStatus = "pending"
	FiscalAuthorized FiscalStatus = "authorized"
	FiscalRejected   FiscalStatus = "rejected"
)

type FiscalDocument struct {
	Status                FiscalStatus `json:"status"`
	DocumentKey           string       `json:"document_key,omitempty"`
	PDFURL                string       `json:"pdf_url,omitempty"`
	ScanCodeURL           string       `json:"scan_code_url,omitempty"`
	Number                string       `json:"number,omitempty"`
	Series                string       `json:"series,omitempty"`
	AuthorizationProtocol string       `json:"authorization_protocol,omitempty"`
}

// Sale is the persisted record produced by a successful submission. The
// store-credit channel never reaches persistence as such: its two
// sub-channels map onto counter/delivery with the payment method tagged
// fiado.
type Sale struct {
	ID               string              `json:"id"`
	StoreID          string              `json:"store_id"`
	Channel          SaleChannel         `json:"channel"`
	Items            []CartItem          `json:"items"`
	Subtotal         float64             `json:"subtotal"`
	Discount         float64             `json:"discount"`
	DeliveryFee      float64             `json:"delivery_fee"`
	Total            float64             `json:"total"`
	CustomerID       string              `json:"customer_id,omitempty"`
	Address          *DeliveryAddress    `json:"address,omitempty"`
	PaymentMethodID  string              `json:"payment_method_id,omitempty"`
	PaymentMethod    string              `json:"payment_method,omitempty"`
	Allocations      []PaymentAllocation `json:"allocations,omitempty"`
	Installments     int                 `json:"installments"`
	CashReceived     float64             `json:"cash_received"`
	Change           float64             `json:"change"`
	TaxIDOnInvoice   string              `json:"tax_id_on_invoice,omitempty"`
	DeliveryPersonID string              `json:"delivery_person_id,omitempty"`
	Fiscal           *FiscalDocument     `json:"fiscal,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

type CheckoutResult struct {
	SaleID string          `json:"sale_id"`
	Fiscal *FiscalDocument `json:"fiscal,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	StoreID       string    `json:"store_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type ReceiptResponse struct {
	SaleID       string `json:"sale_id"`
	Mode         string `json:"mode"`
	EscposBase64 string `json:"escpos_base64"`
	PreviewText  string `json:"preview_text"`
	FileName     string `json:"file_name"`
}
