package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"adegamanager/backend/internal/cache"
	"adegamanager/backend/internal/cep"
	"adegamanager/backend/internal/checkout"
	"adegamanager/backend/internal/domain"
	"adegamanager/backend/internal/receipt"
	"adegamanager/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

var (
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrNotDelivery     = errors.New("delivery persons are only listed for delivery sales")
)

const catalogCacheKey = "payment-methods:catalog"

type Service struct {
	repo           store.Repository
	catalog        cache.CatalogCache
	catalogTTL     time.Duration
	postal         cep.Lookup
	receipts       *receipt.Coordinator
	defaultStoreID string

	mu       sync.RWMutex
	sessions map[string]*checkout.Session
}

func New(repo store.Repository, catalog cache.CatalogCache, catalogTTL time.Duration, postal cep.Lookup, receipts *receipt.Coordinator, defaultStoreID string) *Service {
	if catalog == nil {
		catalog = cache.NoopCatalogCache{}
	}
	if catalogTTL <= 0 {
		catalogTTL = 5 * time.Minute
	}
	if defaultStoreID == "" {
		defaultStoreID = "main-store"
	}

	return &Service{
		repo:           repo,
		catalog:        catalog,
		catalogTTL:     catalogTTL,
		postal:         postal,
		receipts:       receipts,
		defaultStoreID: defaultStoreID,
		sessions:       make(map[string]*checkout.Session),
	}
}

// paymentCatalog returns the payment-method catalog, serving from cache
// when warm. Cache failures fall through to the repository.
func (s *Service) paymentCatalog(ctx context.Context) ([]domain.PaymentMethodDescriptor, error) {
	if cached, ok, err := s.catalog.Get(ctx, catalogCacheKey); err != nil {
		log.Printf("[service] WARN: catalog cache read failed: %v", err)
	} else if ok {
		return cached, nil
	}

	methods, err := s.repo.ListPaymentMethods(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.Set(ctx, catalogCacheKey, methods, s.catalogTTL); err != nil {
		log.Printf("[service] WARN: catalog cache write failed: %v", err)
	}
	return methods, nil
}

func (s *Service) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethodDescriptor, error) {
	return s.paymentCatalog(ctx)
}

// OpenSession creates a checkout session with an immutable snapshot of
// the payment-method catalog.
func (s *Service) OpenSession(ctx context.Context) (checkout.Snapshot, error) {
	methods, err := s.paymentCatalog(ctx)
	if err != nil {
		return checkout.Snapshot{}, err
	}

	session := checkout.NewSession("chk-"+uuid.NewString(), methods)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.logAudit(ctx, "", "session_open", "checkout_session", session.ID(), "")
	return session.Snapshot(), nil
}

func (s *Service) session(id string) (*checkout.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) GetSession(id string) (checkout.Snapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return checkout.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

func (s *Service) UpdateSession(_ context.Context, id string, update checkout.Update) (checkout.Snapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return checkout.Snapshot{}, err
	}
	if err := session.Apply(update); err != nil {
		return checkout.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// AttachCustomer loads a customer record onto the session, pre-filling
// the delivery address from whatever shape the customer record carries.
func (s *Service) AttachCustomer(ctx context.Context, id string, customerID string) (checkout.Snapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return checkout.Snapshot{}, err
	}

	customer, err := s.repo.GetCustomerByID(ctx, customerID)
	if err != nil {
		return checkout.Snapshot{}, err
	}
	session.LoadCustomer(customer)
	return session.Snapshot(), nil
}

// PostalLookupResult carries the outcome of a postal-code lookup. A miss
// is not an error: Found is false and the address is untouched.
type PostalLookupResult struct {
	Snapshot checkout.Snapshot `json:"snapshot"`
	Found    bool              `json:"found"`
	Focus    string            `json:"focus,omitempty"`
}

func (s *Service) LookupPostalCode(ctx context.Context, id string, code string) (PostalLookupResult, error) {
	session, err := s.session(id)
	if err != nil {
		return PostalLookupResult{}, err
	}

	frag, err := s.postal.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, cep.ErrInvalidCode) {
			return PostalLookupResult{}, err
		}
		log.Printf("[service] WARN: postal lookup failed code=%s: %v", code, err)
		return PostalLookupResult{Snapshot: session.Snapshot()}, nil
	}

	focus := session.FillFromLookup(frag)
	return PostalLookupResult{Snapshot: session.Snapshot(), Found: true, Focus: focus}, nil
}

func (s *Service) AddPayment(_ context.Context, id string, methodID string) (checkout.Snapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return checkout.Snapshot{}, err
	}
	if err := session.AddPayment(methodID); err != nil {
		return checkout.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

func (s *Service) RemovePayment(_ context.Context, id string, index int) (checkout.Snapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return checkout.Snapshot{}, err
	}
	if err := session.RemovePayment(index); err != nil {
		return checkout.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// DeliveryPersons lists assignable couriers for a delivery session. The
// list is only available when the session is on a delivery leg.
func (s *Service) DeliveryPersons(ctx context.Context, id string) ([]domain.DeliveryPerson, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if !session.IsDelivery() {
		return nil, ErrNotDelivery
	}
	return s.repo.ListDeliveryPersons(ctx)
}

func (s *Service) SearchCustomers(ctx context.Context, query string, limit int) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx, query, limit)
}

// Submit runs the checkout: one persistence call, no retry. On success
// the session resets to a fresh draft; on failure every field survives
// so the operator can correct and resubmit.
func (s *Service) Submit(ctx context.Context, id string) (domain.CheckoutResult, error) {
	session, err := s.session(id)
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	if err := session.BeginSubmit(); err != nil {
		return domain.CheckoutResult{}, err
	}

	sale, err := session.BuildSale(s.defaultStoreID)
	if err != nil {
		session.FinishSubmit(false)
		return domain.CheckoutResult{}, err
	}
	sale.ID = "sale-" + uuid.NewString()

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		session.FinishSubmit(false)
		return domain.CheckoutResult{}, err
	}
	session.FinishSubmit(true)

	s.logAudit(ctx, created.StoreID, "checkout_submit", "sale", created.ID,
		fmt.Sprintf("channel=%s,total=%.2f,method=%s", created.Channel, created.Total, created.PaymentMethod))
	return domain.CheckoutResult{SaleID: created.ID}, nil
}

// CancelSession tears the session down without persisting anything.
func (s *Service) CancelSession(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.logAudit(ctx, "", "session_cancel", "checkout_session", id, "")
	return nil
}

// EmitFiscal requests the fiscal document for a persisted sale. The sale
// must already exist; an authorized document is stored on the sale and
// flips its receipt to the fiscal layout.
func (s *Service) EmitFiscal(ctx context.Context, saleID string, taxID string) (domain.Sale, error) {
	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}

	doc, err := s.receipts.EmitFiscalDocument(ctx, *sale, taxID)
	if err != nil {
		return domain.Sale{}, err
	}

	updated, err := s.repo.UpdateSaleFiscal(ctx, saleID, doc)
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, sale.StoreID, "fiscal_emit", "sale", saleID, fmt.Sprintf("status=%s,key=%s", doc.Status, doc.DocumentKey))
	return *updated, nil
}

// PrintReceipt renders the sale in its active layout and pushes it to
// the printer. A printer failure downgrades to a warning: the rendered
// receipt is still returned so the operator can reprint or export.
func (s *Service) PrintReceipt(ctx context.Context, saleID string) (domain.ReceiptResponse, error) {
	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	rendered, printErr := s.receipts.Print(*sale)
	if printErr != nil {
		log.Printf("[service] WARN: receipt print failed sale=%s: %v", saleID, printErr)
	}
	s.logAudit(ctx, sale.StoreID, "receipt_print", "sale", saleID, "mode="+rendered.Mode)
	return rendered, nil
}

// Receipt renders the sale's current receipt without printing.
func (s *Service) Receipt(ctx context.Context, saleID string) (domain.ReceiptResponse, error) {
	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}
	return s.receipts.Receipt(*sale), nil
}

func (s *Service) GetSale(ctx context.Context, saleID string) (domain.Sale, error) {
	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, s.defaultStoreID, from, to, limit)
}

func (s *Service) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListAuditLogs(ctx, s.defaultStoreID, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, storeID string, action string, entityType string, entityID string, detail string) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            "audit-" + uuid.NewString(),
		StoreID:       storeID,
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[service] WARN: failed to write audit log action=%s entity=%s: %v", action, entityID, err)
	}
}
