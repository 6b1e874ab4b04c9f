package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"adegamanager/backend/internal/domain"
	"adegamanager/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	paymentMethods  []domain.PaymentMethodDescriptor
	deliveryPersons []domain.DeliveryPerson
	customersByID   map[string]domain.Customer
	salesByID       map[string]*domain.Sale
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	methods := []domain.PaymentMethodDescriptor{
		{ID: "pm-cash", Name: "Dinheiro", Slug: "cash", Code: "01", Type: domain.MethodTypeCash},
		{ID: "pm-credit", Name: "Cartão de Crédito", Slug: "credit_card", Code: "03", Type: domain.MethodTypeCredit},
		{ID: "pm-debit", Name: "Cartão de Débito", Slug: "debit_card", Code: "04", Type: domain.MethodTypeDebit},
		{ID: "pm-pix", Name: "Pix", Slug: "pix", Code: "17", Type: domain.MethodTypePix},
		{ID: "pm-fiado", Name: "Fiado", Slug: "fiado", Code: "05", Type: domain.MethodTypeStoreCredit},
	}

	persons := []domain.DeliveryPerson{
		{ID: "dp-01", Name: "Carlos Motoboy", Phone: "+55 11 98888-0001", Active: true},
		{ID: "dp-02", Name: "Renata Entregas", Phone: "+55 11 98888-0002", Active: true},
		{ID: "dp-03", Name: "Jorge Express", Phone: "+55 11 98888-0003", Active: false},
	}

	customers := []domain.Customer{
		{
			ID:    "cust-ana",
			Name:  "Ana Oliveira",
			Phone: "+55 11 97777-0101",
			TaxID: "123.456.789-09",
			Address: map[string]any{
				"cep":         "01310-100",
				"logradouro":  "Avenida Paulista",
				"numero":      "1578",
				"bairro":      "Bela Vista",
				"localidade":  "São Paulo",
				"uf":          "SP",
				"complemento": "Apto 72",
			},
		},
		{
			ID:      "cust-bruno",
			Name:    "Bruno Castro",
			Phone:   "+55 11 97777-0202",
			Address: "Rua Augusta, 900 - Consolação, São Paulo/SP",
		},
		{
			ID:    "cust-clara",
			Name:  "Clara Mendes",
			Phone: "+55 11 97777-0303",
		},
	}

	customerMap := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		customerMap[c.ID] = c
	}

	return &Store{
		paymentMethods:  methods,
		deliveryPersons: persons,
		customersByID:   customerMap,
		salesByID:       make(map[string]*domain.Sale),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: seedUsers(),
	}
}

func (s *Store) ListPaymentMethods(_ context.Context) ([]domain.PaymentMethodDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	methods := make([]domain.PaymentMethodDescriptor, len(s.paymentMethods))
	copy(methods, s.paymentMethods)
	return methods, nil
}

// ReplacePaymentMethods swaps the seeded catalog. Used by tests to exercise
// method resolution against alternative store configurations.
func (s *Store) ReplacePaymentMethods(methods []domain.PaymentMethodDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paymentMethods = slices.Clone(methods)
}

func (s *Store) ListDeliveryPersons(_ context.Context) ([]domain.DeliveryPerson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	persons := make([]domain.DeliveryPerson, 0, len(s.deliveryPersons))
	for _, p := range s.deliveryPersons {
		if !p.Active {
			continue
		}
		persons = append(persons, p)
	}
	return persons, nil
}

func (s *Store) ListCustomers(_ context.Context, query string, limit int) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	customers := make([]domain.Customer, 0, len(s.customersByID))
	for _, c := range s.customersByID {
		if query != "" && !strings.Contains(strings.ToLower(c.Name), query) && !strings.Contains(c.Phone, query) {
			continue
		}
		customers = append(customers, c)
	}

	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return cmpString(a.Name, b.Name)
	})

	if limit > 0 && len(customers) > limit {
		customers = customers[:limit]
	}
	return customers, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" || len(sale.Items) == 0 || sale.Total < 0 {
		return nil, store.ErrInvalidSale
	}
	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, store.ErrInvalidSale
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	stored := sale
	s.salesByID[sale.ID] = &stored
	created := stored
	return &created, nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := *sale
	return &copySale, nil
}

func (s *Store) ListSales(_ context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if storeID != "" && sale.StoreID != storeID {
			continue
		}
		if !from.IsZero() && sale.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && sale.CreatedAt.After(to) {
			continue
		}
		sales = append(sales, *sale)
	}

	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})

	if limit > 0 && len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

func (s *Store) UpdateSaleFiscal(_ context.Context, saleID string, doc domain.FiscalDocument) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[saleID]
	if !exists {
		return nil, store.ErrNotFound
	}
	docCopy := doc
	sale.Fiscal = &docCopy
	updated := *sale
	return &updated, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]domain.AuditLog, 0, len(s.auditLogs))
	for _, entry := range s.auditLogs {
		if storeID != "" && entry.StoreID != storeID {
			continue
		}
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && entry.CreatedAt.After(to) {
			continue
		}
		logs = append(logs, entry)
	}

	slices.SortFunc(logs, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return 0
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})

	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" || user.Role == "" {
		return store.ErrInvalidUser
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
