package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"adegamanager/backend/internal/domain"
	"adegamanager/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethodDescriptor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, code, type
		FROM payment_methods
		WHERE active = true
		ORDER BY position, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := make([]domain.PaymentMethodDescriptor, 0, 8)
	for rows.Next() {
		var m domain.PaymentMethodDescriptor
		if err := rows.Scan(&m.ID, &m.Name, &m.Slug, &m.Code, &m.Type); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return methods, nil
}

func (s *Store) ListDeliveryPersons(ctx context.Context) ([]domain.DeliveryPerson, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, active
		FROM delivery_persons
		WHERE active = true
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	persons := make([]domain.DeliveryPerson, 0, 8)
	for rows.Next() {
		var p domain.DeliveryPerson
		var phone sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &phone, &p.Active); err != nil {
			return nil, err
		}
		if phone.Valid {
			p.Phone = phone.String
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return persons, nil
}

func (s *Store) ListCustomers(ctx context.Context, query string, limit int) ([]domain.Customer, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, tax_id, address
		FROM customers
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR phone LIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, limit)
	for rows.Next() {
		customer, err := scanCustomer(rows.Scan)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *customer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

func (s *Store) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, tax_id, address
		FROM customers
		WHERE id = $1
	`, id)

	customer, err := scanCustomer(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return customer, nil
}

// scanCustomer decodes one customer row. The address column is jsonb and
// holds whatever shape the customer record was imported with, so it is
// unmarshalled into an untyped value and normalized later at checkout.
func scanCustomer(scan func(dest ...any) error) (*domain.Customer, error) {
	var customer domain.Customer
	var phone sql.NullString
	var taxID sql.NullString
	var addressRaw []byte
	if err := scan(&customer.ID, &customer.Name, &phone, &taxID, &addressRaw); err != nil {
		return nil, err
	}
	if phone.Valid {
		customer.Phone = phone.String
	}
	if taxID.Valid {
		customer.TaxID = taxID.String
	}
	if len(addressRaw) > 0 {
		var address any
		if err := json.Unmarshal(addressRaw, &address); err != nil {
			return nil, err
		}
		customer.Address = address
	}
	return &customer, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" || len(sale.Items) == 0 || sale.Total < 0 {
		return nil, store.ErrInvalidSale
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	itemsJSON, err := json.Marshal(sale.Items)
	if err != nil {
		return nil, err
	}
	var allocationsJSON []byte
	if len(sale.Allocations) > 0 {
		allocationsJSON, err = json.Marshal(sale.Allocations)
		if err != nil {
			return nil, err
		}
	}
	var addressJSON []byte
	if sale.Address != nil {
		addressJSON, err = json.Marshal(sale.Address)
		if err != nil {
			return nil, err
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sales (
			id, store_id, channel, items, subtotal, discount, delivery_fee, total,
			customer_id, address, payment_method_id, payment_method, allocations,
			installments, cash_received, change, tax_id_on_invoice,
			delivery_person_id, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`, sale.ID, sale.StoreID, string(sale.Channel), itemsJSON, sale.Subtotal, sale.Discount,
		sale.DeliveryFee, sale.Total, nullIfEmpty(sale.CustomerID), addressJSON,
		nullIfEmpty(sale.PaymentMethodID), nullIfEmpty(sale.PaymentMethod), allocationsJSON,
		sale.Installments, sale.CashReceived, sale.Change, nullIfEmpty(sale.TaxIDOnInvoice),
		nullIfEmpty(sale.DeliveryPersonID), sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidSale
		}
		return nil, err
	}

	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, channel, items, subtotal, discount, delivery_fee, total,
			customer_id, address, payment_method_id, payment_method, allocations,
			installments, cash_received, change, tax_id_on_invoice,
			delivery_person_id, fiscal, created_at
		FROM sales
		WHERE id = $1
	`, id)

	sale, err := scanSale(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (s *Store) ListSales(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 100
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -7)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, channel, items, subtotal, discount, delivery_fee, total,
			customer_id, address, payment_method_id, payment_method, allocations,
			installments, cash_received, change, tax_id_on_invoice,
			delivery_person_id, fiscal, created_at
		FROM sales
		WHERE store_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at DESC
		LIMIT $4
	`, storeID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, limit)
	for rows.Next() {
		sale, err := scanSale(rows.Scan)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sales, nil
}

func scanSale(scan func(dest ...any) error) (*domain.Sale, error) {
	var sale domain.Sale
	var channel string
	var itemsRaw []byte
	var customerID sql.NullString
	var addressRaw []byte
	var paymentMethodID sql.NullString
	var paymentMethod sql.NullString
	var allocationsRaw []byte
	var taxID sql.NullString
	var deliveryPersonID sql.NullString
	var fiscalRaw []byte
	if err := scan(
		&sale.ID,
		&sale.StoreID,
		&channel,
		&itemsRaw,
		&sale.Subtotal,
		&sale.Discount,
		&sale.DeliveryFee,
		&sale.Total,
		&customerID,
		&addressRaw,
		&paymentMethodID,
		&paymentMethod,
		&allocationsRaw,
		&sale.Installments,
		&sale.CashReceived,
		&sale.Change,
		&taxID,
		&deliveryPersonID,
		&fiscalRaw,
		&sale.CreatedAt,
	); err != nil {
		return nil, err
	}

	sale.Channel = domain.SaleChannel(channel)
	sale.CreatedAt = sale.CreatedAt.UTC()
	if customerID.Valid {
		sale.CustomerID = customerID.String
	}
	if paymentMethodID.Valid {
		sale.PaymentMethodID = paymentMethodID.String
	}
	if paymentMethod.Valid {
		sale.PaymentMethod = paymentMethod.String
	}
	if taxID.Valid {
		sale.TaxIDOnInvoice = taxID.String
	}
	if deliveryPersonID.Valid {
		sale.DeliveryPersonID = deliveryPersonID.String
	}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &sale.Items); err != nil {
			return nil, err
		}
	}
	if len(addressRaw) > 0 {
		var address domain.DeliveryAddress
		if err := json.Unmarshal(addressRaw, &address); err != nil {
			return nil, err
		}
		sale.Address = &address
	}
	if len(allocationsRaw) > 0 {
		_ = json.Unmarshal(allocationsRaw, &sale.Allocations)
	}
	if len(fiscalRaw) > 0 {
		var fiscal domain.FiscalDocument
		if err := json.Unmarshal(fiscalRaw, &fiscal); err != nil {
			return nil, err
		}
		sale.Fiscal = &fiscal
	}
	return &sale, nil
}

func (s *Store) UpdateSaleFiscal(ctx context.Context, saleID string, doc domain.FiscalDocument) (*domain.Sale, error) {
	fiscalJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sales
		SET fiscal = $2
		WHERE id = $1
	`, saleID, fiscalJSON)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetSaleByID(ctx, saleID)
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, store_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.StoreID, entry.ActorUsername, entry.ActorRole, entry.Action,
		entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -7)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE store_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at DESC
		LIMIT $4
	`, storeID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.StoreID, &entry.ActorUsername, &entry.ActorRole,
			&entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" || user.Role == "" {
		return store.ErrInvalidUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role, active, created_at)
		VALUES ($1,$2,$3,true,$4)
	`, user.Username, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidUser
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password_hash, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
