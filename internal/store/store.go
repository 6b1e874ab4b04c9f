package store

import (
	"context"
	"errors"
	"time"

	"adegamanager/backend/internal/domain"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidSale = errors.New("invalid sale")
	ErrInvalidUser = errors.New("invalid user")
)

type Repository interface {
	ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethodDescriptor, error)
	ListDeliveryPersons(ctx context.Context) ([]domain.DeliveryPerson, error)
	ListCustomers(ctx context.Context, query string, limit int) ([]domain.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.Sale, error)
	UpdateSaleFiscal(ctx context.Context, saleID string, doc domain.FiscalDocument) (*domain.Sale, error)
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
