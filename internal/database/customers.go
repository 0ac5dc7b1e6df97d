package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"brightnest/internal/models"
)

// CreateOrUpdateCustomer upserts the contact record by email and fills in the
// row id. Phone and address take the latest non-empty value; the Stripe
// customer id is only set once.
func (db *DB) CreateOrUpdateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `
        INSERT INTO customers (name, email, phone, address, stripe_customer_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(email) DO UPDATE SET
            name = excluded.name,
            phone = CASE WHEN excluded.phone != '' THEN excluded.phone ELSE phone END,
            address = CASE WHEN excluded.address != '' THEN excluded.address ELSE address END,
            stripe_customer_id = CASE WHEN stripe_customer_id IS NULL OR stripe_customer_id = ''
                THEN excluded.stripe_customer_id ELSE stripe_customer_id END,
            updated_at = excluded.updated_at
    `

	now := time.Now()
	_, err := db.db.ExecContext(ctx, query,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Address,
		customer.StripeCustomerID,
		now,
		now,
	)
	if err != nil {
		return err
	}

	stored, err := db.GetCustomerByEmail(ctx, customer.Email)
	if err != nil {
		return err
	}
	customer.ID = stored.ID
	customer.CreatedAt = stored.CreatedAt
	customer.UpdatedAt = stored.UpdatedAt
	if customer.StripeCustomerID == "" {
		customer.StripeCustomerID = stored.StripeCustomerID
	}
	return nil
}

// GetCustomerByEmail returns the customer record or ErrNotFound.
func (db *DB) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	query := `
        SELECT id, name, email, COALESCE(phone, ''), COALESCE(address, ''),
               COALESCE(stripe_customer_id, ''), created_at, updated_at
        FROM customers WHERE email = ?
    `

	var customer models.Customer
	err := db.db.QueryRowContext(ctx, query, email).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.Address,
		&customer.StripeCustomerID,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

// SetCustomerStripeID records the Stripe customer id created during checkout.
func (db *DB) SetCustomerStripeID(ctx context.Context, email, stripeCustomerID string) error {
	query := `UPDATE customers SET stripe_customer_id = ?, updated_at = ? WHERE email = ?`

	result, err := db.db.ExecContext(ctx, query, stripeCustomerID, time.Now(), email)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
