package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

type Repo struct {
	DB *pgxpool.Pool

	// LowStockThreshold bounds the "low stock" listing bucket; zero falls
	// back to the default the dashboard worker also uses.
	LowStockThreshold int
}

// ---- products ----

const productCols = `id, name, sku, price, stock, status, units_sold, created_by, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.Stock, &p.Status,
		&p.UnitsSold, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type ProductInput struct {
	Name   string          `json:"name"`
	SKU    string          `json:"sku"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
	Status ProductStatus   `json:"status"`
}

func (r *Repo) CreateProduct(ctx context.Context, user string, in ProductInput) (Product, error) {
	if in.Status == "" {
		in.Status = ProductActive
	}
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, sku, price, stock, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+productCols,
		uuid.NewString(), in.Name, in.SKU, in.Price, in.Stock, in.Status, user)
	return scanProduct(row)
}

func (r *Repo) GetProduct(ctx context.Context, user, id string) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1 AND created_by=$2`, id, user))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// ProductPatch carries a partial product update. Stock is deliberately
// absent: available stock is owned by reservation transactions.
type ProductPatch struct {
	Name   *string          `json:"name"`
	SKU    *string          `json:"sku"`
	Price  *decimal.Decimal `json:"price"`
	Status *ProductStatus   `json:"status"`
}

func (r *Repo) UpdateProduct(ctx context.Context, user, id string, patch ProductPatch) (Product, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE products SET
			name   = COALESCE($3, name),
			sku    = COALESCE($4, sku),
			price  = COALESCE($5, price),
			status = COALESCE($6, status),
			updated_at = now()
		WHERE id=$1 AND created_by=$2
		RETURNING `+productCols,
		id, user, patch.Name, patch.SKU, patch.Price, patch.Status)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) DeleteProduct(ctx context.Context, user, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1 AND created_by=$2`, id, user)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ProductFilter mirrors the listing query parameters: a status bucket
// ("active", "inactive", "low stock", "out of stock"), top sellers, or plain
// pagination.
type ProductFilter struct {
	Status   string
	Top      bool
	All      bool
	Page     int
	PageSize int
}

const defaultLowStockThreshold = 10

func (r *Repo) lowStockCeiling() int {
	if r.LowStockThreshold > 0 {
		return r.LowStockThreshold
	}
	return defaultLowStockThreshold
}

func (r *Repo) ListProducts(ctx context.Context, user string, f ProductFilter) ([]Product, int, error) {
	where := `WHERE created_by=$1`
	switch f.Status {
	case "active":
		where += ` AND status='active'`
	case "inactive":
		where += ` AND status='inactive'`
	case "low stock":
		where += fmt.Sprintf(` AND stock > 0 AND stock <= %d`, r.lowStockCeiling())
	case "out of stock":
		where += ` AND stock = 0`
	}

	order := ` ORDER BY created_at, id`
	limit := ``
	if f.Top {
		order = ` ORDER BY units_sold DESC`
		limit = ` LIMIT 5`
	} else if !f.All {
		if f.Page < 1 {
			f.Page = 1
		}
		if f.PageSize < 1 {
			f.PageSize = 10
		}
		limit = fmt.Sprintf(` LIMIT %d OFFSET %d`, f.PageSize, (f.Page-1)*f.PageSize)
	}

	var count int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products `+where, user).Scan(&count); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.Query(ctx, `SELECT `+productCols+` FROM products `+where+order+limit, user)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, count, rows.Err()
}

// ---- customers ----

const customerCols = `id, name, email, phone, address, created_by, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type CustomerInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (r *Repo) CreateCustomer(ctx context.Context, user string, in CustomerInput) (Customer, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO customers(id, name, email, phone, address, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+customerCols,
		uuid.NewString(), in.Name, in.Email, in.Phone, in.Address, user)
	return scanCustomer(row)
}

func (r *Repo) GetCustomer(ctx context.Context, user, id string) (Customer, error) {
	c, err := scanCustomer(r.DB.QueryRow(ctx,
		`SELECT `+customerCols+` FROM customers WHERE id=$1 AND created_by=$2`, id, user))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

type CustomerPatch struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (r *Repo) UpdateCustomer(ctx context.Context, user, id string, patch CustomerPatch) (Customer, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE customers SET
			name    = COALESCE($3, name),
			email   = COALESCE($4, email),
			phone   = COALESCE($5, phone),
			address = COALESCE($6, address),
			updated_at = now()
		WHERE id=$1 AND created_by=$2
		RETURNING `+customerCols,
		id, user, patch.Name, patch.Email, patch.Phone, patch.Address)
	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

func (r *Repo) DeleteCustomer(ctx context.Context, user, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM customers WHERE id=$1 AND created_by=$2`, id, user)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ListCustomers(ctx context.Context, user string, page, pageSize int, all bool) ([]Customer, int, error) {
	var count int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE created_by=$1`, user).Scan(&count); err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + customerCols + ` FROM customers WHERE created_by=$1 ORDER BY created_at, id`
	if !all {
		if page < 1 {
			page = 1
		}
		if pageSize < 1 {
			pageSize = 10
		}
		q += fmt.Sprintf(` LIMIT %d OFFSET %d`, pageSize, (page-1)*pageSize)
	}
	rows, err := r.DB.Query(ctx, q, user)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, count, rows.Err()
}

// ---- orders (reads; mutations live in lifecycle.go) ----

const orderCols = `id, order_token, date, customer_id, status, total_items, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderToken, &o.Date, &o.CustomerID, &o.Status,
		&o.TotalItems, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *Repo) GetOrder(ctx context.Context, user, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1 AND created_by=$2`, id, user))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Items, err = r.orderItems(ctx, o.ID)
	return o, err
}

func (r *Repo) orderItems(ctx context.Context, orderID string) ([]OrderedItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.price_at_order_time
		FROM ordered_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY p.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderedItem
	for rows.Next() {
		var it OrderedItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.PriceAtOrderTime); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type OrderFilter struct {
	Status   string
	All      bool
	Page     int
	PageSize int
}

func (r *Repo) ListOrders(ctx context.Context, user string, f OrderFilter) ([]Order, int, error) {
	where := `WHERE created_by=$1`
	args := []any{user}
	if f.Status != "" && f.Status != "all" {
		where += ` AND status=$2`
		args = append(args, f.Status)
	}

	var count int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + orderCols + ` FROM orders ` + where + ` ORDER BY created_at, id`
	if !f.All {
		if f.Page < 1 {
			f.Page = 1
		}
		if f.PageSize < 1 {
			f.PageSize = 4
		}
		q += fmt.Sprintf(` LIMIT %d OFFSET %d`, f.PageSize, (f.Page-1)*f.PageSize)
	}
	return r.queryOrders(ctx, q, count, args...)
}

// RecentOrders returns the newest orders first, for the dashboard.
func (r *Repo) RecentOrders(ctx context.Context, user string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 10
	}
	out, _, err := r.queryOrders(ctx,
		fmt.Sprintf(`SELECT %s FROM orders WHERE created_by=$1 ORDER BY created_at DESC LIMIT %d`, orderCols, limit),
		0, user)
	return out, err
}

// CustomerOrders returns a customer's orders with items, for the customer
// detail view.
func (r *Repo) CustomerOrders(ctx context.Context, user, customerID string) ([]Order, error) {
	out, _, err := r.queryOrders(ctx,
		`SELECT `+orderCols+` FROM orders WHERE created_by=$1 AND customer_id=$2 ORDER BY created_at, id`,
		0, user, customerID)
	return out, err
}

func (r *Repo) queryOrders(ctx context.Context, q string, count int, args ...any) ([]Order, int, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		if out[i].Items, err = r.orderItems(ctx, out[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return out, count, nil
}

// OrderTotal is the sum of quantity * snapshot price over an order's items.
func OrderTotal(items []OrderedItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.PriceAtOrderTime.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
