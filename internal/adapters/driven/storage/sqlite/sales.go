package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
)

// SalesTable is the canonical name of the transactions table.
const SalesTable = "liquorsales"

// dateLayout is how sale dates are stored.
const dateLayout = "2006-01-02"

// SalesStore implements driven.AggregateSource and driven.TransactionStore
// over the liquorsales table.
type SalesStore struct {
	store *Store
	table string
}

var (
	_ driven.AggregateSource  = (*SalesStore)(nil)
	_ driven.TransactionStore = (*SalesStore)(nil)
)

const transactionColumns = `position, invoice_line_no, date, store, name, city, zipcode, county,
	category_name, vendor_name, itemno, im_desc, pack, bottle_volume_ml,
	sale_bottles, sale_dollars, sale_liters, sale_gallons, store_location`

// TableName returns the canonical aggregate table name.
func (s *SalesStore) TableName() string {
	return s.table
}

// FetchGroups returns one page of aggregate groups.
// Groups are paged in SQL and reduced in Go so every group is complete.
func (s *SalesStore) FetchGroups(ctx context.Context, limit, offset int) ([]domain.AggregateGroup, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}

	//nolint:gosec // G202: table name is a constant, values are bound
	query := `
		WITH page AS (
			SELECT name, im_desc, category_name, substr(date, 1, 7) AS month, MIN(position) AS first_position
			FROM ` + s.table + `
			GROUP BY name, im_desc, category_name, substr(date, 1, 7)
			ORDER BY name, im_desc, month, first_position
			LIMIT ? OFFSET ?
		)
		SELECT ` + prefixColumns("l") + `
		FROM ` + s.table + ` l
		JOIN page p
			ON l.name IS p.name
			AND l.im_desc IS p.im_desc
			AND l.category_name IS p.category_name
			AND substr(l.date, 1, 7) = p.month
		ORDER BY p.name, p.im_desc, p.month, p.first_position, l.position
	`

	rows, err := s.store.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying aggregate page: %w", err)
	}
	defer rows.Close()

	var txns []domain.TransactionRow //nolint:prealloc // size unknown from query
	for rows.Next() {
		row, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating aggregate page: %w", err)
	}

	if len(txns) == 0 {
		return nil, nil
	}
	return domain.GroupRows(txns)
}

// DescribeSchema returns the columns of the sales table in order.
func (s *SalesStore) DescribeSchema(ctx context.Context) ([]domain.Column, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT name, type FROM pragma_table_info(?) ORDER BY cid", s.table)
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", s.table, err)
	}
	defer rows.Close()

	var columns []domain.Column //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %s", domain.ErrNotFound, s.table)
	}
	return columns, nil
}

// ExecuteReadOnly runs query on a connection switched to query_only mode,
// so any write fails inside SQLite regardless of what the text contains.
func (s *SalesStore) ExecuteReadOnly(ctx context.Context, query string) (*domain.TabularResult, error) {
	conn, err := s.store.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, fmt.Errorf("enabling query_only: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "PRAGMA query_only = OFF")
	}()

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}

	result := &domain.TabularResult{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// InsertTransactions stores rows in one transaction. Rows whose invoice line
// already exists are ignored. Positions are assigned by insertion order.
func (s *SalesStore) InsertTransactions(ctx context.Context, rows []domain.TransactionRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	//nolint:gosec // G202: table name is a constant, values are bound
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO `+s.table+` (invoice_line_no, date, store, name, city, zipcode, county,
			category_name, vendor_name, itemno, im_desc, pack, bottle_volume_ml,
			sale_bottles, sale_dollars, sale_liters, sale_gallons, store_location)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range rows {
		r := &rows[i]
		if r.InvoiceLineNo == "" {
			return inserted, fmt.Errorf("%w: row %d has no invoice line number", domain.ErrInvalidInput, i)
		}
		res, err := stmt.ExecContext(ctx,
			r.InvoiceLineNo, r.Date.UTC().Format(dateLayout),
			nullString(r.StoreNumber), nullString(r.StoreName), nullString(r.City),
			nullString(r.ZipCode), nullString(r.County), nullString(r.CategoryName),
			nullString(r.VendorName), nullString(r.ItemNumber), nullString(r.ItemDescription),
			r.Pack, r.BottleVolumeML, r.SaleBottles,
			r.SaleDollars.String(), r.SaleLiters.String(), r.SaleGallons.String(),
			formatPoint(r.Location),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting %s: %w", r.InvoiceLineNo, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("reading rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transactions: %w", err)
	}
	return inserted, nil
}

// CountTransactions returns the number of stored rows.
func (s *SalesStore) CountTransactions(ctx context.Context) (int, error) {
	var n int
	//nolint:gosec // G202: table name is a constant
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}
	return n, nil
}

// ==================== Helper Functions ====================

func prefixColumns(alias string) string {
	cols := strings.Split(transactionColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// scanTransaction scans one liquorsales row selected with transactionColumns.
func scanTransaction(rows *sql.Rows) (*domain.TransactionRow, error) {
	var (
		r                                         domain.TransactionRow
		date                                      string
		store, name, city, zip, county            sql.NullString
		category, vendor, itemNo, itemDesc, point sql.NullString
		pack, volume, bottles                     sql.NullInt64
		dollars, liters, gallons                  decimal.NullDecimal
	)

	if err := rows.Scan(&r.Position, &r.InvoiceLineNo, &date, &store, &name, &city, &zip, &county,
		&category, &vendor, &itemNo, &itemDesc, &pack, &volume,
		&bottles, &dollars, &liters, &gallons, &point); err != nil {
		return nil, fmt.Errorf("scanning transaction: %w", err)
	}

	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parsing date of %s: %w", r.InvoiceLineNo, err)
	}
	r.Date = t
	r.StoreNumber = store.String
	r.StoreName = name.String
	r.City = city.String
	r.ZipCode = zip.String
	r.County = county.String
	r.CategoryName = category.String
	r.VendorName = vendor.String
	r.ItemNumber = itemNo.String
	r.ItemDescription = itemDesc.String
	r.Pack = int(pack.Int64)
	r.BottleVolumeML = int(volume.Int64)
	r.SaleBottles = bottles.Int64
	r.SaleDollars = dollars.Decimal
	r.SaleLiters = liters.Decimal
	r.SaleGallons = gallons.Decimal
	r.Location = parsePoint(point.String)

	return &r, nil
}

// formatPoint renders a location as WKT, or nil when absent.
func formatPoint(p *domain.GeoPoint) any {
	if p == nil {
		return nil
	}
	return fmt.Sprintf("POINT (%s %s)",
		strconv.FormatFloat(p.Longitude, 'f', -1, 64),
		strconv.FormatFloat(p.Latitude, 'f', -1, 64))
}

// parsePoint reads a WKT point. Anything else yields nil.
func parsePoint(s string) *domain.GeoPoint {
	inner, ok := strings.CutPrefix(strings.TrimSpace(s), "POINT (")
	if !ok {
		return nil
	}
	inner, ok = strings.CutSuffix(inner, ")")
	if !ok {
		return nil
	}
	parts := strings.Fields(inner)
	if len(parts) != 2 {
		return nil
	}
	lon, err1 := strconv.ParseFloat(parts[0], 64)
	lat, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	return &domain.GeoPoint{Longitude: lon, Latitude: lat}
}
