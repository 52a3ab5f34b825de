// Package socrata provides a driven.DatasetSource over the Socrata Open
// Data (SODA) API that publishes the Iowa liquor sales dataset.
package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.DatasetSource = (*Source)(nil)

// Default configuration values.
const (
	DefaultBaseURL  = "https://data.iowa.gov"
	DefaultResource = "cc6f-sgik"
	DefaultTimeout  = 5 * time.Minute

	// MaxPageSize is the largest $limit SODA 2.0 serves in one request.
	MaxPageSize = 50000
)

// socrataDateLayout is the floating timestamp format SODA returns.
const socrataDateLayout = "2006-01-02T15:04:05.000"

// Config holds configuration for the Socrata source.
type Config struct {
	// BaseURL is the portal root (default: https://data.iowa.gov).
	BaseURL string

	// Resource is the dataset identifier (default: cc6f-sgik).
	Resource string

	// AppToken is an optional application token. Unauthenticated clients
	// are throttled harder.
	AppToken string

	// Timeout is the request timeout (default: 5m).
	Timeout time.Duration
}

// Source pages through a SODA resource ordered by row id.
type Source struct {
	client   *http.Client
	endpoint string
	appToken string
}

// New creates a new Socrata source.
func New(cfg Config) (*Source, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Resource == "" {
		cfg.Resource = DefaultResource
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid socrata base URL %q", domain.ErrInvalidInput, cfg.BaseURL)
	}

	return &Source{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: base.String() + "/resource/" + url.PathEscape(cfg.Resource) + ".json",
		appToken: cfg.AppToken,
	}, nil
}

// FetchPage returns up to limit rows starting at offset.
func (s *Source) FetchPage(ctx context.Context, limit, offset int) ([]domain.TransactionRow, error) {
	if limit <= 0 || limit > MaxPageSize {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidInput, MaxPageSize)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", domain.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("$limit", strconv.Itoa(limit))
	params.Set("$offset", strconv.Itoa(offset))
	params.Set("$order", ":id")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.appToken != "" {
		req.Header.Set("X-App-Token", s.appToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("socrata error (status %d): %s", resp.StatusCode, errorMessage(body))
	}

	var records []record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	rows := make([]domain.TransactionRow, 0, len(records))
	for i := range records {
		row, err := records[i].toRow()
		if err != nil {
			return nil, fmt.Errorf("row %d at offset %d: %w", i, offset, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// record is one row as SODA serialises it. Numbers arrive as strings.
type record struct {
	InvoiceLineNo  string          `json:"invoice_line_no"`
	Date           string          `json:"date"`
	Store          string          `json:"store"`
	Name           string          `json:"name"`
	City           string          `json:"city"`
	ZipCode        string          `json:"zipcode"`
	County         string          `json:"county"`
	CategoryName   string          `json:"category_name"`
	VendorName     string          `json:"vendor_name"`
	ItemNo         string          `json:"itemno"`
	ItemDesc       string          `json:"im_desc"`
	Pack           flexInt         `json:"pack"`
	BottleVolumeML flexInt         `json:"bottle_volume_ml"`
	SaleBottles    flexInt         `json:"sale_bottles"`
	SaleDollars    decimal.Decimal `json:"sale_dollars"`
	SaleLiters     decimal.Decimal `json:"sale_liters"`
	SaleGallons    decimal.Decimal `json:"sale_gallons"`
	StoreLocation  json.RawMessage `json:"store_location"`
}

func (r *record) toRow() (domain.TransactionRow, error) {
	if r.InvoiceLineNo == "" {
		return domain.TransactionRow{}, fmt.Errorf("missing invoice_line_no")
	}
	date, err := parseDate(r.Date)
	if err != nil {
		return domain.TransactionRow{}, fmt.Errorf("invoice %s: %w", r.InvoiceLineNo, err)
	}

	return domain.TransactionRow{
		InvoiceLineNo:   r.InvoiceLineNo,
		Date:            date,
		StoreNumber:     r.Store,
		StoreName:       r.Name,
		City:            r.City,
		ZipCode:         r.ZipCode,
		County:          r.County,
		CategoryName:    r.CategoryName,
		VendorName:      r.VendorName,
		ItemNumber:      r.ItemNo,
		ItemDescription: r.ItemDesc,
		Pack:            int(r.Pack),
		BottleVolumeML:  int(r.BottleVolumeML),
		SaleBottles:     int64(r.SaleBottles),
		SaleDollars:     r.SaleDollars,
		SaleLiters:      r.SaleLiters,
		SaleGallons:     r.SaleGallons,
		Location:        parseLocation(r.StoreLocation),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{socrataDateLayout, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseLocation accepts a GeoJSON point, or a WKT string as older exports
// carry. Anything else yields nil.
func parseLocation(raw json.RawMessage) *domain.GeoPoint {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var point struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &point); err == nil {
		if strings.EqualFold(point.Type, "Point") && len(point.Coordinates) == 2 {
			return &domain.GeoPoint{Longitude: point.Coordinates[0], Latitude: point.Coordinates[1]}
		}
		return nil
	}

	var wkt string
	if err := json.Unmarshal(raw, &wkt); err != nil {
		return nil
	}
	inner, ok := strings.CutPrefix(strings.TrimSpace(wkt), "POINT (")
	if !ok {
		return nil
	}
	parts := strings.Fields(strings.TrimSuffix(inner, ")"))
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

// errorMessage extracts SODA's error message, falling back to the raw body.
func errorMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return strings.TrimSpace(string(body))
}

// flexInt decodes an integer sent either as a JSON number or a string.
// Empty and null values decode to zero.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		d, derr := decimal.NewFromString(s)
		if derr != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		n = d.IntPart()
	}
	*f = flexInt(n)
	return nil
}
