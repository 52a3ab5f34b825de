package domain

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthLayout formats a calendar month as used in record ids and metadata.
const MonthLayout = "2006-01"

// GeoPoint is a store location as reported by the dataset.
type GeoPoint struct {
	Longitude float64
	Latitude  float64
}

// TransactionRow is one raw sale event. Rows are sourced externally
// and never mutated by the pipeline.
type TransactionRow struct {
	// Position is the ordinal position of the row in the source table.
	Position int64

	// InvoiceLineNo is the dataset's invoice/item identifier.
	InvoiceLineNo string

	Date time.Time

	StoreNumber string
	StoreName   string
	City        string
	ZipCode     string
	County      string

	CategoryName string
	VendorName   string

	ItemNumber      string
	ItemDescription string

	// Pack is the number of bottles per case.
	Pack           int
	BottleVolumeML int

	SaleBottles int64
	SaleDollars decimal.Decimal
	SaleLiters  decimal.Decimal
	SaleGallons decimal.Decimal

	// Location is nil when the dataset has no geocode for the store.
	Location *GeoPoint
}

// Month returns the first instant of the row's calendar month in UTC.
func (r TransactionRow) Month() time.Time {
	return TruncateMonth(r.Date)
}

// TruncateMonth returns the first instant of t's calendar month in UTC.
func TruncateMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// GroupKey identifies one AggregateGroup.
type GroupKey struct {
	StoreName       string
	ItemDescription string
	CategoryName    string
	Month           time.Time
}

// Key returns the group key the row contributes to.
func (r TransactionRow) Key() GroupKey {
	return GroupKey{
		StoreName:       r.StoreName,
		ItemDescription: r.ItemDescription,
		CategoryName:    r.CategoryName,
		Month:           r.Month(),
	}
}

// AggregateGroup is the unit of synthesis: every sale of one item at one
// store within one category and calendar month.
type AggregateGroup struct {
	GroupKey

	City    string
	County  string
	ZipCode string

	// FirstInvoice is the invoice line of the row at FirstPosition.
	FirstInvoice string

	// FirstPosition is the minimum ordinal position among contributing rows.
	FirstPosition int64

	// Vendors is deduplicated in order of first appearance.
	Vendors []string

	TotalOrders       int64
	TotalBottles      int64
	TotalSales        decimal.Decimal
	TotalLiters       decimal.Decimal
	AvgBottleVolumeML decimal.Decimal

	// CommonPack is the most frequent pack size; ties go to the smaller pack.
	CommonPack int
}

// ErrEmptyGroup is returned when reducing zero rows.
var ErrEmptyGroup = errors.New("aggregate group has no rows")

// ErrMixedGroup is returned when rows passed to ReduceGroup disagree on the group key.
var ErrMixedGroup = errors.New("rows belong to different aggregate groups")

// avgPlaces is the precision kept for the average bottle volume.
const avgPlaces = 4

// ReduceGroup folds the rows of one group into an AggregateGroup.
// Rows are ordered by Position first so the result is identical for any
// permutation of the same input.
func ReduceGroup(rows []TransactionRow) (AggregateGroup, error) {
	if len(rows) == 0 {
		return AggregateGroup{}, ErrEmptyGroup
	}

	sorted := make([]TransactionRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	key := sorted[0].Key()
	g := AggregateGroup{
		GroupKey:      key,
		FirstPosition: sorted[0].Position,
		FirstInvoice:  sorted[0].InvoiceLineNo,
		TotalSales:    decimal.Zero,
		TotalLiters:   decimal.Zero,
	}

	seenVendor := make(map[string]bool)
	packCounts := make(map[int]int)
	volume := decimal.Zero

	for _, r := range sorted {
		if r.Key() != key {
			return AggregateGroup{}, ErrMixedGroup
		}
		g.City = minNonEmpty(g.City, r.City)
		g.County = minNonEmpty(g.County, r.County)
		g.ZipCode = minNonEmpty(g.ZipCode, r.ZipCode)

		if r.VendorName != "" && !seenVendor[r.VendorName] {
			seenVendor[r.VendorName] = true
			g.Vendors = append(g.Vendors, r.VendorName)
		}

		g.TotalOrders++
		g.TotalBottles += r.SaleBottles
		g.TotalSales = g.TotalSales.Add(r.SaleDollars)
		g.TotalLiters = g.TotalLiters.Add(r.SaleLiters)
		volume = volume.Add(decimal.NewFromInt(int64(r.BottleVolumeML)))
		packCounts[r.Pack]++
	}

	g.AvgBottleVolumeML = volume.DivRound(decimal.NewFromInt(g.TotalOrders), avgPlaces)
	g.CommonPack = modePack(packCounts)
	return g, nil
}

// GroupRows partitions rows by group key and reduces each partition.
// Groups are returned in the pagination order used by aggregate sources:
// store, item, month, then first position.
func GroupRows(rows []TransactionRow) ([]AggregateGroup, error) {
	buckets := make(map[GroupKey][]TransactionRow)
	var order []GroupKey
	for _, r := range rows {
		k := r.Key()
		if _, ok := buckets[k]; !ok {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], r)
	}

	groups := make([]AggregateGroup, 0, len(order))
	for _, k := range order {
		g, err := ReduceGroup(buckets[k])
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	SortGroups(groups)
	return groups, nil
}

// SortGroups orders groups by store, item, month and first position.
func SortGroups(groups []AggregateGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.StoreName != b.StoreName {
			return a.StoreName < b.StoreName
		}
		if a.ItemDescription != b.ItemDescription {
			return a.ItemDescription < b.ItemDescription
		}
		if !a.Month.Equal(b.Month) {
			return a.Month.Before(b.Month)
		}
		return a.FirstPosition < b.FirstPosition
	})
}

func minNonEmpty(current, candidate string) string {
	if candidate == "" {
		return current
	}
	if current == "" || candidate < current {
		return candidate
	}
	return current
}

func modePack(counts map[int]int) int {
	best, bestCount := 0, -1
	for pack, n := range counts {
		if n > bestCount || (n == bestCount && pack < best) {
			best, bestCount = pack, n
		}
	}
	return best
}
