package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

// missingValue replaces aggregate fields the source left empty.
const missingValue = "Unknown"

// DocumentSynthesizer renders aggregate groups into embeddable documents.
// It is a pure transformation and never touches the aggregate store.
type DocumentSynthesizer struct{}

// NewDocumentSynthesizer creates a new synthesizer.
func NewDocumentSynthesizer() *DocumentSynthesizer {
	return &DocumentSynthesizer{}
}

// Synthesize produces one Document per group, preserving order.
func (s *DocumentSynthesizer) Synthesize(groups []domain.AggregateGroup) []domain.Document {
	docs := make([]domain.Document, 0, len(groups))
	for i := range groups {
		docs = append(docs, s.Document(&groups[i]))
	}
	return docs
}

// Document renders a single group.
func (s *DocumentSynthesizer) Document(g *domain.AggregateGroup) domain.Document {
	id := domain.RecordID(g.StoreName, g.ItemDescription, g.Month)
	return domain.Document{
		RecordID: id,
		Summary:  s.Summary(g),
		Metadata: domain.DocumentMetadata{
			RecordID:        id,
			StoreName:       g.StoreName,
			ItemDescription: g.ItemDescription,
			CategoryName:    g.CategoryName,
			Month:           g.Month.UTC().Format(domain.MonthLayout),
			City:            g.City,
			County:          g.County,
			ZipCode:         g.ZipCode,
		},
	}
}

// Summary renders the natural-language sentence for a group.
// Average volume and liters are truncated to whole units.
func (s *DocumentSynthesizer) Summary(g *domain.AggregateGroup) string {
	var b strings.Builder

	fmt.Fprintf(&b, "In %s, %s in %s, %s (ZIP: %s) sold %s bottles of \"%s\" (%s) for a total of $%s.",
		g.Month.UTC().Format("January 2006"),
		orMissing(g.StoreName),
		orMissing(g.City),
		orMissing(g.County),
		orMissing(g.ZipCode),
		humanize.Comma(g.TotalBottles),
		orMissing(g.ItemDescription),
		orMissing(g.CategoryName),
		formatMoney(g.TotalSales),
	)
	fmt.Fprintf(&b, " This was across %s orders.", humanize.Comma(g.TotalOrders))
	fmt.Fprintf(&b, " Average bottle size was %sml, usually in %s-packs.",
		humanize.Comma(g.AvgBottleVolumeML.IntPart()),
		packLabel(g.CommonPack),
	)
	fmt.Fprintf(&b, " Vendors included: %s.", orMissing(strings.Join(g.Vendors, ", ")))
	fmt.Fprintf(&b, " Total volume: %s liters.", humanize.Comma(g.TotalLiters.IntPart()))

	return b.String()
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missingValue
	}
	return s
}

func packLabel(pack int) string {
	if pack <= 0 {
		return missingValue
	}
	return strconv.Itoa(pack)
}

// formatMoney renders d with thousands separators and two decimals.
func formatMoney(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return d.StringFixed(2)
	}
	out := humanize.Comma(n) + "." + frac
	if d.IsNegative() && !d.Round(2).IsZero() {
		out = "-" + out
	}
	return out
}
