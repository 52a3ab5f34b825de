package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Metadata keys stored alongside every indexed document.
const (
	MetaRecordID        = "record_id"
	MetaStoreName       = "store_name"
	MetaItemDescription = "item_description"
	MetaCategoryName    = "category_name"
	MetaMonth           = "month"
	MetaCity            = "city"
	MetaCounty          = "county"
	MetaZipCode         = "zipcode"
)

// MetadataKeys lists every filterable metadata key.
func MetadataKeys() []string {
	return []string{
		MetaRecordID,
		MetaStoreName,
		MetaItemDescription,
		MetaCategoryName,
		MetaMonth,
		MetaCity,
		MetaCounty,
		MetaZipCode,
	}
}

// Document is the embeddable unit produced from one AggregateGroup.
type Document struct {
	// RecordID is a pure function of store, item and month.
	RecordID string

	// Summary is the natural-language rendering of the group.
	Summary string

	Metadata DocumentMetadata
}

// DocumentMetadata is the structured data kept with a document in the index.
type DocumentMetadata struct {
	RecordID        string
	StoreName       string
	ItemDescription string
	CategoryName    string
	Month           string
	City            string
	County          string
	ZipCode         string
}

// Map flattens the metadata for index backends.
func (m DocumentMetadata) Map() map[string]string {
	return map[string]string{
		MetaRecordID:        m.RecordID,
		MetaStoreName:       m.StoreName,
		MetaItemDescription: m.ItemDescription,
		MetaCategoryName:    m.CategoryName,
		MetaMonth:           m.Month,
		MetaCity:            m.City,
		MetaCounty:          m.County,
		MetaZipCode:         m.ZipCode,
	}
}

// MetadataFromMap is the inverse of DocumentMetadata.Map.
func MetadataFromMap(m map[string]string) DocumentMetadata {
	return DocumentMetadata{
		RecordID:        m[MetaRecordID],
		StoreName:       m[MetaStoreName],
		ItemDescription: m[MetaItemDescription],
		CategoryName:    m[MetaCategoryName],
		Month:           m[MetaMonth],
		City:            m[MetaCity],
		County:          m[MetaCounty],
		ZipCode:         m[MetaZipCode],
	}
}

// RecordID derives the stable document identifier for a store, item and month.
func RecordID(store, item string, month time.Time) string {
	return fmt.Sprintf("%s-%s-%s", slug(store), slug(item), month.UTC().Format(MonthLayout))
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}

// ScoredDocument pairs a retrieved document with its relevance score.
// Higher scores are more relevant.
type ScoredDocument struct {
	Document Document
	Score    float64
}

// MetadataFilter restricts a similarity search to documents whose metadata
// matches every entry exactly.
type MetadataFilter map[string]string

// Validate rejects unknown keys and empty values.
func (f MetadataFilter) Validate() error {
	known := make(map[string]bool)
	for _, k := range MetadataKeys() {
		known[k] = true
	}
	for k, v := range f {
		if !known[k] {
			return fmt.Errorf("%w: unknown key %q", ErrInvalidFilter, k)
		}
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: empty value for %q", ErrInvalidFilter, k)
		}
	}
	return nil
}

// Matches reports whether the metadata satisfies every filter entry.
func (f MetadataFilter) Matches(m DocumentMetadata) bool {
	flat := m.Map()
	for k, v := range f {
		if flat[k] != v {
			return false
		}
	}
	return true
}

// Keys returns the filter keys in sorted order.
func (f MetadataFilter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
