// Package search mirrors the transaction collection into Algolia for
// full-text dashboard search. The index is a convenience view; Firestore
// remains the source of truth.
package search

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/algolia/algoliasearch-client-go/v4/algolia/search"

	"github.com/omsharma/finbuddy/backend/internal/model"
)

// Config holds Algolia configuration.
type Config struct {
	AppID     string
	APIKey    string // Write-capable API key; the backend both indexes and queries.
	IndexName string
}

// Params defines the input for a transaction search.
type Params struct {
	Query    string
	UserID   string
	Category string
	// Amount range (₹)
	AmountMin float64
	AmountMax float64
	// Date range
	StartDate *time.Time
	EndDate   *time.Time
	// Transaction type filter, empty for both
	Type model.TransactionType
	// Pagination (offset-based)
	Page     int
	PageSize int
}

// Result is one search hit, reconstructed from the indexed record.
type Result struct {
	ID          string                `json:"id"`
	Merchant    string                `json:"merchant"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Amount      float64               `json:"amount"`
	Date        time.Time             `json:"date"`
	Type        model.TransactionType `json:"type"`
}

// Response holds results from Algolia.
type Response struct {
	Results    []Result `json:"results"`
	TotalCount int      `json:"totalCount"`
	TotalPages int      `json:"totalPages"`
	Page       int      `json:"page"`
}

// AlgoliaClient wraps the Algolia search API client.
type AlgoliaClient struct {
	client    *search.APIClient
	indexName string
}

// NewAlgoliaClient creates a new Algolia search client.
func NewAlgoliaClient(cfg Config) (*AlgoliaClient, error) {
	if cfg.AppID == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("algolia AppID and APIKey are required")
	}
	if cfg.IndexName == "" {
		cfg.IndexName = "finbuddy_transactions"
	}

	client, err := search.NewClient(cfg.AppID, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("creating algolia client: %w", err)
	}

	return &AlgoliaClient{
		client:    client,
		indexName: cfg.IndexName,
	}, nil
}

// IndexTransaction upserts one transaction into the index. objectID is the
// transaction ID, so re-indexing an updated transaction overwrites in place.
func (c *AlgoliaClient) IndexTransaction(ctx context.Context, txn *model.Transaction) error {
	record := map[string]any{
		"objectID":    txn.ID,
		"UserID":      txn.UserID,
		"Merchant":    txn.Merchant,
		"Description": txn.Description,
		"Category":    txn.Category,
		"Amount":      txn.Amount,
		"Type":        string(txn.Type),
		"Date":        txn.Date.Format(time.RFC3339),
		"DateUnix":    txn.Date.Unix(),
	}

	_, err := c.client.SaveObject(c.client.NewApiSaveObjectRequest(c.indexName, record))
	if err != nil {
		return fmt.Errorf("algolia save object: %w", err)
	}
	return nil
}

// RemoveTransaction deletes one transaction from the index.
func (c *AlgoliaClient) RemoveTransaction(ctx context.Context, txnID string) error {
	_, err := c.client.DeleteObject(c.client.NewApiDeleteObjectRequest(c.indexName, txnID))
	if err != nil {
		return fmt.Errorf("algolia delete object: %w", err)
	}
	return nil
}

// Search performs a full-text transaction search via Algolia.
func (c *AlgoliaClient) Search(ctx context.Context, params Params) (*Response, error) {
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	if pageSize > 100 {
		pageSize = 100
	}

	page := params.Page
	if page < 0 {
		page = 0
	}

	filters := buildFilters(params)

	searchParams := search.SearchParamsObjectAsSearchParams(
		search.NewSearchParamsObject().
			SetQuery(params.Query).
			SetHitsPerPage(int32(pageSize)).
			SetPage(int32(page)).
			SetFilters(filters),
	)

	resp, err := c.client.SearchSingleIndex(c.client.NewApiSearchSingleIndexRequest(c.indexName).WithSearchParams(searchParams))
	if err != nil {
		return nil, fmt.Errorf("algolia search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if result, ok := hitToResult(hit.AdditionalProperties); ok {
			results = append(results, result)
		}
	}

	totalCount := 0
	if resp.NbHits != nil {
		totalCount = int(*resp.NbHits)
	}
	totalPages := 0
	if resp.NbPages != nil {
		totalPages = int(*resp.NbPages)
	}

	return &Response{
		Results:    results,
		TotalCount: totalCount,
		TotalPages: totalPages,
		Page:       page,
	}, nil
}

// buildFilters constructs the Algolia filter string from search params.
// UserID is always enforced for security.
func buildFilters(params Params) string {
	var parts []string

	// Always filter by user for security
	if params.UserID != "" {
		parts = append(parts, fmt.Sprintf("UserID:%q", params.UserID))
	}

	if params.Category != "" {
		parts = append(parts, fmt.Sprintf("Category:%q", params.Category))
	}

	if params.Type != "" {
		parts = append(parts, fmt.Sprintf("Type:%q", string(params.Type)))
	}

	// Amount range
	if params.AmountMin > 0 {
		parts = append(parts, fmt.Sprintf("Amount >= %f", params.AmountMin))
	}
	if params.AmountMax > 0 {
		parts = append(parts, fmt.Sprintf("Amount <= %f", params.AmountMax))
	}

	// Date range (using DateUnix numeric field)
	if params.StartDate != nil {
		parts = append(parts, fmt.Sprintf("DateUnix >= %d", params.StartDate.Unix()))
	}
	if params.EndDate != nil {
		parts = append(parts, fmt.Sprintf("DateUnix <= %d", params.EndDate.Unix()))
	}

	return strings.Join(parts, " AND ")
}

// hitToResult converts an Algolia hit back to a Result.
func hitToResult(props map[string]any) (Result, bool) {
	var result Result

	if v, ok := props["objectID"].(string); ok {
		result.ID = v
	}
	if v, ok := props["Merchant"].(string); ok {
		result.Merchant = v
	}
	if v, ok := props["Description"].(string); ok {
		result.Description = v
	}
	if v, ok := props["Category"].(string); ok {
		result.Category = v
	}
	if v, ok := props["Amount"].(float64); ok {
		result.Amount = v
	}

	// Date, preferring the numeric DateUnix field
	if v, ok := props["DateUnix"].(float64); ok && v > 0 {
		result.Date = time.Unix(int64(v), 0).UTC()
	} else if v, ok := props["Date"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			result.Date = t
		}
	}

	if v, ok := props["Type"].(string); ok {
		switch strings.ToLower(v) {
		case string(model.TransactionExpense):
			result.Type = model.TransactionExpense
		case string(model.TransactionIncome):
			result.Type = model.TransactionIncome
		}
	}

	if result.ID == "" {
		log.Printf("algolia: skipping hit with no objectID")
		return Result{}, false
	}

	return result, true
}
