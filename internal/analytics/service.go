package analytics

import (
	"context"
	"fmt"

	"github.com/voltline/voltline-backend/internal/analytics/query"
	"github.com/voltline/voltline-backend/internal/analytics/types"
	"github.com/voltline/voltline-backend/pkg/bigquery"
)

// Service provides supplier KPI reports based on storefront events.
type Service interface {
	// Query returns supplier KPIs for the provided request.
	Query(ctx context.Context, req types.SupplierQueryRequest) (*types.SupplierQueryResponse, error)
}

type service struct {
	supplier query.SupplierService
}

// NewService builds an analytics service backed by BigQuery.
func NewService(client *bigquery.Client, project, dataset, table string) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}

	supplier, err := query.NewSupplierService(client, project, dataset, table)
	if err != nil {
		return nil, err
	}

	return &service{supplier: supplier}, nil
}

func (s *service) Query(ctx context.Context, req types.SupplierQueryRequest) (*types.SupplierQueryResponse, error) {
	return s.supplier.Query(ctx, req)
}
