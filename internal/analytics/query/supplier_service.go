package query

import (
	"context"
	"fmt"

	cloudbigquery "cloud.google.com/go/bigquery"
	"github.com/voltline/voltline-backend/internal/analytics/types"
	"github.com/voltline/voltline-backend/pkg/bigquery"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// Supplier attribution rides on the items JSON embedded in order_created
// rows; every query below unnests it and filters on $.supplier_id.
const (
	supplierOrdersSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  COUNT(DISTINCT order_id) AS value
FROM %s, UNNEST(JSON_EXTRACT_ARRAY(items)) AS item
WHERE event_type = 'order_created'
  AND items IS NOT NULL
  AND JSON_VALUE(item, '$.supplier_id') = @supplierID
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	supplierRevenueSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  SUM(COALESCE(SAFE_CAST(JSON_VALUE(item, '$.line_subtotal_cents') AS INT64), 0)) AS value
FROM %s, UNNEST(JSON_EXTRACT_ARRAY(items)) AS item
WHERE event_type = 'order_created'
  AND items IS NOT NULL
  AND JSON_VALUE(item, '$.supplier_id') = @supplierID
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	supplierEngravingSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  SUM(COALESCE(SAFE_CAST(JSON_VALUE(item, '$.engraving_fee_cents') AS INT64), 0)
      * COALESCE(SAFE_CAST(JSON_VALUE(item, '$.quantity') AS INT64), 0)) AS value
FROM %s, UNNEST(JSON_EXTRACT_ARRAY(items)) AS item
WHERE event_type = 'order_created'
  AND items IS NOT NULL
  AND JSON_VALUE(item, '$.supplier_id') = @supplierID
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	supplierTopProductsSQL = `
SELECT label, SUM(value) AS value FROM (
  SELECT
    JSON_VALUE(item, '$.title') AS label,
    SAFE_CAST(JSON_VALUE(item, '$.line_subtotal_cents') AS INT64) AS value
  FROM %s, UNNEST(JSON_EXTRACT_ARRAY(items)) AS item
  WHERE event_type = 'order_created'
    AND items IS NOT NULL
    AND JSON_VALUE(item, '$.supplier_id') = @supplierID
    AND occurred_at BETWEEN @start AND @end
)
WHERE label IS NOT NULL
GROUP BY label
ORDER BY value DESC
LIMIT 5
`

	supplierAOVSQL = `
SELECT SAFE_DIVIDE(
  SUM(COALESCE(SAFE_CAST(JSON_VALUE(item, '$.line_subtotal_cents') AS INT64), 0)),
  NULLIF(COUNT(DISTINCT order_id), 0)) AS value
FROM %s, UNNEST(JSON_EXTRACT_ARRAY(items)) AS item
WHERE event_type = 'order_created'
  AND items IS NOT NULL
  AND JSON_VALUE(item, '$.supplier_id') = @supplierID
  AND occurred_at BETWEEN @start AND @end
`
)

// SupplierService provides portal dashboard data from BigQuery storefront_events.
type SupplierService interface {
	Query(ctx context.Context, req types.SupplierQueryRequest) (*types.SupplierQueryResponse, error)
}

type supplierService struct {
	client   *bigquery.Client
	tableRef string
}

// NewSupplierService builds a service backed by BigQuery.
func NewSupplierService(client *bigquery.Client, project, dataset, table string) (SupplierService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if project == "" || dataset == "" || table == "" {
		return nil, fmt.Errorf("project, dataset, and table are required")
	}
	return &supplierService{
		client:   client,
		tableRef: fmt.Sprintf("`%s.%s.%s`", project, dataset, table),
	}, nil
}

func (s *supplierService) Query(ctx context.Context, req types.SupplierQueryRequest) (*types.SupplierQueryResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	params := s.baseParams(req)

	orders, err := s.querySeries(ctx, fmt.Sprintf(supplierOrdersSeriesSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	grossRevenue, err := s.querySeries(ctx, fmt.Sprintf(supplierRevenueSeriesSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	engravingRevenue, err := s.querySeries(ctx, fmt.Sprintf(supplierEngravingSeriesSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	topProducts, err := s.queryTopLabels(ctx, fmt.Sprintf(supplierTopProductsSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	aov, err := s.queryAOV(ctx, fmt.Sprintf(supplierAOVSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}

	return &types.SupplierQueryResponse{
		OrdersSeries:     orders,
		GrossRevenue:     grossRevenue,
		EngravingRevenue: engravingRevenue,
		TopProducts:      topProducts,
		AOV:              aov,
	}, nil
}

func validateRequest(req types.SupplierQueryRequest) error {
	if req.SupplierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if req.End.Before(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func (s *supplierService) baseParams(req types.SupplierQueryRequest) []cloudbigquery.QueryParameter {
	return []cloudbigquery.QueryParameter{
		{Name: "supplierID", Value: req.SupplierID.String()},
		{Name: "start", Value: req.Start},
		{Name: "end", Value: req.End},
	}
}

func (s *supplierService) querySeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TimeSeriesPoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}

	var points []types.TimeSeriesPoint
	for {
		var row struct {
			Day   string `bigquery:"day"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading series row: %w", err)
		}
		points = append(points, types.TimeSeriesPoint{Date: row.Day, Value: row.Value})
	}
	return points, nil
}

func (s *supplierService) queryTopLabels(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.LabelValue, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query top labels: %w", err)
	}

	var result []types.LabelValue
	for {
		var row struct {
			Label string `bigquery:"label"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading top label row: %w", err)
		}
		result = append(result, types.LabelValue{Label: row.Label, Value: row.Value})
	}
	return result, nil
}

func (s *supplierService) queryAOV(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (float64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query aov: %w", err)
	}
	var row struct {
		Value cloudbigquery.NullFloat64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading aov row: %w", err)
	}
	if !row.Value.Valid {
		return 0, nil
	}
	return row.Value.Float64, nil
}
