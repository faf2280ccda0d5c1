package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// TenantActivity aggregates validation and publish totals for one tenant.
type TenantActivity struct {
	Tenant          string `json:"tenant"`
	Validations     int64  `json:"validations"`
	InvalidVerdicts int64  `json:"invalid_verdicts"`
	Publishes       int64  `json:"publishes"`
	FailedPublishes int64  `json:"failed_publishes"`
}

// QueryService provides methods to query editor metrics from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a metrics query service for the given Prometheus URL.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetTenantActivity retrieves aggregated validation and publish counts for a
// tenant across all sessions and cadences.
func (q *QueryService) GetTenantActivity(ctx context.Context, tenant string) (*TenantActivity, error) {
	activity := &TenantActivity{
		Tenant: tenant,
	}

	var err error
	if activity.Validations, err = q.sum(ctx,
		fmt.Sprintf(`sum(ameditor_validations_total{tenant=%q})`, tenant)); err != nil {
		return nil, fmt.Errorf("failed to query validations: %w", err)
	}

	invalidQuery := fmt.Sprintf(
		`sum(ameditor_validations_total{tenant=%q, outcome=~"parse_error|schema_error|marker_short_circuit"})`,
		tenant)
	if activity.InvalidVerdicts, err = q.sum(ctx, invalidQuery); err != nil {
		return nil, fmt.Errorf("failed to query invalid verdicts: %w", err)
	}

	if activity.Publishes, err = q.sum(ctx,
		fmt.Sprintf(`sum(ameditor_publishes_total{tenant=%q})`, tenant)); err != nil {
		return nil, fmt.Errorf("failed to query publishes: %w", err)
	}

	failedQuery := fmt.Sprintf(
		`sum(ameditor_publishes_total{tenant=%q, status=~"rejected|failed"})`, tenant)
	if activity.FailedPublishes, err = q.sum(ctx, failedQuery); err != nil {
		return nil, fmt.Errorf("failed to query failed publishes: %w", err)
	}

	return activity, nil
}

// sum runs an instant query and returns the first sample value, or zero when
// the series does not exist yet.
func (q *QueryService) sum(ctx context.Context, query string) (int64, error) {
	result, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}

	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		return int64(vector[0].Value), nil
	}
	return 0, nil
}
