package metrics_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-authflow/pkg/engine"
	"github.com/goliatone/go-authflow/pkg/flows"
	"github.com/goliatone/go-authflow/pkg/metrics"
	"github.com/goliatone/go-authflow/pkg/model"
	"github.com/goliatone/go-authflow/pkg/testsupport"
)

func TestCollectorCountsEngineEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	fake := testsupport.NewFake()
	e, err := engine.New(testsupport.MustFlow(t, flows.FlowResetPassword), fake.Collaborators(),
		engine.WithClock(testsupport.NewClock()),
		engine.WithObserver(collector),
	)
	require.NoError(t, err)
	defer e.Close()

	ctx := context.Background()
	e.RequestVerificationCode(ctx, "123")
	e.RequestVerificationCode(ctx, "13800138000")
	e.RequestVerificationCode(ctx, "13800138000")

	require.NoError(t, e.SetFields(model.FormState{
		"phone": "13800138000", "verifyCode": "123456",
		"newPassword": "abc12345", "confirmPassword": "abc12345",
	}))
	require.True(t, e.SubmitStep(ctx, 0).OK())
	require.True(t, e.SubmitStep(ctx, 1).OK())

	flow := flows.FlowResetPassword
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CodeRequests.WithLabelValues(flow, "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CodeRequests.WithLabelValues(flow, "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CodeRequests.WithLabelValues(flow, "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.StepSubmissions.WithLabelValues(flow, "verify", "advanced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.StepSubmissions.WithLabelValues(flow, "new-password", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Completions.WithLabelValues(flow)))

	assert.Equal(t, 3, testutil.CollectAndCount(collector.CodeRequests))
}

func TestNewCollector_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg)
	assert.Panics(t, func() { metrics.NewCollector(reg) })
}
