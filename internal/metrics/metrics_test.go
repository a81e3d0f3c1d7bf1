package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Once(t *testing.T) {
	reg := prometheus.NewRegistry()

	Register(reg)
	Register(reg)

	Migrations.WithLabelValues("replace", "ok").Inc()
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(SourceRequests.WithLabelValues("7", "search", "ok"))
	SourceRequests.WithLabelValues(SourceLabel(7), "search", Outcome(nil)).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SourceRequests.WithLabelValues("7", "search", "ok")))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "error", Outcome(errors.New("x")))
}
