package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/learnadoodle/planner/internal/telemetry"
)

func TestSetup_NoopWithoutEndpoint(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), "planner", "test", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_WithEndpoint(t *testing.T) {
	// Non-routable address; nothing is exported because no spans are recorded.
	shutdown, err := telemetry.Setup(context.Background(), "planner", "test", "http://192.0.2.1:4318")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
