package testutil

import (
	"fmt"
	"testing"

	"github.com/specialistvlad/transformgrid/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ChainReport returns the report of the named chain from the last run.
func ChainReport(t *testing.T, result *HarnessResult, chain string) app.ChainReport {
	t.Helper()
	require.NotNil(t, result.App, "app was not created: %v", result.Err)
	for _, r := range result.App.Reports() {
		if r.Name == chain {
			return r
		}
	}
	require.Failf(t, "chain not reported", "chain '%s' has no report", chain)
	return app.ChainReport{}
}

// AssertChainSucceeded checks that the named chain produced files and
// returns them.
func AssertChainSucceeded(t *testing.T, result *HarnessResult, chain string) []string {
	t.Helper()
	r := ChainReport(t, result, chain)
	require.NoError(t, r.Err, "chain '%s' failed", chain)
	return r.Files
}

// AssertChainFailed checks that the named chain failed with an error
// containing msg.
func AssertChainFailed(t *testing.T, result *HarnessResult, chain, msg string) {
	t.Helper()
	r := ChainReport(t, result, chain)
	require.Error(t, r.Err, "chain '%s' should have failed", chain)
	assert.Contains(t, r.Err.Error(), msg)
}

// AssertTransformLogged checks the log output for the progress line of a
// transform of subject by step.
func AssertTransformLogged(t *testing.T, result *HarnessResult, subject, step string) {
	t.Helper()
	expected := fmt.Sprintf(`msg="Transforming %s with %s"`, subject, step)
	assert.Contains(t, result.LogOutput, expected, "no progress line for step '%s' on '%s'", step, subject)
}
