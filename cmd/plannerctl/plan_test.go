package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rampBundle = "../../internal/bundle/testdata/ramp.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		planFormat = "json"
		planRow = ""
		planBundle = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPlanCommand_JSON(t *testing.T) {
	out, err := execute(t, "plan", "--bundle", rampBundle, "--row", "20,80,1")
	require.NoError(t, err)

	var got planOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, domain.FeatureVector{20, 80, 1}, got.Row)
	assert.Equal(t, domain.FeatureVector{45, 0, 1}, got.Adaptation)
	assert.True(t, got.Valid)
	assert.Equal(t, domain.RegimeValidAll, got.Regime)
}

func TestPlanCommand_Human(t *testing.T) {
	out, err := execute(t, "plan", "--bundle", rampBundle, "--row", "20,80,1", "--format", "human")
	require.NoError(t, err)
	assert.Contains(t, out, "Model:      ramp")
	assert.Contains(t, out, "speed")
	assert.Contains(t, out, "20 -> 45")
}

func TestPlanCommand_Errors(t *testing.T) {
	_, err := execute(t, "plan", "--bundle", rampBundle, "--row", "1,2")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = execute(t, "plan", "--bundle", "missing.yaml", "--row", "1,2,3")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", rampBundle)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (3 features, 2 controllable, 4 reference rows)")
}

func TestParseRow(t *testing.T) {
	row, err := parseRow("20, 80.5,-1")
	require.NoError(t, err)
	assert.Equal(t, domain.FeatureVector{20, 80.5, -1}, row)

	_, err = parseRow("1,,2")
	assert.Error(t, err)
}
