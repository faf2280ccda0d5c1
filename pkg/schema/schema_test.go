package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
route:
  receiver: team-x
  group_wait: 30s
  routes:
    - receiver: team-y
      matchers:
        - severity="critical"
receivers:
  - name: team-x
    webhook_configs:
      - url: http://example.com/hook
  - name: team-y
    email_configs:
      - to: oncall@example.com
`

func TestParseValidConfig(t *testing.T) {
	cfg, err := Parse(validConfig)
	require.NoError(t, err)
	require.NotNil(t, cfg.Route)
	assert.Equal(t, "team-x", cfg.Route.Receiver)
	assert.Len(t, cfg.Receivers, 2)
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := Parse("route: [unclosed")
	require.Error(t, err)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(`
route:
  receiver: team-x
  not_a_real_field: true
receivers:
  - name: team-x
`)
	require.Error(t, err)
}

func TestParseEmptyDocument(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
}

func TestParseRejectsTrailingDocument(t *testing.T) {
	_, err := Parse(validConfig + "\n---\nroute:\n  receiver: other\n")
	require.Error(t, err)
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg, err := Parse(validConfig)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
}

func TestValidateMissingRoute(t *testing.T) {
	cfg, err := Parse(`
receivers:
  - name: team-x
`)
	require.NoError(t, err)

	err = Validate(cfg)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CategoryRoute, verr.Category)
}

func TestValidateMissingTopLevelReceiver(t *testing.T) {
	cfg, err := Parse(`
route:
  group_wait: 30s
receivers:
  - name: team-x
`)
	require.NoError(t, err)
	require.Error(t, Validate(cfg))
}

func TestValidateUndefinedReceiverReference(t *testing.T) {
	cfg, err := Parse(`
route:
  receiver: nobody
receivers:
  - name: team-x
`)
	require.NoError(t, err)

	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nobody")
}

func TestValidateDuplicateReceiverNames(t *testing.T) {
	cfg, err := Parse(`
route:
  receiver: team-x
receivers:
  - name: team-x
  - name: team-x
`)
	require.NoError(t, err)

	var verr *ValidationError
	require.ErrorAs(t, Validate(cfg), &verr)
	assert.Equal(t, CategoryReceiver, verr.Category)
}

func TestValidateBadDuration(t *testing.T) {
	cfg, err := Parse(`
route:
  receiver: team-x
  group_wait: soon
receivers:
  - name: team-x
`)
	require.NoError(t, err)
	require.Error(t, Validate(cfg))
}

func TestValidateUndefinedTimeInterval(t *testing.T) {
	cfg, err := Parse(`
route:
  receiver: team-x
  mute_time_intervals:
    - weekends
receivers:
  - name: team-x
`)
	require.NoError(t, err)
	require.Error(t, Validate(cfg))
}

func TestValidateRemovingRequiredFieldStaysParseable(t *testing.T) {
	// A document that loses a required field remains well-formed YAML; it
	// must fail validation, not parsing.
	cfg, err := Parse(`
route:
  group_wait: 30s
receivers:
  - name: team-x
`)
	require.NoError(t, err)
	require.Error(t, Validate(cfg))
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg, err := Parse(`
route:
  receiver: ghost
  group_wait: nope
receivers:
  - name: team-x
  - name: team-x
`)
	require.NoError(t, err)

	var verr *ValidationError
	require.ErrorAs(t, Validate(cfg), &verr)
	assert.GreaterOrEqual(t, len(verr.Messages), 3)
}
