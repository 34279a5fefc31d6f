package factory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/insurance-engine/factory"
	"github.com/warp/insurance-engine/insurance"
)

func TestParseRuleConfig_EmptyKeepsStatutoryDefaults(t *testing.T) {
	cfg, err := factory.ParseRuleConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, insurance.DefaultRuleConfig(), cfg)

	cfg, err = factory.ParseRuleConfig([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, insurance.DefaultRuleConfig(), cfg)
}

func TestParseRuleConfig_AppliesPresentFieldsOnly(t *testing.T) {
	// GIVEN: A config revising the pension wage threshold and senior age
	// WHEN: Parsing
	// THEN: Those two change, everything else keeps the defaults

	data := []byte(`{
		"pension": {"wage_threshold": "2500000"},
		"employment": {"senior_age": 67}
	}`)

	cfg, err := factory.ParseRuleConfig(data)
	require.NoError(t, err)

	assert.True(t, cfg.PensionWageThreshold.Equal(decimal.NewFromInt(2_500_000)))
	assert.Equal(t, 67, cfg.SeniorAge)

	defaults := insurance.DefaultRuleConfig()
	assert.Equal(t, defaults.PensionMinDays, cfg.PensionMinDays)
	assert.True(t, cfg.PensionMinHours.Equal(defaults.PensionMinHours))
	assert.True(t, cfg.HealthMinHours.Equal(defaults.HealthMinHours))
	assert.Equal(t, defaults.PensionAgeCap, cfg.PensionAgeCap)
}

func TestParseRuleConfig_FullDocument(t *testing.T) {
	data := []byte(`{
		"pension": {
			"min_days": 10,
			"min_hours": "70",
			"wage_threshold": "2300000",
			"age_cap": 62
		},
		"health": {"min_hours": "65"},
		"employment": {"senior_age": 66}
	}`)

	cfg, err := factory.ParseRuleConfig(data)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.PensionMinDays)
	assert.True(t, cfg.PensionMinHours.Equal(decimal.NewFromInt(70)))
	assert.True(t, cfg.PensionWageThreshold.Equal(decimal.NewFromInt(2_300_000)))
	assert.Equal(t, 62, cfg.PensionAgeCap)
	assert.True(t, cfg.HealthMinHours.Equal(decimal.NewFromInt(65)))
	assert.Equal(t, 66, cfg.SeniorAge)
}

func TestParseRuleConfig_Rejections(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"malformed json", `{"pension":`},
		{"non-decimal hours", `{"pension": {"min_hours": "sixty"}}`},
		{"non-decimal wage", `{"pension": {"wage_threshold": "2,200,000"}}`},
		{"zero min days", `{"pension": {"min_days": 0}}`},
		{"negative age cap", `{"pension": {"age_cap": -1}}`},
		{"negative threshold", `{"health": {"min_hours": "-5"}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := factory.ParseRuleConfig([]byte(c.data))
			assert.Error(t, err)
		})
	}
}
