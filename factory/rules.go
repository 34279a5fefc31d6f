/*
Package factory provides JSON to Go rule-configuration conversion.

PURPOSE:
  Statutory thresholds change by ministerial decree (the pension wage
  threshold moved to 2,200,000 in 2022, for example). Parsing them from
  JSON means a threshold revision is a config change, not a code change,
  and lets an admin UI or config file drive the rule engine.

JSON SCHEMA:
  {
    "pension": {
      "min_days": 8,
      "min_hours": "60",
      "wage_threshold": "2200000",
      "age_cap": 60
    },
    "health": {"min_hours": "60"},
    "employment": {"senior_age": 65}
  }

  Hour and wage figures are decimal strings to avoid float drift. Omitted
  sections and fields keep the statutory defaults.

USAGE:
  cfg, err := factory.ParseRuleConfig(jsonBytes)
  engine := insurance.NewRuleEngine(cfg)

SEE ALSO:
  - insurance/rules.go: RuleConfig definition and defaults
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/insurance-engine/insurance"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type RuleConfigJSON struct {
	Pension    *PensionJSON    `json:"pension,omitempty"`
	Health     *HealthJSON     `json:"health,omitempty"`
	Employment *EmploymentJSON `json:"employment,omitempty"`
}

type PensionJSON struct {
	MinDays       *int   `json:"min_days,omitempty"`
	MinHours      string `json:"min_hours,omitempty"`
	WageThreshold string `json:"wage_threshold,omitempty"`
	AgeCap        *int   `json:"age_cap,omitempty"`
}

type HealthJSON struct {
	MinHours string `json:"min_hours,omitempty"`
}

type EmploymentJSON struct {
	SeniorAge *int `json:"senior_age,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseRuleConfig builds a RuleConfig from JSON, starting from the
// statutory defaults and applying only the fields present.
func ParseRuleConfig(data []byte) (insurance.RuleConfig, error) {
	cfg := insurance.DefaultRuleConfig()
	if len(data) == 0 {
		return cfg, nil
	}

	var j RuleConfigJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return cfg, fmt.Errorf("parse rule config: %w", err)
	}

	if p := j.Pension; p != nil {
		if p.MinDays != nil {
			cfg.PensionMinDays = *p.MinDays
		}
		if p.MinHours != "" {
			d, err := decimal.NewFromString(p.MinHours)
			if err != nil {
				return cfg, fmt.Errorf("pension.min_hours: %w", err)
			}
			cfg.PensionMinHours = d
		}
		if p.WageThreshold != "" {
			d, err := decimal.NewFromString(p.WageThreshold)
			if err != nil {
				return cfg, fmt.Errorf("pension.wage_threshold: %w", err)
			}
			cfg.PensionWageThreshold = d
		}
		if p.AgeCap != nil {
			cfg.PensionAgeCap = *p.AgeCap
		}
	}
	if h := j.Health; h != nil && h.MinHours != "" {
		d, err := decimal.NewFromString(h.MinHours)
		if err != nil {
			return cfg, fmt.Errorf("health.min_hours: %w", err)
		}
		cfg.HealthMinHours = d
	}
	if e := j.Employment; e != nil && e.SeniorAge != nil {
		cfg.SeniorAge = *e.SeniorAge
	}

	return cfg, validate(cfg)
}

func validate(cfg insurance.RuleConfig) error {
	if cfg.PensionMinDays <= 0 {
		return fmt.Errorf("pension.min_days must be positive")
	}
	if !cfg.PensionMinHours.IsPositive() || !cfg.HealthMinHours.IsPositive() {
		return fmt.Errorf("hour thresholds must be positive")
	}
	if !cfg.PensionWageThreshold.IsPositive() {
		return fmt.Errorf("pension.wage_threshold must be positive")
	}
	if cfg.PensionAgeCap <= 0 || cfg.SeniorAge <= 0 {
		return fmt.Errorf("age thresholds must be positive")
	}
	return nil
}
