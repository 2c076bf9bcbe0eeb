package planner

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig("arm", map[string]interface{}{}, 6)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ControlCostWeight, test.ShouldEqual, 0.0)
	test.That(t, cfg.InitializationMethod, test.ShouldEqual, LinearInterpolation)
	test.That(t, cfg.NumTimesteps, test.ShouldEqual, 40)
	test.That(t, cfg.DeltaT, test.ShouldEqual, 1.0)
	test.That(t, cfg.NumIterations, test.ShouldEqual, 50)
	test.That(t, cfg.NumIterationsAfterValid, test.ShouldEqual, 0)
	test.That(t, cfg.MaxRollouts, test.ShouldEqual, 100)
	test.That(t, cfg.NumRollouts, test.ShouldEqual, 10)
	test.That(t, cfg.CostSensitivity, test.ShouldEqual, 10.0)
	test.That(t, cfg.NumDimensions, test.ShouldEqual, 6)
}

func TestParseConfigOverrides(t *testing.T) {
	section := map[string]interface{}{
		"num_timesteps":                  60,
		"control_cost_weight":            0.5,
		"exponentiated_cost_sensitivity": 4.0,
		"an_unrecognized_key":            "ignored",
	}
	cfg, err := parseConfig("arm", section, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.NumTimesteps, test.ShouldEqual, 60)
	test.That(t, cfg.ControlCostWeight, test.ShouldEqual, 0.5)
	test.That(t, cfg.CostSensitivity, test.ShouldEqual, 4.0)
	// untouched keys keep their defaults
	test.That(t, cfg.NumIterations, test.ShouldEqual, 50)
}

func TestParseConfigNoActiveJoints(t *testing.T) {
	_, err := parseConfig("arm", map[string]interface{}{}, 0)
	var cfgErr *ConfigError
	test.That(t, errors.As(err, &cfgErr), test.ShouldBeTrue)
	test.That(t, cfgErr.Group, test.ShouldEqual, "arm")
}
