package planner

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// default values for the optimization configuration, matching the stock STOMP
// parameter set.
const (
	defaultControlCostWeight       = 0.0
	defaultNumTimesteps            = 40
	defaultDeltaT                  = 1.0
	defaultNumIterations           = 50
	defaultNumIterationsAfterValid = 0
	defaultMaxRollouts             = 100
	defaultNumRollouts             = 10
	defaultCostSensitivity         = 10.0

	// period of the wall-clock budget check during a solve.
	timeoutCheckInterval = 50 * time.Millisecond

	// max allowed L1 distance between a declared start or goal and the
	// corresponding seed endpoint, summed across joints.
	maxStartDistanceThresh = 0.5
)

// InitializationMethod selects how the optimizer builds its initial
// trajectory when no seed is provided.
type InitializationMethod int

// The supported initialization methods.
const (
	LinearInterpolation InitializationMethod = iota + 1
	CubicPolynomial
	MinimumControlCost
)

// Config holds the numeric parameters handed to the opaque optimizer. It is
// built once per setup by overriding defaults with the caller's optimization
// section; unknown keys are ignored.
type Config struct {
	ControlCostWeight       float64              `mapstructure:"control_cost_weight"`
	InitializationMethod    InitializationMethod `mapstructure:"initialization_method"`
	NumTimesteps            int                  `mapstructure:"num_timesteps"`
	DeltaT                  float64              `mapstructure:"delta_t"`
	NumIterations           int                  `mapstructure:"num_iterations"`
	NumIterationsAfterValid int                  `mapstructure:"num_iterations_after_valid"`
	MaxRollouts             int                  `mapstructure:"max_rollouts"`
	NumRollouts             int                  `mapstructure:"num_rollouts"`
	CostSensitivity         float64              `mapstructure:"exponentiated_cost_sensitivity"`

	// NumDimensions is always the group's active joint count, never a
	// caller-supplied value.
	NumDimensions int `mapstructure:"-"`
}

func defaultConfig() Config {
	return Config{
		ControlCostWeight:       defaultControlCostWeight,
		InitializationMethod:    LinearInterpolation,
		NumTimesteps:            defaultNumTimesteps,
		DeltaT:                  defaultDeltaT,
		NumIterations:           defaultNumIterations,
		NumIterationsAfterValid: defaultNumIterationsAfterValid,
		MaxRollouts:             defaultMaxRollouts,
		NumRollouts:             defaultNumRollouts,
		CostSensitivity:         defaultCostSensitivity,
	}
}

// parseConfig merges the optimization section over the defaults and binds the
// group's degrees of freedom. A group with no active joints is a hard
// configuration error.
func parseConfig(group string, section map[string]interface{}, dof int) (Config, error) {
	cfg := defaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(section); err != nil {
		return Config{}, NewConfigError(group, err.Error())
	}
	if dof == 0 {
		return Config{}, NewConfigError(group, "group has no active joints")
	}
	cfg.NumDimensions = dof
	return cfg, nil
}
