package train

import (
	"encoding/json"
	"os"

	"github.com/openfluke/lazy/mat"
	"github.com/pkg/errors"
)

var (
	ErrUnknownOptimizer = errors.New("train: unknown optimizer")
	ErrUnknownSchedule  = errors.New("train: unknown learning rate schedule")
)

// Config holds the optimizer and schedule settings of a training run.
// Zero values select the defaults noted per field.
type Config struct {
	// Optimizer settings
	Optimizer    string  `json:"optimizer"` // "sgd", "momentum" (or "sgd_momentum"), "adam", "rmsprop"
	LearningRate float64 `json:"learning_rate"`
	Beta1        float64 `json:"beta1"`     // Adam (default: 0.9)
	Beta2        float64 `json:"beta2"`     // Adam (default: 0.999)
	Epsilon      float64 `json:"epsilon"`   // Adam/RMSprop epsilon (default: 1e-8)
	Momentum     float64 `json:"momentum"`  // momentum (default: 0.9), RMSprop (default: 0)
	Dampening    float64 `json:"dampening"` // momentum (default: 0)
	Nesterov     bool    `json:"nesterov"`
	Alpha        float64 `json:"alpha"` // RMSprop decay rate (default: 0.99)

	// Scheduler settings
	LRSchedule  string  `json:"lr_schedule"` // "constant", "linear", "cosine", "exponential", "warmup", "step", "polynomial"
	WarmupSteps int     `json:"warmup_steps"`
	TotalSteps  int     `json:"total_steps"`
	MinLR       float64 `json:"min_lr"`
	DecayRate   float64 `json:"decay_rate"`
	DecaySteps  int     `json:"decay_steps"`
	StepSize    int     `json:"step_size"`
	Power       float64 `json:"power"` // polynomial (default: 1.0)

	LogEvery int `json:"log_every"` // default: 100
}

// ParseConfig decodes a JSON configuration.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "train: parse config")
	}
	if cfg.LogEvery == 0 {
		cfg.LogEvery = 100
	}
	return &cfg, nil
}

// LoadConfig reads and decodes a JSON configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "train: read config %s", path)
	}
	return ParseConfig(data)
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// FromConfig builds the optimizer described by cfg, including its schedule.
func FromConfig[T mat.Float](cfg *Config) (*Optimizer[T], error) {
	var method Method[T]
	switch cfg.Optimizer {
	case "sgd", "":
		method = NewGradientDescent[T]()

	case "momentum", "sgd_momentum":
		method = NewMomentumWithDampening[T](orDefault(cfg.Momentum, 0.9), cfg.Dampening, cfg.Nesterov)

	case "adam":
		method = NewAdam[T](
			orDefault(cfg.Beta1, 0.9),
			orDefault(cfg.Beta2, 0.999),
			orDefault(cfg.Epsilon, 1e-8),
		)

	case "rmsprop":
		method = NewRMSprop[T](orDefault(cfg.Alpha, 0.99), orDefault(cfg.Epsilon, 1e-8), cfg.Momentum)

	default:
		return nil, errors.Wrapf(ErrUnknownOptimizer, "%q", cfg.Optimizer)
	}

	sched, err := NewScheduler(cfg)
	if err != nil {
		return nil, err
	}
	return New[T](cfg.LearningRate, method).WithScheduler(sched), nil
}

// NewScheduler builds the learning rate schedule described by cfg.
func NewScheduler(cfg *Config) (Scheduler, error) {
	lr := cfg.LearningRate
	switch cfg.LRSchedule {
	case "constant", "":
		return NewConstantScheduler(lr), nil

	case "linear":
		// Default to 1% of initial LR
		return NewLinearDecayScheduler(lr, orDefault(cfg.MinLR, lr*0.01), cfg.TotalSteps), nil

	case "cosine":
		return NewCosineAnnealingScheduler(lr, cfg.MinLR, cfg.TotalSteps), nil

	case "exponential":
		decaySteps := cfg.DecaySteps
		if decaySteps == 0 {
			decaySteps = 1000
		}
		return NewExponentialDecayScheduler(lr, orDefault(cfg.DecayRate, 0.96), decaySteps), nil

	case "step":
		stepSize := cfg.StepSize
		if stepSize == 0 {
			stepSize = 10000
		}
		return NewStepDecayScheduler(lr, orDefault(cfg.DecayRate, 0.1), stepSize), nil

	case "polynomial":
		return NewPolynomialDecayScheduler(lr, cfg.MinLR, cfg.TotalSteps, orDefault(cfg.Power, 1.0)), nil

	case "warmup":
		return NewWarmupScheduler(cfg.WarmupSteps, cfg.MinLR, lr, NewConstantScheduler(lr)), nil
	}
	return nil, errors.Wrapf(ErrUnknownSchedule, "%q", cfg.LRSchedule)
}
