package train

import (
	"bytes"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/openfluke/lazy/graph"
	"github.com/openfluke/lazy/mat"
)

// Observer receives an event after every optimizer step.
type Observer interface {
	OnStep(event StepEvent)
}

// StepEvent summarises one optimizer step.
type StepEvent struct {
	Step         int           `json:"step"`
	LearningRate float64       `json:"learning_rate"`
	Loss         float64       `json:"loss"` // mean of the pre-update loss value
	Optimizer    string        `json:"optimizer"`
	Duration     time.Duration `json:"duration_ns"`
	Gradients    []GradStats   `json:"gradients"`
}

// GradStats describes the gradient of one variable.
type GradStats struct {
	Variable string  `json:"variable"`
	Norm     float64 `json:"norm"`
	Mean     float64 `json:"mean"`
	Max      float64 `json:"max"`
	Min      float64 `json:"min"`
	Size     int     `json:"size"`
}

// computeGradStats calculates summary statistics for a gradient matrix
func computeGradStats[T mat.Float](name string, grad *mat.Dense[T]) GradStats {
	data := grad.Data()
	if len(data) == 0 {
		return GradStats{Variable: name}
	}

	var sum, sq float64
	max := float64(data[0])
	min := float64(data[0])
	for _, v := range data {
		f := float64(v)
		sum += f
		sq += f * f
		if f > max {
			max = f
		}
		if f < min {
			min = f
		}
	}

	return GradStats{
		Variable: name,
		Norm:     math.Sqrt(sq),
		Mean:     sum / float64(len(data)),
		Max:      max,
		Min:      min,
		Size:     len(data),
	}
}

func gradStats[T mat.Float](vars []*graph.Node[T], grads []*mat.Dense[T]) []GradStats {
	stats := make([]GradStats, len(vars))
	for i, v := range vars {
		stats[i] = computeGradStats(v.String(), grads[i])
	}
	return stats
}

// =============================================================================
// Observer Implementations
// =============================================================================

// ConsoleObserver logs step events
type ConsoleObserver struct {
	Logger  *log.Logger // defaults to stderr
	Every   int         // log every N steps (0 = every step)
	Verbose bool        // If true, log per-variable gradient stats
}

func (o *ConsoleObserver) OnStep(event StepEvent) {
	if o.Every > 1 && event.Step%o.Every != 0 {
		return
	}
	logger := o.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	logger.Printf("[STEP %d] %s lr=%.4g loss=%.6f (%s)",
		event.Step, event.Optimizer, event.LearningRate, event.Loss, event.Duration)

	if o.Verbose {
		for _, g := range event.Gradients {
			logger.Printf("       %s: norm=%.4g mean=%.4g max=%.4g min=%.4g",
				g.Variable, g.Norm, g.Mean, g.Max, g.Min)
		}
	}
}

// HTTPObserver posts step events as JSON to an HTTP endpoint (for visualization)
type HTTPObserver struct {
	URL    string
	client *http.Client
}

func NewHTTPObserver(url string) *HTTPObserver {
	return &HTTPObserver{
		URL: url,
		client: &http.Client{
			Timeout: 100 * time.Millisecond, // Fast timeout to not block training
		},
	}
}

func (o *HTTPObserver) OnStep(event StepEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	// Fire and forget
	go func() {
		resp, err := o.client.Post(o.URL, "application/json", bytes.NewReader(data))
		if err == nil && resp != nil {
			resp.Body.Close()
		}
	}()
}

// ChannelObserver sends events to a Go channel (for internal processing)
type ChannelObserver struct {
	Events chan StepEvent
}

func NewChannelObserver(bufferSize int) *ChannelObserver {
	return &ChannelObserver{
		Events: make(chan StepEvent, bufferSize),
	}
}

func (o *ChannelObserver) OnStep(event StepEvent) {
	select {
	case o.Events <- event:
	default:
		// Channel full, drop event to avoid blocking
	}
}
