package train

import (
	"time"

	"github.com/openfluke/lazy/graph"
	"github.com/openfluke/lazy/mat"
)

// Batches returns the feed for a given step, or false once data runs out.
type Batches[T mat.Float] func(step int) (graph.Feed[T], bool)

// Result holds the history of a Run.
type Result struct {
	Steps          int
	FinalLoss      float64
	LossHistory    []float64 // mean loss of every logEvery steps
	TotalTime      time.Duration
	StepsPerSecond float64
}

// Run calls step up to steps times with feeds from batches and records the
// mean loss of every logEvery steps. It stops at the first failing step.
func Run[T mat.Float](step StepFunc[T], batches Batches[T], steps, logEvery int) (*Result, error) {
	if logEvery <= 0 {
		logEvery = 1
	}
	result := &Result{LossHistory: make([]float64, 0, steps/logEvery)}

	start := time.Now()
	var accumulated float64
	count := 0
	for i := 0; i < steps; i++ {
		feed, ok := batches(i)
		if !ok {
			break // End of data
		}
		loss, err := step(feed)
		if err != nil {
			return result, err
		}
		result.Steps++
		accumulated += mean(loss)
		count++

		if count == logEvery {
			result.LossHistory = append(result.LossHistory, accumulated/float64(count))
			accumulated, count = 0, 0
		}
	}
	if count > 0 {
		result.LossHistory = append(result.LossHistory, accumulated/float64(count))
	}

	result.TotalTime = time.Since(start)
	if secs := result.TotalTime.Seconds(); secs > 0 {
		result.StepsPerSecond = float64(result.Steps) / secs
	}
	if n := len(result.LossHistory); n > 0 {
		result.FinalLoss = result.LossHistory[n-1]
	}
	return result, nil
}
