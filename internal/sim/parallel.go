package sim

import (
	"context"
	"sync"

	"github.com/san-kum/ballpit/internal/dynamo"
)

// Job builds a fresh runner so that no world is shared between
// goroutines.
type Job struct {
	Name   string
	Build  func() (*Runner, error)
	Config RunConfig
}

// Ensemble runs independent jobs concurrently. Each world is still
// driven by exactly one goroutine.
type Ensemble struct {
	jobs []Job
}

func NewEnsemble(jobs ...Job) *Ensemble {
	return &Ensemble{jobs: jobs}
}

func (e *Ensemble) Run(ctx context.Context) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(e.jobs))
	errs := make([]error, len(e.jobs))

	var wg sync.WaitGroup
	for i, job := range e.jobs {
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()

			r, err := job.Build()
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = r.Run(ctx, job.Config)
		}(i, job)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
