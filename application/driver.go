package application

import (
	"context"
	"sync"
	"sync/atomic"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/condamatrix/domain"
)

// Driver executes a build plan with a bounded worker pool. A package is
// dispatched only after every in-graph dependency reached its success
// state; a failure marks all transitive dependents skipped without
// stopping independent branches of the graph.
type Driver struct {
	builder  domain.Builder
	uploader domain.Uploader
	workers  int
}

// NewDriver creates a driver running at most workers builds concurrently.
func NewDriver(builder domain.Builder, uploader domain.Uploader, workers int) *Driver {
	if workers < 1 {
		workers = 1
	}
	return &Driver{builder: builder, uploader: uploader, workers: workers}
}

// node is the driver's per-package execution state. The result is written
// exactly once, guarded by once, before the WaitGroup is released; reading
// it after Run returns is race-free.
type node struct {
	spec       *domain.PackageSpec
	depCount   atomic.Int32
	dependents []*node
	once       sync.Once
	result     *domain.BuildResult
}

// Run builds every package of the plan and returns one result per package,
// in plan order. Cancelling the context stops dispatch of not-yet-started
// packages; in-flight builds are terminated by the builder's grace policy
// and already finished results are retained.
func (d *Driver) Run(
	ctx context.Context,
	graph *domain.Graph,
	plan *domain.BuildPlan,
	flags domain.FlagSet,
) []domain.BuildResult {
	nodes := make(map[string]*node, plan.Len())
	for _, name := range plan.Order() {
		nodes[name] = &node{spec: graph.Spec(name)}
	}
	for name, n := range nodes {
		n.depCount.Store(int32(len(graph.Dependencies(name))))
		for _, dependent := range graph.Dependents(name) {
			n.dependents = append(n.dependents, nodes[dependent])
		}
	}

	ready := make(chan *node, plan.Len())
	var wg sync.WaitGroup
	wg.Add(plan.Len())

	for _, name := range plan.Order() {
		if n := nodes[name]; n.depCount.Load() == 0 {
			ready <- n
		}
	}

	var workerWG sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			d.worker(ctx, ready, &wg, flags)
		}()
	}

	wg.Wait()
	close(ready)
	workerWG.Wait()

	results := make([]domain.BuildResult, 0, plan.Len())
	for _, name := range plan.Order() {
		results = append(results, *nodes[name].result)
	}
	return results
}

// worker is the processing loop for one concurrent worker.
func (d *Driver) worker(
	ctx context.Context,
	ready chan *node,
	wg *sync.WaitGroup,
	flags domain.FlagSet,
) {
	for n := range ready {
		if ctx.Err() != nil {
			d.cancelNode(n, wg)
			continue
		}

		d.buildNode(ctx, n, wg, flags, ready)
	}
}

func (d *Driver) buildNode(
	ctx context.Context,
	n *node,
	wg *sync.WaitGroup,
	flags domain.FlagSet,
	ready chan *node,
) {
	name := n.spec.Name
	logger.Debugf("Dispatching build of %q", name)

	output, err := d.builder.Execute(ctx, n.spec, flags)
	if err != nil {
		logger.Errorf("Build of %q failed: %v", name, err)
		d.finish(n, wg, &domain.BuildResult{
			Name:   name,
			Status: domain.StatusFailed,
			Log:    buildLog(output),
			Err:    err,
		})
		d.skipDependents(n, wg, domain.ErrSkippedDependency)
		return
	}

	result := &domain.BuildResult{
		Name:         name,
		Status:       domain.StatusSucceeded,
		Log:          output.Log,
		ArtifactPath: output.ArtifactPath,
	}

	if flags.Upload {
		logger.Debugf("Uploading artifact of %q", name)
		if uploadErr := d.uploader.Upload(ctx, n.spec, output.ArtifactPath, flags); uploadErr != nil {
			logger.Errorf("Upload of %q failed: %v", name, uploadErr)
			result.Status = domain.StatusUploadFailed
			result.Err = uploadErr
			d.finish(n, wg, result)
			// Dependents would resolve this package from the channel the
			// upload was meant to feed, so they cannot proceed either.
			d.skipDependents(n, wg, domain.ErrSkippedDependency)
			return
		}
		result.Status = domain.StatusUploaded
	}

	logger.Infof("Package %q finished: %s", name, result.Status)
	d.finish(n, wg, result)
	d.releaseDependents(n, ready)
}

// finish records the node's terminal result exactly once.
func (d *Driver) finish(n *node, wg *sync.WaitGroup, result *domain.BuildResult) {
	n.once.Do(func() {
		n.result = result
		wg.Done()
	})
}

// releaseDependents makes dependents with no remaining dependencies ready.
func (d *Driver) releaseDependents(n *node, ready chan *node) {
	for _, dependent := range n.dependents {
		if dependent.depCount.Add(-1) == 0 {
			ready <- dependent
		}
	}
}

// skipDependents recursively marks all pending transitive dependents as
// skipped. Skipped nodes never enter the ready channel because a failed
// dependency never decrements their counters.
func (d *Driver) skipDependents(n *node, wg *sync.WaitGroup, cause error) {
	for _, dependent := range n.dependents {
		marked := false
		dependent.once.Do(func() {
			logger.Warnf("Skipping %q: dependency %q did not complete",
				dependent.spec.Name, n.spec.Name)
			dependent.result = &domain.BuildResult{
				Name:   dependent.spec.Name,
				Status: domain.StatusSkipped,
				Err:    cause,
			}
			wg.Done()
			marked = true
		})
		if marked {
			d.skipDependents(dependent, wg, cause)
		}
	}
}

// cancelNode marks a ready-but-not-started node (and its pending
// dependents) cancelled.
func (d *Driver) cancelNode(n *node, wg *sync.WaitGroup) {
	n.once.Do(func() {
		logger.Warnf("Cancelled before build start: %q", n.spec.Name)
		n.result = &domain.BuildResult{
			Name:   n.spec.Name,
			Status: domain.StatusSkipped,
			Err:    domain.ErrCancelled,
		}
		wg.Done()
	})
	d.skipDependents(n, wg, domain.ErrCancelled)
}

func buildLog(output *domain.BuildOutput) string {
	if output == nil {
		return ""
	}
	return output.Log
}
