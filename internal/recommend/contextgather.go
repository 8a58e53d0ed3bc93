package recommend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qhana/plugin-registry/internal/store"
	"golang.org/x/sync/errgroup"
)

// BackendServiceID is the configured Service record the context gatherer
// looks up, per spec §4.6's "qhana-backend Service".
const BackendServiceID = "qhana-backend"

// StepDetails is the enrichment fetched from the backend for one experiment
// step, per spec §4.6 step 2.
type StepDetails struct {
	InputData        []DataItem
	OutputData       []DataItem
	Status           StepStatus
	ResultQuality    DataQuality
	ProcessorName    string
	ProcessorVersion string
}

// BackendClient is the external qhana-backend collaborator the context
// gatherer fans out to. Its HTTP transport lives outside the core (spec §1:
// "external collaborators ... specified only by the interfaces the core
// consumes"); this package only depends on the interface.
type BackendClient interface {
	// DataSummary returns the available_data map (data type -> content
	// types) for the given experiment, spec §4.6 enrichment 1.
	DataSummary(ctx context.Context, baseURL, experiment string) (map[string][]string, error)
	// FetchStepDetails returns input/output data, step status, result
	// quality, and the processor (name, version), spec §4.6 enrichment 2.
	FetchStepDetails(ctx context.Context, baseURL, experiment string, step int) (StepDetails, error)
}

// GatherContext enriches rc in place with data fetched from the qhana-backend
// service, bounded by timeout, per spec §4.6: "Before voting, if experiment
// is set, parallel-fetch two enrichments ... Only successful fetches are
// merged, and the caller's explicit fields win over fetched values."
//
// Grounded on the original's recommendations/context.go gather_context
// (`context.update(original_context)` applied after the merge) and
// tasks/recommendations_context.go's fetch_available_data/fetch_step_details,
// using errgroup.WithContext in place of Celery's `group(...).apply_async`,
// matching the teacher's own goroutine-pool idiom (pkg/jobs/worker.go)
// rather than inventing a new concurrency shape.
func GatherContext(ctx context.Context, st *store.Store, client BackendClient, rc *Context, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if rc.Experiment == "" || client == nil {
		return nil
	}

	svc, err := st.GetServiceByServiceID(BackendServiceID)
	if err != nil {
		// No backend configured: enrichment is simply unavailable, not an
		// error the caller should see (spec §7 #4/#5: transient/unavailable
		// collaborators never abort the request).
		logger.Info("qhana-backend service not configured, skipping context enrichment")
		return nil
	}

	// Snapshot the caller's explicit values so fetched results never
	// overwrite them, per spec's "caller's explicit fields win" rule.
	explicitAvailable := rc.AvailableData
	explicitCurrentPlugin := rc.CurrentPlugin

	var fetchedAvailable map[string][]string
	var fetchedStep *StepDetails

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := client.DataSummary(gctx, svc.URL, rc.Experiment)
		if err != nil {
			logger.Info("data summary fetch failed", "experiment", rc.Experiment, "error", err)
			return nil // partial results: a failed fetch is dropped, not propagated.
		}
		fetchedAvailable = data
		return nil
	})

	if rc.CurrentStep != nil {
		g.Go(func() error {
			details, err := client.FetchStepDetails(gctx, svc.URL, rc.Experiment, *rc.CurrentStep)
			if err != nil {
				logger.Info("step details fetch failed", "experiment", rc.Experiment, "step", *rc.CurrentStep, "error", err)
				return nil
			}
			fetchedStep = &details
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("gather recommendation context: %w", err)
	}

	if explicitAvailable == nil && fetchedAvailable != nil {
		rc.AvailableData = fetchedAvailable
	}

	if fetchedStep != nil {
		if !hasData(rc.StepInputData) {
			rc.StepInputData = fetchedStep.InputData
		}
		if !hasData(rc.StepOutputData) {
			rc.StepOutputData = fetchedStep.OutputData
		}
		if rc.StepSuccess == nil {
			success := fetchedStep.Status == StepSuccess
			rc.StepSuccess = &success
		}
		if rc.StepDataQuality == "" {
			rc.StepDataQuality = fetchedStep.ResultQuality
		}
		if explicitCurrentPlugin == nil && fetchedStep.ProcessorName != "" && fetchedStep.ProcessorVersion != "" {
			if p, lookupErr := st.GetPluginByIdentifierVersion(fetchedStep.ProcessorName, fetchedStep.ProcessorVersion); lookupErr == nil {
				id := p.ID
				rc.CurrentPlugin = &id
			}
		}
	}

	return nil
}
