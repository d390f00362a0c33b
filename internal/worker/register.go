package worker

import (
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/pulseboard/contribeval/internal/agent"
	"github.com/pulseboard/contribeval/internal/evaluate"
	"github.com/pulseboard/contribeval/internal/grid"
	"github.com/pulseboard/contribeval/internal/identify"
	"github.com/pulseboard/contribeval/internal/merge"
	"github.com/pulseboard/contribeval/internal/workflow"
	"github.com/pulseboard/contribeval/pkg/activity"
	"github.com/pulseboard/contribeval/pkg/events"
)

// RegisterAll registers the evaluation workflow and all stage activities
// with the Temporal worker. Call once during worker startup, before the
// worker runs; registration is not thread-safe.
//
// A nil sink disables event emission.
func RegisterAll(w sdkworker.Worker, caller *agent.Caller, grids *grid.Registry, sink events.EventSink) {
	if sink == nil {
		sink = events.NewNoOpEventSink()
	}
	base := activity.NewBaseActivities(sink)

	identifyActivities := identify.NewActivities(base, identify.NewStage(caller))
	mergeActivities := merge.NewActivities(base, merge.NewStage(caller))
	evaluateActivities := evaluate.NewActivities(base, evaluate.NewStage(caller, grids))

	w.RegisterWorkflow(workflow.ContributionEvaluationWorkflow)

	w.RegisterActivity(identifyActivities.IdentifyContributions)
	w.RegisterActivity(mergeActivities.MergeContributions)
	w.RegisterActivity(evaluateActivities.EvaluateContribution)
}
