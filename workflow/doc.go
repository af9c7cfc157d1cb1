// Package workflow runs committed, strictly sequential chains of typed
// steps.
//
// A workflow is built with New(name, trigger).Step(a).Then(b), frozen with
// Commit and executed with Run. Every run owns a RunContext mapping step ids
// to outputs; a step reads earlier outputs through its StepContext, most
// conveniently with Result:
//
//	forecast, err := workflow.Result[[]weather.Forecast](sc, "fetch-weather")
//
// Declared dependencies are checked before a step executes. A missing or
// empty dependency aborts the run with a *core.StepInputMissingError and the
// step body never runs. Any step failure aborts the remaining chain and is
// returned as a *StepError naming the step.
package workflow
