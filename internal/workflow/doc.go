// Package workflow runs claimed jobs through their pipeline tasks.
//
// The Manager starts a fixed pool of workers. Each worker claims the next
// pending job, inspects media that have not been inspected yet, and hands
// every remaining task to the stage handler for its action type (detection
// or markup) while a heartbeat keeps the claim alive. Progress is persisted
// after each task, so a job reclaimed after a crash resumes at the task it
// was on. Cancellation takes effect at task boundaries.
//
// A job ends as complete, complete_with_warnings or complete_with_errors
// depending on the warnings recorded while it ran, as error when a task
// fails outright, or as cancelled.
package workflow
