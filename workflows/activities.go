package workflows

import "verinest-onboarding/activities"

// a is only used to reference activity methods in workflow.ExecuteActivity calls;
// the worker registers the real struct.
var a *activities.Activities
