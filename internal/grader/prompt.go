package grader

// RubricSystemPrompt is the fixed grading rubric from SPEC_FULL.md §4.F,
// unchanged from spec.md. Grounded on the teacher's internal/prompts
// package style of keeping prompt text as named constants rather than
// inlining it at the call site.
const RubricSystemPrompt = `Grade a ~90-second transcript chunk for a short. ` +
	`Criteria: clear claim -> brief reason -> one example; minimal dangling ` +
	`pronouns; quote-worthiness. Respond with only a JSON object of the form ` +
	`{"cogency": 1..5, "quotes": [string, up to 3], "salient_terms": [string, up to 8]}. ` +
	`Do not include any text outside the JSON object.`
