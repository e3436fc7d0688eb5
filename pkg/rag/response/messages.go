// Package response holds the fixed user-facing messages the pipeline
// returns when it cannot, or must not, generate free-form text.
package response

const (
	// NoInformation is returned when retrieval produced nothing the
	// caller's role is allowed to see. It deliberately does not reveal
	// whether matching documents exist for other roles.
	NoInformation = "There is no information available for your role on this topic."

	// NoRows is returned when a structured query ran successfully but
	// matched nothing.
	NoRows = "The query ran successfully but matched no records."

	// Blocked is returned when the question itself asks for material
	// outside the caller's role before any data is touched.
	Blocked = "This question falls outside what your role can access. Please rephrase it within your area, or contact an administrator."

	// Failure is returned when the pipeline could not produce any
	// answer at all.
	Failure = "Something went wrong while answering your question. Please try again."

	// DegradedPrefix is prepended to answers whose groundedness score
	// fell under the quality threshold.
	DegradedPrefix = "Note: this answer could not be fully verified against the available sources.\n\n"
)
