// Package semantics answers temporal questions about an interaction under a
// regula: whether a commitment is active, detached, open, discharged,
// cancelled or released for an agent, and whether a cancellation is allowed
// by a policy.
//
// Every query is a pure function that rescans the interaction. Callers that
// grow an interaction turn by turn must re-run the queries they depend on
// after each append. Tokens missing from the regula behave as none rules, so
// queries about them are false or empty.
//
// Two families of commitment checks coexist on purpose:
//
//   - IsDetachedBy and IsOpenBy search every utterance of the creating token;
//     a single unresolved occurrence is enough.
//   - IsDischargedBy follows only the first occurrence of each step and is
//     meant for discharge reporting.
package semantics
