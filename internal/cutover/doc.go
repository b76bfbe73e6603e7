// Package cutover pauses invoice collection of source subscriptions before the
// destination account takes over billing, and resumes it when a cutover is rolled back.
package cutover
