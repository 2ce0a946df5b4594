// Package dashboard is the interactive cluster console.
//
// The Model owns every piece of state: the session, the cluster list, the
// open cluster's tabs and the statistics windows. Fetches run as tea.Cmds
// and come back as fetch.ResultMsg values routed to the tracker that issued
// them. After each message the model re-evaluates which fetches the current
// view needs; the tracker guards make that idempotent.
//
// A 403 from any request ends the program. The caller reads LoginURL and
// sends the user there.
package dashboard
