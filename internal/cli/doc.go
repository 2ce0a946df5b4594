// Package cli implements the portalctl command-line interface.
//
// Every command is a cobra.Command whose RunE delegates to a plain
// function taking the loaded app (config, portal client, logger) and an
// output writer, so the work can be tested without cobra:
//
//	portalctl dash                 - Interactive dashboard
//	portalctl clusters             - List clusters
//	portalctl describe <cluster>   - Details and sub-resources
//	portalctl stats <cluster> <m>  - Chart one metric
//	portalctl kubeconfig <cluster> - Download a kubeconfig
//	portalctl ssh <cluster>        - SSH credential or shell on a master
//	portalctl info | logout        - Session
//	portalctl init | config        - Config file
//	portalctl doctor               - Diagnose config and portal access
//
// # Output
//
// Commands render a table by default. --json (or output.format: json)
// wraps results in JSONEnvelope; yaml is also supported. Errors in JSON
// mode are written to stdout as an envelope with a stable code such as
// AUTH_REQUIRED.
//
// # Authentication
//
// Every portal command first loads /api/info. A 403 anywhere is reported
// as AUTH with the portal's login URL, and the process exits non-zero.
package cli
