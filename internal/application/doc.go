// Package application provides application initialization and dependency wiring.
// It loads the box catalog and creates the optimizer, metrics, handlers,
// routers and HTTP server instances, keeping the main package focused on CLI
// parsing and orchestration.
package application
