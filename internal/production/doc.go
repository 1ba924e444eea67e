// Package production provides the integrations around the engine: definition
// documents, snapshot stores, DOT export, publishing, logging and metrics
// observers, and a versioned definition catalog with a file watcher.
package production
