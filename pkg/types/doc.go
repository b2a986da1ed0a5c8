// Package types defines the pipeline definition and run result types shared by the
// parser, the runner and the REST API.
package types
