// Package registry provides the central "glue" for the module system.
//
// The Registry maps the action names used in plan files (the first label of
// a transform block, e.g. "gzip") to the compiled Go functions that
// implement them. Modules add their actions through Register.
//
// During application startup the registry is validated so that every
// handler has the expected signature and every input field can be decoded
// from HCL, preventing a wide class of runtime errors.
package registry
