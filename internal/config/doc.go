// Package config defines the format-agnostic model of a plan (tasks,
// artifact sets, transforms and chains) along with the Loader interface for
// reading plans from various sources.
//
// The `config.Model` is the single source of truth for the `plan` package.
// Concrete loaders, such as for HCL, are provided in separate packages.
package config
