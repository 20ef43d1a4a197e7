// Package config defines the format-agnostic pipeline model shared by all
// concrete pipeline-file loaders, plus the Loader interface they implement.
package config
