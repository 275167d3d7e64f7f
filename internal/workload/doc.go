// Package workload is the demo pipeline profiled by the callprof CLI.
//
// It looks up linked records for a list of ids, fetches metadata for each
// linked record, builds hashed TF-IDF vectors from the metadata and groups
// them with k-means. Every step is published in one of two scopes, "geo" and
// "analysis", so it can be named in a targets file (for example
// "geo.FetchMetadata") and profiled while the pipeline runs.
package workload
