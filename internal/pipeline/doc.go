// Package pipeline loads the catalog of processing pipelines.
//
// A pipeline is an ordered list of tasks; each task holds one or more
// actions of the same type. Detection actions name the algorithm whose
// workers serve them. A markup task, when present, is the last task and
// renders the tracks of the detection task before it. Catalogs are TOML
// files; the built-in catalog is embedded.
package pipeline
