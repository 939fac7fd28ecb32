// Package core groups the pure rule-set engine: identifier derivation, schema
// synthesis, document validation, indexing, modifiers and the import/export
// codec. Nothing under core performs I/O or keeps state between calls.
package core
