// Package service implements the systems application operations: creating
// and updating rule sets with freshly synthesized schemas, creating
// characters against them, importing and exporting portable documents, and
// browsing the reference libraries.
//
// Every operation returns platform errors carrying a domain code so the
// transport layers can map them without inspecting messages.
package service
