// Package domain defines the rule-set and character entities shared by the
// schema engine, storage and transport layers.
//
// A System is a GM-authored rule set together with the form and UI schemas
// derived from it. A Character is one player's data for a System; its Data
// payload is open-shaped and represented as a tagged Value.
package domain
