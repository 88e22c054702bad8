// Package domain defines the contracts shared between the poll engine and its collaborators.
//
// Concept-oriented files (errors.go, recipient.go, store.go) hold sentinel errors and the
// interfaces the surrounding application implements. No implementation code - just contracts.
package domain
