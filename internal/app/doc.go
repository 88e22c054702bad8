// Package app provides the application service layer.
//
// Orchestrates use cases: poll creation and administration, voting, reward payout, save/load, autosave.
// Sits between the host's command layer and the poll engine. Depends on domain interfaces, not concrete stores.
package app
