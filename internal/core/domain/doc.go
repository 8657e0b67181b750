// Package domain contains the core business entities and domain
// errors for docfold: document records, organisation plans, move
// sets, execution reports and the run metrics ledger.
package domain
