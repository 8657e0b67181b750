// Package services implements the core use cases: scanning and
// summarising documents, requesting and validating organisation
// plans, and executing the resulting move sets.
package services
