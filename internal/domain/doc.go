// Package domain contains the core business entities of the planner: simulations,
// accounts and the aggregates computed over them. Types here carry no I/O; the
// derivation and scoring algorithms live in the finance and eligibility
// subpackages.
package domain
