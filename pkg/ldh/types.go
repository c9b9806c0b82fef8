package ldh

import (
	"github.com/bianoble/ldh/internal/engine"
	"github.com/bianoble/ldh/internal/source"
)

// Type aliases re-export engine types as the public API.
// Users import "github.com/bianoble/ldh/pkg/ldh" and use
// ldh.UpdateResult, ldh.CheckResult, etc.

type Action = engine.Action
type DependencyError = engine.DependencyError
type DependencyStatus = engine.DependencyStatus
type DriftEntry = engine.DriftEntry
type UpdateResult = engine.UpdateResult
type PruneResult = engine.PruneResult
type CheckResult = engine.CheckResult

type Provider = source.Provider
type Repository = source.Repository
type Checkout = source.Checkout
