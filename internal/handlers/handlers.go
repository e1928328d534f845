package handlers

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openmohaa/fourthdown-api/internal/logic"
	"github.com/openmohaa/fourthdown-api/internal/lookup"
	"github.com/openmohaa/fourthdown-api/internal/models"
	"github.com/openmohaa/fourthdown-api/internal/worker"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// DefaultMaxBatchRows applies when Config.MaxBatchRows is unset
const DefaultMaxBatchRows = 1000

// LookupStore is the table store behind the lookups endpoints
type LookupStore interface {
	Snapshot() *lookup.Tables
	Load(path string) error
	LoadFormat(data []byte, source string, format lookup.Format) error
}

// BatchEvaluator runs batch rows, normally on a worker.Pool
type BatchEvaluator interface {
	Evaluate(ctx context.Context, svc logic.DecisionService, jobs []worker.Job) ([]*models.Decision, error)
}

type Config struct {
	Decisions    logic.DecisionService
	Lookups      LookupStore
	Batches      BatchEvaluator // optional; batches run inline when nil
	Logger       *zap.Logger
	MaxBatchRows int
}

type Handler struct {
	decisions    logic.DecisionService
	lookups      LookupStore
	batches      BatchEvaluator
	logger       *zap.SugaredLogger
	validator    *validator.Validate
	maxBatchRows int
}

func New(cfg Config) *Handler {
	maxRows := cfg.MaxBatchRows
	if maxRows <= 0 {
		maxRows = DefaultMaxBatchRows
	}
	return &Handler{
		decisions:    cfg.Decisions,
		lookups:      cfg.Lookups,
		batches:      cfg.Batches,
		logger:       cfg.Logger.Sugar(),
		validator:    newValidator(),
		maxBatchRows: maxRows,
	}
}

// newValidator reports fields by their JSON names so error messages match
// what API clients sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
