package search

import (
	"github.com/hyperjump/kenpo/internal/config"
	"github.com/hyperjump/kenpo/internal/models"
)

// ProcessQuery fills unset fields from cfg, then validates the query.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) error {
	if cfg != nil {
		if query.TopK <= 0 {
			query.TopK = cfg.DefaultTopK
		}
		if query.InitialRetrieve <= 0 {
			query.InitialRetrieve = cfg.DefaultInitialRetrieve
		}
		if query.Weights.IsZero() && !cfg.Weights.IsZero() {
			query.Weights = cfg.Weights
		}
		if query.MinResults <= 0 {
			query.MinResults = cfg.MinResults
		}
	}
	if err := query.Validate(); err != nil {
		return err
	}
	if cfg != nil && cfg.MaxTopK > 0 && query.TopK > cfg.MaxTopK {
		query.TopK = cfg.MaxTopK
	}
	return nil
}
