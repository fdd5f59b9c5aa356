package handlers

import (
	"net/http"
	"sort"

	"github.com/wonny/equityscore/internal/s3_valuation"
)

// SectorHandler exposes the sector weight table and config identity
type SectorHandler struct {
	cfg        s3_valuation.Config
	configID   string
	configHash string
}

// NewSectorHandler creates a new sector handler
func NewSectorHandler(cfg s3_valuation.Config, configID, configHash string) *SectorHandler {
	return &SectorHandler{cfg: cfg, configID: configID, configHash: configHash}
}

// SectorInfo is one row of GET /api/sectors
type SectorInfo struct {
	Name            string               `json:"name"`
	Weights         s3_valuation.Weights `json:"weights"`
	ModelsAvailable int                  `json:"models_available"`
}

// ListSectors returns normalized sectors, their weights and the alias table
// GET /api/sectors
func (h *SectorHandler) ListSectors(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.cfg.SectorWeights))
	for name := range h.cfg.SectorWeights {
		names = append(names, name)
	}
	sort.Strings(names)

	sectors := make([]SectorInfo, 0, len(names))
	for _, name := range names {
		weights := h.cfg.SectorWeights[name]
		sectors = append(sectors, SectorInfo{
			Name:            name,
			Weights:         weights,
			ModelsAvailable: weights.Available(),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sectors":     sectors,
		"aliases":     h.cfg.SectorAliases,
		"config_id":   h.configID,
		"config_hash": h.configHash,
	})
}
