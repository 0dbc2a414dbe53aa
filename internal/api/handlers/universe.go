package handlers

import (
	"net/http"

	"github.com/wonny/swingscan/internal/universe"
)

// UniverseHandler exposes the reference universe
type UniverseHandler struct {
	universe *universe.Universe
}

// NewUniverseHandler creates a new universe handler
func NewUniverseHandler(u *universe.Universe) *UniverseHandler {
	return &UniverseHandler{universe: u}
}

// SectorCount is one sector of the universe summary
type SectorCount struct {
	GICS    string `json:"gics"`
	FMP     string `json:"fmp"`
	Members int    `json:"members"`
}

// UniverseResponse summarises the universe by sector
type UniverseResponse struct {
	Count   int           `json:"count"`
	Sectors []SectorCount `json:"sectors"`
}

// GetUniverse returns member counts per sector
// GET /api/universe
func (h *UniverseHandler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	resp := UniverseResponse{Count: h.universe.Len()}
	for _, gics := range h.universe.Sectors() {
		fmpName := universe.ToFMP(gics)
		resp.Sectors = append(resp.Sectors, SectorCount{
			GICS:    gics,
			FMP:     fmpName,
			Members: len(h.universe.SymbolsInSector(fmpName)),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}
