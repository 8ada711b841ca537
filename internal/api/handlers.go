package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"cardano-token-metrics/internal/cache"
	"cardano-token-metrics/internal/domain"
	"cardano-token-metrics/internal/storage"
)

// rankedToken decorates a token record with its report position. Rank is
// derived at read time from the sorted report, never persisted; tokens
// outside the valid ranking carry no rank.
type rankedToken struct {
	Rank int `json:"rank,omitempty"`
	*domain.TokenRecord
}

type tokenListResponse struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	Tokens      []rankedToken `json:"tokens"`
	Total       int           `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleListTokens serves GET /api/v1/tokens.
//
// Query parameters:
//
//	limit           cap the number of ranked tokens returned
//	include_invalid also return tokens excluded from the valid ranking
func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	report, err := s.loadReport(r)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no report published yet")
			return
		}
		s.logger.Error().Err(err).Msg("load report")
		writeError(w, http.StatusInternalServerError, "failed to load report")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}

	tokens := make([]rankedToken, 0, len(report.TopTokensByMarketCapValid))
	ranked := make(map[string]struct{}, len(report.TopTokensByMarketCapValid))
	for _, record := range report.TopTokensByMarketCapValid {
		// The default listing only shows records that passed market cap
		// validation. Reports written before the ranking enforced this
		// may still carry invalid entries.
		if !record.Validation.Valid {
			continue
		}
		tokens = append(tokens, rankedToken{Rank: len(tokens) + 1, TokenRecord: record})
		ranked[record.TokenID] = struct{}{}
	}

	if r.URL.Query().Get("include_invalid") == "true" {
		records, err := s.store.LoadAllTokenRecords(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("load token records")
			writeError(w, http.StatusInternalServerError, "failed to load tokens")
			return
		}
		var rest []rankedToken
		for _, record := range records {
			if _, ok := ranked[record.TokenID]; ok {
				continue
			}
			rest = append(rest, rankedToken{TokenRecord: record})
		}
		sort.Slice(rest, func(i, j int) bool {
			if rest[i].MarketCap != rest[j].MarketCap {
				return rest[i].MarketCap > rest[j].MarketCap
			}
			return rest[i].TokenID < rest[j].TokenID
		})
		tokens = append(tokens, rest...)
	}

	total := len(tokens)
	if limit > 0 && limit < len(tokens) {
		tokens = tokens[:limit]
	}

	writeJSON(w, http.StatusOK, tokenListResponse{
		GeneratedAt: report.GeneratedAt,
		Tokens:      tokens,
		Total:       total,
	})
}

// handleGetToken serves GET /api/v1/tokens/{id}.
func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["id"]

	record, err := s.store.LoadTokenSummary(r.Context(), tokenID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "token not found")
			return
		}
		s.logger.Error().Err(err).Str("token_id", tokenID).Msg("load token summary")
		writeError(w, http.StatusInternalServerError, "failed to load token")
		return
	}

	resp := rankedToken{TokenRecord: record}
	if report, err := s.loadReport(r); err == nil {
		rank := 0
		for _, ranked := range report.TopTokensByMarketCapValid {
			if !ranked.Validation.Valid {
				continue
			}
			rank++
			if ranked.TokenID == tokenID {
				resp.Rank = rank
				break
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetReport serves GET /api/v1/report.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.loadReport(r)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no report published yet")
			return
		}
		s.logger.Error().Err(err).Msg("load report")
		writeError(w, http.StatusInternalServerError, "failed to load report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeError(w, http.StatusNotFound, "not found")
}

// loadReport serves the latest report through the cache.
func (s *Server) loadReport(r *http.Request) (*domain.MarketCapReport, error) {
	return cache.GetOrCompute(r.Context(), s.cache, func(ctx context.Context) (*domain.MarketCapReport, error) {
		return s.store.LoadLatestReport(ctx)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
