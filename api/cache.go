package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/fiscalkit/bracket-engine/cache"
)

// cached serves a 200 response for req from the cache, or computes it,
// writes it and stores it. The key is the hash of req re-encoded, so key
// order and whitespace in the client's body don't matter. Cache failures
// only cost a recomputation.
func (h *Handler) cached(w http.ResponseWriter, r *http.Request, namespace string, req any, compute func() (any, error)) {
	ctx := r.Context()

	var key string
	if h.Cache != nil {
		if payload, err := json.Marshal(req); err == nil {
			key = cache.Key(namespace, payload)
			body, ok, err := h.Cache.Get(ctx, key)
			switch {
			case err != nil:
				h.Logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
			case ok:
				w.Header().Set("X-Cache", "HIT")
				writeRaw(w, http.StatusOK, body)
				return
			}
		}
	}

	resp, err := compute()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	body, err := json.Marshal(resp)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	if key != "" {
		if err := h.Cache.Set(ctx, key, body); err != nil {
			h.Logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
		w.Header().Set("X-Cache", "MISS")
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *Handler) flushCache(r *http.Request) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Flush(r.Context()); err != nil {
		h.Logger.Warn("cache flush failed", zap.Error(err))
	}
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
