package searchcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Kind is the category of search request partitioning the cache key space
type Kind string

const (
	KindWeb      Kind = "web"
	KindImages   Kind = "images"
	KindVideos   Kind = "videos"
	KindPlaces   Kind = "places"
	KindMaps     Kind = "maps"
	KindNews     Kind = "news"
	KindScholar  Kind = "scholar"
	KindShopping Kind = "shopping"
	KindBreach   Kind = "breach"
)

// Valid reports whether the kind is a supported search category
func (k Kind) Valid() bool {
	switch k {
	case KindWeb, KindImages, KindVideos, KindPlaces, KindMaps,
		KindNews, KindScholar, KindShopping, KindBreach:
		return true
	}
	return false
}

// Default parameter values substituted for absent fields. Two parameter bags
// that are equal after defaulting must produce the same key.
const (
	defaultNum         = 10
	defaultCountry     = "us"
	defaultLanguage    = "en"
	defaultAutocorrect = true
	defaultPage        = 1
)

// normalizedParams is the canonical parameter record used for key hashing.
// Field order is fixed so json.Marshal is deterministic.
type normalizedParams struct {
	Q           string `json:"q"`
	Num         int    `json:"num"`
	GL          string `json:"gl"`
	HL          string `json:"hl"`
	Autocorrect bool   `json:"autocorrect"`
	TBS         string `json:"tbs"`
	Location    string `json:"location"`
	Page        int    `json:"page"`
}

// normalizeParams builds the canonical record from a caller parameter bag.
// Only recognized fields participate; the query is trimmed and lowercased.
func normalizeParams(params map[string]any) normalizedParams {
	np := normalizedParams{
		Num:         defaultNum,
		GL:          defaultCountry,
		HL:          defaultLanguage,
		Autocorrect: defaultAutocorrect,
		Page:        defaultPage,
	}

	if params == nil {
		return np
	}

	if q, ok := params["q"].(string); ok {
		np.Q = strings.ToLower(strings.TrimSpace(q))
	}
	if num, ok := intParam(params["num"]); ok {
		np.Num = num
	}
	if gl, ok := params["gl"].(string); ok && gl != "" {
		np.GL = gl
	}
	if hl, ok := params["hl"].(string); ok && hl != "" {
		np.HL = hl
	}
	if ac, ok := params["autocorrect"].(bool); ok {
		np.Autocorrect = ac
	}
	if tbs, ok := params["tbs"].(string); ok {
		np.TBS = tbs
	}
	if loc, ok := params["location"].(string); ok {
		np.Location = loc
	}
	if page, ok := intParam(params["page"]); ok {
		np.Page = page
	}

	return np
}

// intParam accepts both int and float64 (JSON numbers decode as float64)
func intParam(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// buildKey computes the stable cache key for a kind and parameter bag.
// Format: <kind>:<hash> where hash is the first 16 hex characters of
// SHA-256 over the kind and the canonical JSON of the normalized params.
func buildKey(kind Kind, params map[string]any) string {
	np := normalizeParams(params)
	raw, err := json.Marshal(np)
	if err != nil {
		// normalizedParams contains only scalar fields; Marshal cannot fail
		raw = []byte(np.Q)
	}

	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{':'})
	h.Write(raw)
	sum := h.Sum(nil)

	return string(kind) + ":" + hex.EncodeToString(sum[:8])
}
