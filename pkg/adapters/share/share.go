// Package share encodes funnel documents into shareable links and reads them back.
// A link carries the document in a "config" parameter, in the query or in the fragment.
// The funnel id of a published funnel travels as "funnelId" or "id".
package share

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
)

const configParam = "config"

// ErrNoConfig is returned when a link carries no document.
var ErrNoConfig = errors.New("link has no config parameter")

// EncodeURL returns base with the document attached as ?config=<escaped JSON>.
// Existing query parameters of base are kept.
func EncodeURL(base string, doc *domain.Document) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	q := u.Query()
	q.Set(configParam, string(data))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DecodeURL reads the document carried by a link.
func DecodeURL(raw string) (*domain.Document, error) {
	params, err := params(raw)
	if err != nil {
		return nil, err
	}
	config := lookup(params, configParam)
	if config == "" {
		return nil, ErrNoConfig
	}

	var doc domain.Document
	if err := json.Unmarshal([]byte(config), &doc); err != nil {
		return nil, fmt.Errorf("invalid config parameter: %w", err)
	}
	return &doc, nil
}

// FunnelID reads the published funnel id carried by a link, if any.
func FunnelID(raw string) (string, error) {
	params, err := params(raw)
	if err != nil {
		return "", err
	}
	if id := lookup(params, "funnelId"); id != "" {
		return id, nil
	}
	return lookup(params, "id"), nil
}

// params returns the query values followed by the fragment values.
// Fragments may be "#config=..." or "#/path?config=...".
func params(raw string) ([]url.Values, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	out := []url.Values{u.Query()}

	if frag := u.EscapedFragment(); frag != "" {
		if _, after, ok := strings.Cut(frag, "?"); ok {
			frag = after
		}
		if v, err := url.ParseQuery(frag); err == nil {
			out = append(out, v)
		}
	}
	return out, nil
}

func lookup(sets []url.Values, key string) string {
	for _, v := range sets {
		if s := v.Get(key); s != "" {
			return s
		}
	}
	return ""
}
