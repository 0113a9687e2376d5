// Package pawapi implementa remote.Service contra el backend HTTP de Pawdentify.
package pawapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pawdentify/internal/platform/httpclient"
)

// HeaderUserID identifica al usuario en los endpoints que no lo llevan en el path.
const HeaderUserID = "X-User-ID"

type Client struct {
	http *httpclient.Client
	now  func() time.Time
}

func New(c *httpclient.Client) *Client {
	return &Client{http: c, now: time.Now}
}

// WithClock fija el reloj usado para timestamps que el servidor no devuelve.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

type call struct {
	method string
	path   string
	userID string
	query  url.Values
	body   any
}

// do ejecuta la llamada y devuelve el body crudo (nil si vino vacío).
func (c *Client) do(ctx context.Context, in call) (json.RawMessage, error) {
	req := httpclient.Request{
		Method: in.method,
		Path:   in.path,
		Query:  in.query,
		Body:   in.body,
	}
	if in.userID != "" {
		req.Headers = map[string]string{HeaderUserID: in.userID}
	}
	var raw json.RawMessage
	if err := c.http.DoJSON(ctx, req, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, path, userID string, q url.Values) (json.RawMessage, error) {
	return c.do(ctx, call{method: http.MethodGet, path: path, userID: userID, query: q})
}

func userPath(format, userID string, args ...any) string {
	return fmt.Sprintf(format, append([]any{url.PathEscape(userID)}, args...)...)
}

// unwrap devuelve raw[key] cuando raw es un objeto que envuelve la entidad
// ({"message": "...", "pet": {...}}); si no, raw tal cual.
func unwrap(raw json.RawMessage, key string) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return raw
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw
	}
	if v, ok := obj[key]; ok {
		v = bytes.TrimSpace(v)
		if len(v) > 0 && v[0] == '{' {
			return v
		}
	}
	return raw
}

// decodeList acepta tanto un array como un objeto con el array bajo alguna de keys.
func decodeList(raw json.RawMessage, keys ...string) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("pawapi: decode list: %w", err)
		}
		return items, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("pawapi: decode list: %w", err)
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return decodeList(v)
		}
	}
	return nil, nil
}

// decodeEntities decodifica cada elemento y completa el id desde "_id" si hace falta.
func decodeEntities[T any](raw json.RawMessage, setID func(*T, string) bool, keys ...string) ([]T, error) {
	items, err := decodeList(raw, keys...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		v, err := decodeEntity(it, setID)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeEntity[T any](raw json.RawMessage, setID func(*T, string) bool) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("pawapi: decode: %w", err)
	}
	if setID != nil {
		if id := serverID(raw); id != "" {
			setID(&v, id)
		}
	}
	return v, nil
}

// serverID busca el id asignado por el servidor en las variantes que usa el backend.
func serverID(raw json.RawMessage) string {
	var ids struct {
		ID     string `json:"id"`
		Mongo  string `json:"_id"`
		ScanID string `json:"scan_id"`
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return ""
	}
	for _, id := range []string{ids.ID, ids.Mongo, ids.ScanID} {
		if id = strings.TrimSpace(id); id != "" {
			return id
		}
	}
	return ""
}

// flexTime acepta RFC3339 y también timestamps ISO sin zona (se asumen UTC).
type flexTime struct {
	time.Time
}

var flexLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range flexLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			t.Time = ts
			return nil
		}
	}
	return fmt.Errorf("pawapi: unsupported time %q", s)
}

func (t *flexTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
