// gateway/gateway.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package gateway is a client for the X-Plane Scenery Gateway's API,
// documented at https://gateway.x-plane.com/api.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmp/xpapt/config"
	"github.com/mmp/xpapt/log"
	"github.com/mmp/xpapt/util"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var ErrHTTPStatus = errors.New("unexpected HTTP status")

// airportsCacheFile is the path in the user cache directory where the
// airport listing is kept.
const airportsCacheFile = "gateway/airports.msgpack"

type Client struct {
	BaseURL string
	Retries int
	// CacheTTL is how long the airport listing and per-airport details
	// are reused before being fetched again; zero disables caching.
	CacheTTL time.Duration
	HTTP     *http.Client

	details *expirable.LRU[string, AirportDetail]
	lg      *log.Logger
}

func NewClient(cfg config.GatewayConfig, lg *log.Logger) *Client {
	c := &Client{
		BaseURL:  strings.TrimSuffix(cfg.URL, "/"),
		Retries:  max(cfg.Retries, 1),
		CacheTTL: cfg.CacheTTL,
		HTTP:     &http.Client{Timeout: cfg.Timeout},
		lg:       lg,
	}
	if cfg.CacheTTL > 0 {
		c.details = expirable.NewLRU[string, AirportDetail](64, nil, cfg.CacheTTL)
	}
	return c
}

// AirportInfo is the Gateway's summary of an airport, as returned in the
// complete airport listing.
type AirportInfo struct {
	AirportCode          string            `json:"AirportCode" msgpack:"code"`
	AirportName          string            `json:"AirportName" msgpack:"name"`
	AirportClass         string            `json:"AirportClass" msgpack:"class"`
	Latitude             float64           `json:"Latitude" msgpack:"lat"`
	Longitude            float64           `json:"Longitude" msgpack:"lon"`
	Elevation            float64           `json:"Elevation" msgpack:"elev"`
	Deprecated           bool              `json:"Deprecated" msgpack:"deprecated"`
	DeprecatedInFavorOf  string            `json:"DeprecatedInFavorOf" msgpack:"replacement"`
	RecommendedSceneryId int               `json:"RecommendedSceneryId" msgpack:"recommended"`
	SceneryType          int               `json:"SceneryType" msgpack:"type"`
	Status               string            `json:"Status" msgpack:"status"`
	SubmissionCount      int               `json:"SubmissionCount" msgpack:"submissions"`
	ApprovedSceneryCount int               `json:"ApprovedSceneryCount" msgpack:"approved"`
	AcceptedSceneryCount int               `json:"AcceptedSceneryCount" msgpack:"accepted"`
	ExcludeSubmissions   bool              `json:"ExcludeSubmissions" msgpack:"exclude"`
	Metadata             map[string]string `json:"metadata" msgpack:"metadata"`
}

// SceneryInfo describes one of the scenery packs uploaded for an airport.
type SceneryInfo struct {
	SceneryId         int    `json:"sceneryId"`
	ParentId          int    `json:"parentId"`
	UserId            int    `json:"userId"`
	UserName          string `json:"userName"`
	DateUploaded      string `json:"dateUploaded"`
	DateAccepted      string `json:"dateAccepted"`
	DateApproved      string `json:"dateApproved"`
	DateDeclined      string `json:"dateDeclined"`
	Type              string `json:"type"`
	Features          string `json:"features"`
	ArtistComments    string `json:"artistComments"`
	ModeratorComments string `json:"moderatorComments"`
	Status            string `json:"Status"`
}

// AirportDetail is the Gateway's information about a single airport
// along with all of the scenery packs that have been uploaded for it.
type AirportDetail struct {
	ICAO                 string        `json:"icao"`
	AirportName          string        `json:"airportName"`
	AirportClass         string        `json:"airportClass"`
	Latitude             float64       `json:"latitude"`
	Longitude            float64       `json:"longitude"`
	Elevation            float64       `json:"elevation"`
	AcceptedSceneryCount int           `json:"acceptedSceneryCount"`
	ApprovedSceneryCount int           `json:"approvedSceneryCount"`
	RecommendedSceneryId int           `json:"recommendedSceneryId"`
	Scenery              []SceneryInfo `json:"scenery"`
}

// request fetches BaseURL+path and decodes the value of key in the JSON
// object it returns. Failed requests are retried with a linear backoff.
func request[T any](ctx context.Context, c *Client, path string, key string) (T, error) {
	url := c.BaseURL + path

	var out T
	var err error
	for attempt := range c.Retries {
		if attempt > 0 {
			c.lg.Warnf("%s: %v; retrying", url, err)
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		if out, err = fetch[T](ctx, c, url, key); err == nil || ctx.Err() != nil {
			return out, err
		}
	}
	return out, err
}

func fetch[T any](ctx context.Context, c *Client, url string, key string) (T, error) {
	var out T

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return out, fmt.Errorf("%s: %d: %w", url, resp.StatusCode, ErrHTTPStatus)
	}

	if err := util.UnmarshalJSONField(resp.Body, key, &out); err != nil {
		return out, fmt.Errorf("%s: %w", url, err)
	}
	return out, nil
}

// Airports returns all of the airports known to the Gateway, keyed by
// their X-Plane identifier. The listing is large, so it is cached on disk
// for the client's CacheTTL.
func (c *Client) Airports(ctx context.Context) (map[string]AirportInfo, error) {
	var cached map[string]AirportInfo
	if c.CacheTTL > 0 {
		t, err := util.CacheRetrieveObject(airportsCacheFile, &cached, c.CacheTTL)
		if err == nil {
			c.lg.Debugf("using cached gateway airport list from %s", t)
			return cached, nil
		}
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, util.ErrCacheExpired) {
			c.lg.Warnf("%s: %v", airportsCacheFile, err)
		}
	}

	list, err := request[[]AirportInfo](ctx, c, "/apiv1/airports", "airports")
	if err != nil {
		return nil, err
	}

	m := make(map[string]AirportInfo, len(list))
	for _, ap := range list {
		m[ap.AirportCode] = ap
	}
	c.lg.Infof("fetched %d airports from the gateway", len(m))

	if c.CacheTTL > 0 {
		if err := util.CacheStoreObject(airportsCacheFile, m); err != nil {
			c.lg.Warnf("%s: %v", airportsCacheFile, err)
		}
	}
	return m, nil
}

// Airport returns the Gateway's information about the airport with the
// given identifier.
func (c *Client) Airport(ctx context.Context, id string) (AirportDetail, error) {
	if c.details != nil {
		if d, ok := c.details.Get(id); ok {
			return d, nil
		}
	}

	d, err := request[AirportDetail](ctx, c, "/apiv1/airport/"+url.PathEscape(id), "airport")
	if err != nil {
		return AirportDetail{}, err
	}

	if c.details != nil {
		c.details.Add(id, d)
	}
	return d, nil
}
