package sensor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tpokki/bme680_check/internal/check"
)

// GatewayConfig describes a sensor gateway that exposes the latest raw
// readings of a device over HTTP.
type GatewayConfig struct {
	URL     string
	Serial  string
	Timeout time.Duration

	ClientID     string
	ClientSecret string
	Scopes       []string
	TokenURL     string
}

// Gateway reads raw values from a sensor gateway REST API. Every Read
// fetches a fresh latest-samples document.
type Gateway struct {
	tokenSource oauth2.TokenSource
	resty       *resty.Client
	serial      string
	logger      log.Logger
}

func NewGateway(ctx context.Context, cfg GatewayConfig, logger log.Logger) (*Gateway, error) {
	if cfg.URL == "" {
		return nil, errors.New("sensor gateway url is required")
	}
	if cfg.Serial == "" {
		return nil, errors.New("sensor gateway serial number is required")
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.URL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	g := &Gateway{
		resty:  client,
		serial: cfg.Serial,
		logger: logger,
	}

	if cfg.ClientID != "" {
		conf := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       cfg.Scopes,
			TokenURL:     cfg.TokenURL,
		}
		g.tokenSource = conf.TokenSource(ctx)
	}
	return g, nil
}

// Read implements check.Reader.
func (g *Gateway) Read(m check.Metric) (float64, error) {
	field, ok := gatewayFields[m]
	if !ok {
		return 0, check.NewSensorError(check.KindParse, m, fmt.Errorf("no gateway field for %s", m))
	}

	req := g.resty.R().
		SetPathParams(map[string]string{
			"serialNumber": g.serial,
		}).
		SetResult(&GatewaySamplesResult{}).
		SetError(&GatewayErrorResult{})

	if g.tokenSource != nil {
		token, err := g.tokenSource.Token()
		if err != nil {
			return 0, check.NewSensorError(check.KindBus, m, fmt.Errorf("failed to get access token: %w", err))
		}
		req.SetAuthToken(token.AccessToken)
	}

	resp, err := req.Get("/v1/devices/{serialNumber}/latest-samples")
	if err != nil {
		return 0, check.NewSensorError(check.KindBus, m, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if e, ok := resp.Error().(*GatewayErrorResult); ok && e.Message != "" {
			msg = fmt.Sprintf("%s: %s", msg, e.Message)
		}
		return 0, check.NewSensorError(check.KindBus, m, fmt.Errorf("gateway returned %s", msg))
	}

	result, ok := resp.Result().(*GatewaySamplesResult)
	if !ok || result.Data == nil {
		return 0, check.NewSensorError(check.KindParse, m, errors.New("response carries no data"))
	}
	level.Debug(g.logger).Log("msg", "gateway samples received", "device", g.serial, "metric", m)

	raw, ok := result.Data[field]
	if !ok {
		return 0, check.NewSensorError(check.KindParse, m, fmt.Errorf("field %q missing", field))
	}
	value, ok := raw.(float64)
	if !ok {
		return 0, check.NewSensorError(check.KindParse, m, fmt.Errorf("field %q is %T, not a number", field, raw))
	}
	return value, nil
}
