package launch

import (
	"context"
	"errors"
	"net/url"
	"os"

	"github.com/clickfood/webapp/internal/config"
)

// ErrNotInHost is returned when the process was not launched by the host
// platform and no launch parameters exist.
var ErrNotInHost = errors.New("launch parameters unavailable: not running inside the host platform")

// Params are the launch parameters handed over by the host platform.
type Params struct {
	InitDataRaw string
	StartParam  string
}

// Provider retrieves the launch parameters.
type Provider interface {
	Retrieve(ctx context.Context) (Params, error)
}

// EnvProvider reads launch parameters from environment variables.
type EnvProvider struct {
	initDataEnv   string
	startParamEnv string
	devMode       bool
	lookup        func(string) (string, bool)
}

// NewEnvProvider builds a provider from cfg.
func NewEnvProvider(cfg config.LaunchConfig) *EnvProvider {
	return &EnvProvider{
		initDataEnv:   cfg.InitDataEnv,
		startParamEnv: cfg.StartParamEnv,
		devMode:       cfg.DevMode,
		lookup:        os.LookupEnv,
	}
}

// Retrieve implements Provider. In dev mode an absent credential is
// replaced by an empty one so the exchange still runs.
func (p *EnvProvider) Retrieve(ctx context.Context) (Params, error) {
	if err := ctx.Err(); err != nil {
		return Params{}, err
	}

	raw, ok := p.lookup(p.initDataEnv)
	if !ok {
		if p.devMode {
			return Params{}, nil
		}
		return Params{}, ErrNotInHost
	}

	start, _ := p.lookup(p.startParamEnv)
	if start == "" {
		start = StartParamFromInitData(raw)
	}
	return Params{InitDataRaw: raw, StartParam: start}, nil
}

// StartParamFromInitData extracts start_param from a raw init-data query string.
func StartParamFromInitData(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}
	return values.Get("start_param")
}

// StaticProvider returns fixed parameters or a fixed error.
type StaticProvider struct {
	Params Params
	Err    error
}

func (p StaticProvider) Retrieve(ctx context.Context) (Params, error) {
	if err := ctx.Err(); err != nil {
		return Params{}, err
	}
	if p.Err != nil {
		return Params{}, p.Err
	}
	return p.Params, nil
}
