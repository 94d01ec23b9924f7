package launch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clickfood/webapp/internal/config"
)

func envProvider(devMode bool, env map[string]string) *EnvProvider {
	p := NewEnvProvider(config.LaunchConfig{
		InitDataEnv:   "TELEGRAM_INIT_DATA",
		StartParamEnv: "TELEGRAM_START_PARAM",
		DevMode:       devMode,
	})
	p.lookup = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	return p
}

func TestEnvProviderNotInHost(t *testing.T) {
	_, err := envProvider(false, nil).Retrieve(context.Background())
	assert.ErrorIs(t, err, ErrNotInHost)
}

func TestEnvProviderDevModeYieldsEmptyCredential(t *testing.T) {
	params, err := envProvider(true, nil).Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Params{}, params)
}

func TestEnvProviderReadsParams(t *testing.T) {
	params, err := envProvider(false, map[string]string{
		"TELEGRAM_INIT_DATA":   "query_id=1&user=%7B%7D&start_param=from-init",
		"TELEGRAM_START_PARAM": "explicit",
	}).Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "query_id=1&user=%7B%7D&start_param=from-init", params.InitDataRaw)
	assert.Equal(t, "explicit", params.StartParam)
}

func TestEnvProviderFallsBackToInitDataStartParam(t *testing.T) {
	params, err := envProvider(false, map[string]string{
		"TELEGRAM_INIT_DATA": "query_id=1&start_param=promo_7",
	}).Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "promo_7", params.StartParam)
}

func TestEnvProviderEmptyInitDataIsStillACredential(t *testing.T) {
	params, err := envProvider(false, map[string]string{"TELEGRAM_INIT_DATA": ""}).Retrieve(context.Background())
	require.NoError(t, err)
	assert.Empty(t, params.InitDataRaw)
}

func TestEnvProviderCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := envProvider(true, nil).Retrieve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartParamFromInitData(t *testing.T) {
	assert.Equal(t, "abc", StartParamFromInitData("a=1&start_param=abc"))
	assert.Empty(t, StartParamFromInitData("a=1"))
	assert.Empty(t, StartParamFromInitData("%zz"))
}

func TestStaticProvider(t *testing.T) {
	params, err := StaticProvider{Params: Params{InitDataRaw: "x"}}.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", params.InitDataRaw)

	boom := errors.New("boom")
	_, err = StaticProvider{Err: boom}.Retrieve(context.Background())
	assert.ErrorIs(t, err, boom)
}
