// Package txbridge translates named contract operations into unsigned
// transaction envelopes and forwards signed ones to the network, both by
// delegating to the external Stellar CLI toolchain. The package itself holds
// no state and performs no validation of operation semantics; the contract
// re-checks every invariant at invocation time.
package txbridge

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/asset-custody/asset_custody/internal/config"
)

// ErrNotConfigured indicates the contract address or source identity is
// missing from the environment. This is a configuration error, not a
// core-logic error.
var ErrNotConfigured = errors.New("ASSET_CONTRACT_ID or DEPLOYER_ID not set")

// Invoker is the narrow surface the proposal lifecycle needs from the bridge.
type Invoker interface {
	BuildInvocation(ctx context.Context, function string, params map[string]string) (string, error)
}

// Service builds and broadcasts contract invocations through a Runner.
type Service struct {
	contractID        string
	sourceAccount     string
	rpcURL            string
	networkPassphrase string
	runner            Runner
	logger            *slog.Logger
}

// NewService constructs the bridge from toolchain configuration.
func NewService(cfg config.Config, runner Runner, logger *slog.Logger) *Service {
	if runner == nil {
		runner = CLIRunner{Binary: cfg.SorobanCLI}
	}
	return &Service{
		contractID:        cfg.ContractID,
		sourceAccount:     cfg.SourceAccount,
		rpcURL:            cfg.RPCURL,
		networkPassphrase: cfg.NetworkPassphrase,
		runner:            runner,
		logger:            logger,
	}
}

// BuildInvocation produces the unsigned transaction envelope for a contract
// function call. Params are passed to the toolchain as --name value pairs in
// sorted key order. The toolchain's stdout is returned verbatim (trimmed);
// its failures propagate unchanged.
func (s *Service) BuildInvocation(ctx context.Context, function string, params map[string]string) (string, error) {
	if s.contractID == "" || s.sourceAccount == "" {
		return "", ErrNotConfigured
	}

	args := []string{
		"contract", "invoke",
		"--id", s.contractID,
		"--source-account", s.sourceAccount,
		"--rpc-url", s.rpcURL,
		"--network-passphrase", s.networkPassphrase,
		"--send=no",
		"--build-only",
		"--",
		function,
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--"+k, params[k])
	}

	stdout, stderr, err := s.runner.Run(ctx, args...)
	if err != nil {
		return "", err
	}
	s.warnStderr(function, stderr)

	return strings.TrimSpace(stdout), nil
}

// SubmitSigned broadcasts a fully signed envelope and returns the toolchain's
// confirmation handle (the transaction hash on success).
func (s *Service) SubmitSigned(ctx context.Context, signedXDR string) (string, error) {
	args := []string{
		"tx", "send",
		"--rpc-url", s.rpcURL,
		"--xdr", strings.TrimSpace(signedXDR),
	}

	stdout, stderr, err := s.runner.Run(ctx, args...)
	if err != nil {
		return "", err
	}
	s.warnStderr("tx send", stderr)

	return strings.TrimSpace(stdout), nil
}

func (s *Service) warnStderr(operation, stderr string) {
	if s.logger != nil && strings.TrimSpace(stderr) != "" {
		s.logger.Warn("toolchain stderr", "operation", operation, "stderr", stderr)
	}
}
