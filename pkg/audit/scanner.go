package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aquasecurity/vulnpolicy/pkg/policy"
	"github.com/go-logr/logr"
	"github.com/hashicorp/go-version"
	"k8s.io/utils/exec"
)

var (
	// ErrNoOutput is returned when npm audit didn't print a report.
	ErrNoOutput = errors.New("npm audit printed no report")
	// ErrUnsupportedNpm is returned when the npm executable doesn't support
	// the audit command.
	ErrUnsupportedNpm = errors.New("unsupported npm version")
	// ErrTimeout is returned when npm audit doesn't complete in time.
	ErrTimeout = errors.New("npm audit timed out")
)

// minNpmVersion is the first npm release shipped with the audit command.
const minNpmVersion = ">= 6.0.0"

// ScannerConfig holds settings of the npm executable.
type ScannerConfig struct {
	// Binary is the name or path of the npm executable.
	Binary string
	// Dir is the directory of the audited project.
	Dir string
	// Timeout bounds the whole scan. Zero means no timeout.
	Timeout time.Duration
}

// Scanner runs npm audit and converts its report.
type Scanner struct {
	executor  exec.Interface
	converter Converter
	config    ScannerConfig
	logger    logr.Logger
}

// NewScanner constructs a new Scanner that runs npm with the specified
// executor.
func NewScanner(executor exec.Interface, converter Converter, config ScannerConfig, logger logr.Logger) *Scanner {
	if config.Binary == "" {
		config.Binary = "npm"
	}
	return &Scanner{
		executor:  executor,
		converter: converter,
		config:    config,
		logger:    logger.WithValues("npm", config.Binary, "dir", config.Dir),
	}
}

// Scan runs npm audit in the project directory and returns reported
// vulnerabilities in the order of the report.
func (s *Scanner) Scan(ctx context.Context) ([]policy.Vulnerability, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	npmVersion, err := s.npmVersion(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.V(1).Info("Running npm audit", "version", npmVersion.String())

	stdout, stderr, err := s.run(ctx, "audit", "--json=true")
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %v", ErrTimeout, s.config.Timeout)
	}
	if err != nil {
		// npm audit exits with non-zero code whenever it finds
		// vulnerabilities, but the report is still printed.
		if len(bytes.TrimSpace(stdout)) == 0 {
			return nil, fmt.Errorf("%w: %v: %s", ErrNoOutput, err, strings.TrimSpace(string(stderr)))
		}
		s.logger.V(1).Info("npm audit exited with error", "error", err.Error())
	}

	vulnerabilities, err := s.converter.Convert(bytes.NewReader(stdout))
	if err != nil {
		return nil, fmt.Errorf("converting npm audit report: %w", err)
	}
	s.logger.V(1).Info("Converted npm audit report", "count", len(vulnerabilities))
	return vulnerabilities, nil
}

func (s *Scanner) npmVersion(ctx context.Context) (*version.Version, error) {
	stdout, stderr, err := s.run(ctx, "--version")
	if err != nil {
		return nil, fmt.Errorf("getting npm version: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	v, err := version.NewVersion(strings.TrimSpace(string(stdout)))
	if err != nil {
		return nil, fmt.Errorf("parsing npm version: %w", err)
	}
	constraint, err := version.NewConstraint(minNpmVersion)
	if err != nil {
		return nil, err
	}
	if !constraint.Check(v) {
		return nil, fmt.Errorf("%w: %s, required %s", ErrUnsupportedNpm, v, minNpmVersion)
	}
	return v, nil
}

func (s *Scanner) run(ctx context.Context, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := s.executor.CommandContext(ctx, s.config.Binary, args...)
	if s.config.Dir != "" {
		cmd.SetDir(s.config.Dir)
	}
	cmd.SetStdout(&stdout)
	cmd.SetStderr(&stderr)
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
