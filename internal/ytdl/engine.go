package ytdl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fbvideodl/internal/extractor"
	"fbvideodl/internal/httputil"
)

const waitDelay = 2 * time.Second

// EngineOptions configures the yt-dlp invocation
type EngineOptions struct {
	Path        string
	CookiesFile string
	ExtraArgs   []string
}

// Engine runs yt-dlp in JSON dump mode to extract metadata without
// downloading media
type Engine struct {
	opts   EngineOptions
	logger *zap.Logger
}

var _ extractor.Engine = (*Engine)(nil)

// NewEngine creates a new engine
func NewEngine(opts EngineOptions, logger *zap.Logger) *Engine {
	if opts.Path == "" {
		opts.Path = "yt-dlp"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts, logger: logger.Named("engine")}
}

// Path returns the executable the engine runs
func (e *Engine) Path() string {
	return e.opts.Path
}

// Args builds the yt-dlp command line for one extraction
func (e *Engine) Args(url, selector string) []string {
	args := []string{
		"-J",
		"--no-playlist",
		"--no-warnings",
		"--no-check-certificate",
		"--retries", "5",
		"--fragment-retries", "5",
		"--user-agent", httputil.UserAgent,
		"-f", selector,
	}

	if e.opts.CookiesFile != "" {
		if _, err := os.Stat(e.opts.CookiesFile); err == nil {
			args = append(args, "--cookies", e.opts.CookiesFile)
		}
	}

	args = append(args, e.opts.ExtraArgs...)

	// "--" keeps a URL starting with a dash from being read as an option
	return append(args, "--", url)
}

func (e *Engine) Extract(ctx context.Context, url, selector string) (*extractor.RawInfo, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, e.opts.Path, e.Args(url, selector)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// children such as ffmpeg may hold the pipes after a kill
	cmd.WaitDelay = waitDelay

	e.logger.Debug("running yt-dlp", zap.String("url", url), zap.String("selector", selector))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &extractor.EngineError{Message: diagnostic(stderr.String(), exitErr.ExitCode())}
		}
		return nil, fmt.Errorf("failed to run yt-dlp: %w", err)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, nil
	}

	info, err := extractor.ParseRawInfo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	return info, nil
}

// Version returns the output of yt-dlp --version
func (e *Engine) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, e.opts.Path, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to run yt-dlp: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// diagnostic picks the ERROR lines out of yt-dlp's stderr
func diagnostic(stderr string, code int) string {
	var errLines []string
	var last string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		last = line
		if strings.HasPrefix(line, "ERROR:") {
			errLines = append(errLines, line)
		}
	}

	switch {
	case len(errLines) > 0:
		return strings.Join(errLines, "; ")
	case last != "":
		return last
	default:
		return "yt-dlp exited with status " + strconv.Itoa(code)
	}
}
