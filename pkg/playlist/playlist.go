package playlist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/zachfi/zkit/pkg/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	m3uSuffix = ".m3u"
	plsSuffix = ".pls"
	plsEntry  = "File1="

	userAgent = "iTunes/12.9.2 (Macintosh; OS X 10.14.3) AppleWebKit/606.4.5"
)

var (
	// ErrEmptyPlaylist is returned when a metadata URL yields no lines.
	ErrEmptyPlaylist = errors.New("empty playlist")
	// ErrNoPlaylistEntry is returned when a .pls file has no File1 entry.
	ErrNoPlaylistEntry = errors.New("no File1 entry in playlist")
)

// NewHTTPClient returns a client with a short dial timeout suitable for
// directory and playlist requests.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	transport := &http.Transport{DialContext: dialer.DialContext}
	return &http.Client{Transport: transport, Timeout: timeout}
}

type Unwinder struct {
	client *http.Client
	logger *slog.Logger
	tracer trace.Tracer
}

func NewUnwinder(client *http.Client, logger *slog.Logger) *Unwinder {
	if client == nil {
		client = NewHTTPClient(10 * time.Second)
	}

	return &Unwinder{
		client: client,
		logger: logger,
		tracer: otel.Tracer("playlist"),
	}
}

// Unwind fetches metadataURL and returns the stream URL its first line points at.
func (u *Unwinder) Unwind(ctx context.Context, metadataURL string) (string, error) {
	ctx, span := u.tracer.Start(ctx, "Unwind")
	span.SetAttributes(attribute.String("metadata_url", metadataURL))

	line, err := u.firstLine(ctx, metadataURL)
	if err != nil {
		return "", tracing.ErrHandler(span, err, "failed to read metadata url", u.logger)
	}

	streamURL, err := u.processLine(ctx, line)
	if err != nil {
		return "", tracing.ErrHandler(span, err, "failed to process stream url", u.logger)
	}

	span.SetAttributes(attribute.String("stream_url", streamURL))
	u.logger.Debug("unwound stream url", "metadata_url", metadataURL, "stream_url", streamURL)

	return streamURL, tracing.ErrHandler(span, nil, "", u.logger)
}

func (u *Unwinder) processLine(ctx context.Context, line string) (string, error) {
	if len(line) <= len(m3uSuffix) {
		return line, nil
	}

	switch {
	case strings.HasSuffix(line, m3uSuffix):
		return line[:len(line)-len(m3uSuffix)], nil
	case strings.HasSuffix(line, plsSuffix):
		return u.resolvePLS(ctx, line)
	default:
		return line, nil
	}
}

func (u *Unwinder) firstLine(ctx context.Context, url string) (string, error) {
	body, err := u.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	scanner := bufio.NewScanner(body)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read response body: %w", err)
		}
		return "", ErrEmptyPlaylist
	}

	return strings.TrimRight(scanner.Text(), "\r"), nil
}

func (u *Unwinder) resolvePLS(ctx context.Context, url string) (string, error) {
	body, err := u.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	return parsePLS(body)
}

// parsePLS returns the value of the first File1= line.
func parsePLS(body io.Reader) (string, error) {
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, plsEntry) {
			return line[len(plsEntry):], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read playlist: %w", err)
	}

	return "", ErrNoPlaylistEntry
}

func (u *Unwinder) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Add("accept", "*/*")
	req.Header.Add("user-agent", userAgent)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status fetching %s: %s", url, resp.Status)
	}

	return resp.Body, nil
}
