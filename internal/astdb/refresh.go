package astdb

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/sys/unix"

	"nodebackup/internal/support"
)

const (
	maxResponseBytes = 10 << 20 // 10 MiB safety cap
	userAgent        = "nodebackup-astdb/1.0"
)

var (
	// ErrSourceStatus is returned when the node list source answers with a
	// non-2xx status.
	ErrSourceStatus = errors.New("astdb: unexpected source status")

	refreshGroup singleflight.Group
	httpClient   = &http.Client{Timeout: 30 * time.Second}
)

// Options locate the node list source and the local files.
type Options struct {
	URL         string
	PrivateFile string
	OutputFile  string
	Client      *http.Client
}

// Outcome summarizes a completed refresh.
type Outcome struct {
	Remote  int
	Private int
	Written int
}

// Refresh downloads the public node list, merges the optional private node
// file, sorts the result naturally and replaces OutputFile. The write happens
// under an exclusive lock on OutputFile+".lock". Concurrent calls for the same
// output share one refresh.
func Refresh(ctx context.Context, opts Options) (*Outcome, error) {
	if opts.URL == "" || opts.OutputFile == "" {
		return nil, errors.New("astdb: source url and output file are required")
	}

	result, err, _ := refreshGroup.Do(opts.OutputFile, func() (interface{}, error) {
		return doRefresh(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	outcome, _ := result.(*Outcome)
	return outcome, nil
}

func doRefresh(ctx context.Context, opts Options) (*Outcome, error) {
	remote, err := fetchNodes(ctx, opts)
	if err != nil {
		return nil, err
	}

	private, err := readPrivateNodes(opts.PrivateFile)
	if err != nil {
		return nil, err
	}

	merged := mergeNodes(remote, private)

	var buf bytes.Buffer
	for _, line := range merged {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	if err := writeLocked(opts.OutputFile, &buf); err != nil {
		return nil, err
	}

	return &Outcome{Remote: len(remote), Private: len(private), Written: len(merged)}, nil
}

func fetchNodes(ctx context.Context, opts Options) ([]string, error) {
	client := opts.Client
	if client == nil {
		client = httpClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("astdb: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("astdb: fetch %s: %w", opts.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w %d: %s", ErrSourceStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	lines, err := readLines(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("astdb: read response: %w", err)
	}
	return lines, nil
}

func readPrivateNodes(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("astdb: open private nodes: %w", err)
	}
	defer f.Close()

	lines, err := readLines(f)
	if err != nil {
		return nil, fmt.Errorf("astdb: read private nodes: %w", err)
	}
	return lines, nil
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines, scanner.Err()
}

// mergeNodes concatenates both lists, drops blank lines and sorts naturally.
// Duplicates are kept, as both sources are authoritative for their lines.
func mergeNodes(remote, private []string) []string {
	merged := make([]string, 0, len(remote)+len(private))
	for _, list := range [][]string{remote, private} {
		for _, line := range list {
			if strings.TrimSpace(line) == "" {
				continue
			}
			merged = append(merged, line)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return naturalLess(merged[i], merged[j])
	})
	return merged
}

func writeLocked(path string, data io.Reader) error {
	lockFile, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("astdb: open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("astdb: obtain lock: %w", err)
	}
	defer func() {
		if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_UN); err != nil {
			log.Warn("astdb: release lock", "error", err)
		}
	}()

	if _, err := support.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("astdb: write %s: %w", path, err)
	}
	return nil
}
