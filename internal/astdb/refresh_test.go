package astdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func nodeListServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRefreshMergesAndSorts(t *testing.T) {
	srv := nodeListServer(t, http.StatusOK, "27000|W1AW|Newington|\n\n2000|K1ABC|Boston|\r\n")
	dir := t.TempDir()

	private := filepath.Join(dir, "privatenodes.txt")
	if err := os.WriteFile(private, []byte("1999|N0CALL|Private|\n   \n"), 0o644); err != nil {
		t.Fatalf("write private nodes: %v", err)
	}
	output := filepath.Join(dir, "astdb.txt")

	outcome, err := Refresh(context.Background(), Options{URL: srv.URL, PrivateFile: private, OutputFile: output})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if outcome.Written != 3 {
		t.Fatalf("Written = %d, want 3", outcome.Written)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "1999|N0CALL|Private|\n2000|K1ABC|Boston|\n27000|W1AW|Newington|\n"
	if string(data) != want {
		t.Fatalf("output = %q, want %q", data, want)
	}
}

func TestRefreshWithoutPrivateFile(t *testing.T) {
	srv := nodeListServer(t, http.StatusOK, "2000|K1ABC|Boston|\n")
	dir := t.TempDir()
	output := filepath.Join(dir, "astdb.txt")

	outcome, err := Refresh(context.Background(), Options{
		URL:         srv.URL,
		PrivateFile: filepath.Join(dir, "missing.txt"),
		OutputFile:  output,
	})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if outcome.Private != 0 || outcome.Written != 1 {
		t.Fatalf("outcome = %+v", outcome)
	}
}

func TestRefreshBadStatusKeepsExistingFile(t *testing.T) {
	srv := nodeListServer(t, http.StatusServiceUnavailable, "maintenance")
	output := filepath.Join(t.TempDir(), "astdb.txt")
	if err := os.WriteFile(output, []byte("2000|K1ABC|Boston|\n"), 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	_, err := Refresh(context.Background(), Options{URL: srv.URL, OutputFile: output})
	if !errors.Is(err, ErrSourceStatus) {
		t.Fatalf("Refresh returned %v, want ErrSourceStatus", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Fatalf("error %q does not mention the status", err)
	}

	data, _ := os.ReadFile(output)
	if string(data) != "2000|K1ABC|Boston|\n" {
		t.Fatalf("existing snapshot was modified: %q", data)
	}
}

func TestRefreshRequiresOptions(t *testing.T) {
	if _, err := Refresh(context.Background(), Options{}); err == nil {
		t.Fatal("Refresh succeeded without options")
	}
}

func TestStartRefreshRoutineRunsAtStartup(t *testing.T) {
	srv := nodeListServer(t, http.StatusOK, "2000|K1ABC|Boston|\n")
	output := filepath.Join(t.TempDir(), "astdb.txt")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartRefreshRoutine(ctx, time.Hour, Options{URL: srv.URL, OutputFile: output}, nil)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(output); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("startup refresh never wrote the snapshot")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh routine did not stop after cancel")
	}
}

func TestStartRefreshRoutineDisabled(t *testing.T) {
	done := make(chan struct{})
	go func() {
		StartRefreshRoutine(context.Background(), 0, Options{}, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled routine did not return")
	}
}
