package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"doroending/internal/config"
	"doroending/internal/daemon"
	"doroending/internal/ipc"
	"doroending/internal/logging"
)

func startDaemon(t *testing.T) (*daemon.Daemon, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Bootstrap.Enabled = false
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	d, err := daemon.New(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	return d, &cfg
}

func TestIPCServerClient(t *testing.T) {
	d, cfg := startDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	stopCh := make(chan struct{})
	socket := filepath.Join(cfg.Paths.DataDir, "dorod.sock")
	srv, err := ipc.NewServer(ctx, socket, d, func() { close(stopCh) }, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() { srv.Close() })

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	addResp, err := client.Add("Golden", "Golden End", "", nil)
	if err != nil {
		t.Fatalf("Add RPC failed: %v", err)
	}
	if addResp.Ending.ID != 1 {
		t.Fatalf("added id = %d, want 1", addResp.Ending.ID)
	}
	if _, err := client.Add("Silver", "Silver End", "", nil); err != nil {
		t.Fatalf("Add RPC failed: %v", err)
	}

	// Duplicate display names surface as RPC errors.
	if _, err := client.Add("Golden", "Again", "", nil); err == nil {
		t.Fatal("duplicate Add should fail")
	}

	pick, err := client.DailyPick("user-1")
	if err != nil {
		t.Fatalf("DailyPick RPC failed: %v", err)
	}
	if !pick.Result.Fresh {
		t.Error("first pick should be fresh")
	}
	again, err := client.DailyPick("user-1")
	if err != nil {
		t.Fatalf("DailyPick RPC failed: %v", err)
	}
	if again.Result.Fresh || again.Result.Ending.ID != pick.Result.Ending.ID {
		t.Errorf("repeat pick = %+v, want cached %d", again.Result, pick.Result.Ending.ID)
	}

	list, err := client.List()
	if err != nil {
		t.Fatalf("List RPC failed: %v", err)
	}
	if len(list.Endings) != 2 {
		t.Errorf("list = %d entries, want 2", len(list.Endings))
	}

	search, err := client.Search("gold")
	if err != nil {
		t.Fatalf("Search RPC failed: %v", err)
	}
	if len(search.Endings) != 1 || search.Endings[0].Name != "Golden" {
		t.Errorf("search = %+v", search.Endings)
	}

	show, err := client.Show("1")
	if err != nil {
		t.Fatalf("Show RPC failed: %v", err)
	}
	if show.Ending.Name != "Golden" {
		t.Errorf("show = %+v", show.Ending)
	}

	updated, err := client.Update(2, map[string]string{"name": "Platinum"})
	if err != nil {
		t.Fatalf("Update RPC failed: %v", err)
	}
	if updated.Ending.Name != "Platinum" {
		t.Errorf("updated = %+v", updated.Ending)
	}

	stats, err := client.Stats()
	if err != nil {
		t.Fatalf("Stats RPC failed: %v", err)
	}
	if stats.Stats.Total != 2 || stats.Stats.AssignedToday != 1 {
		t.Errorf("stats = %+v", stats.Stats)
	}

	hist, err := client.History("user-1", "", 0)
	if err != nil {
		t.Fatalf("History RPC failed: %v", err)
	}
	if len(hist.Entries) != 1 {
		t.Errorf("history = %+v", hist.Entries)
	}

	freq, err := client.Frequency()
	if err != nil {
		t.Fatalf("Frequency RPC failed: %v", err)
	}
	if len(freq.Rows) != 1 || freq.Rows[0].EntryID != pick.Result.Ending.ID || freq.Rows[0].Picks != 1 {
		t.Errorf("frequency = %+v, want one pick of entry %d", freq.Rows, pick.Result.Ending.ID)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running || status.EntryCount != 2 {
		t.Errorf("status = %+v", status)
	}

	if _, err := client.Remove("Platinum"); err != nil {
		t.Fatalf("Remove RPC failed: %v", err)
	}
	if _, err := client.Remove("missing"); err == nil {
		t.Fatal("removing a missing entry should fail")
	}

	cleanup, err := client.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup RPC failed: %v", err)
	}
	if len(cleanup.Removed) != 0 {
		t.Errorf("cleanup removed %v, want none", cleanup.Removed)
	}

	check, err := client.Validate(1)
	if err != nil {
		t.Fatalf("Validate RPC failed: %v", err)
	}
	if check.Check.Valid {
		t.Error("imageless entry should not validate")
	}

	stop, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stop.Stopped {
		t.Error("expected Stopped=true")
	}
	select {
	case <-stopCh:
	case <-time.After(2 * time.Second):
		t.Fatal("stop callback not invoked")
	}
}
