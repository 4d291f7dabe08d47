//go:build unix

package loader

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/metro-mecard/mecard/internal/command"
)

// wrappedTool runs script through sh the way a bimport wrapper would.
func wrappedTool(sh, script string) CommandFactory {
	return func(cfg command.Config) (command.Command, error) {
		return command.New(command.Config{Args: []string{sh, "-c", script}, Timeout: cfg.Timeout})
	}
}

func TestRun_TimeoutKillsWrappedTool(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	cfg := testConfig(t)
	cfg.Timeout = 200 * time.Millisecond
	writeHeader(t, cfg)
	staged := stage(t, cfg, "1")
	loaded := filepath.Join(t.TempDir(), "loaded")
	script := sh + " -c 'sleep 1; touch " + loaded + "'; true"
	l := New(cfg, zap.NewNop(), WithCommandFactory(wrappedTool(sh, script)))

	start := time.Now()
	rep := l.Run(context.Background())

	if rep.Result != ResultAborted {
		t.Fatalf("expected aborted, got %s (%v)", rep.Result, rep.Err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("timed out tool held the run for %s", elapsed)
	}
	if held := exists(cfg.LockPath); held != rep.LockRetained {
		t.Errorf("lock held = %v, LockRetained = %v", held, rep.LockRetained)
	}
	if !exists(staged) {
		t.Error("staged record deleted after timeout")
	}

	time.Sleep(1500 * time.Millisecond)
	if _, err := os.Stat(loaded); err == nil {
		t.Error("bimport child kept running after the run released its lock")
	}
}
