package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/metro-mecard/mecard/internal/domain/failure"
	"github.com/metro-mecard/mecard/internal/ils/bimport"
)

// writeFailureMarker records f as <customerId>.fail holding a stdout line and a stderr line.
func writeFailureMarker(dir string, f failure.Failure) (string, error) {
	path := filepath.Join(dir, bimport.FailureName(safeName(f.CustomerID)))
	content := oneLine(f.Stdout) + "\n" + oneLine(f.Stderr) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		return "", fmt.Errorf("write failure marker: %w", err)
	}
	return path, nil
}

// ListFailures reads the failure markers in dir, sorted by customer id.
func ListFailures(dir string) ([]failure.Failure, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read failure dir %s: %w", dir, err)
	}
	var out []failure.Failure
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), bimport.FailSuffix) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		stdout, stderr, _ := strings.Cut(strings.TrimRight(string(data), "\n"), "\n")
		f := failure.Failure{
			CustomerID: strings.TrimSuffix(e.Name(), bimport.FailSuffix),
			Stdout:     stdout,
			Stderr:     stderr,
		}
		if info, err := e.Info(); err == nil {
			f.At = info.ModTime()
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out, nil
}

// RemoveFailure deletes the failure marker for customerID once an operator has dealt with it.
func RemoveFailure(dir, customerID string) error {
	err := os.Remove(filepath.Join(dir, bimport.FailureName(safeName(customerID))))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no failure recorded for %s: %w", customerID, err)
	}
	return err
}

// oneLine folds line breaks so a stream fits on one marker line.
func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Join(strings.Split(strings.TrimRight(s, "\n"), "\n"), " ")
}

func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator || r < ' ' {
			return '_'
		}
		return r
	}, filepath.Base(filepath.Clean("/"+id)))
}
