package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/metro-mecard/mecard/internal/ils/bimport"
)

// stagedFiles lists staged records in directory order.
func stagedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read load dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && bimport.IsStaged(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// readRecords reads every staged file. Unreadable files are skipped and left
// in place for the next run.
func readRecords(files []string, logger *zap.Logger) (lines []string, consumed, skipped []string) {
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable staged record", zap.String("file", path), zap.Error(err))
			skipped = append(skipped, path)
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			lines = append(lines, line)
		}
		consumed = append(consumed, path)
	}
	return lines, consumed, skipped
}

// writeCombined writes lines as one CRLF-terminated data file named by
// timestamp. A name already taken moves to the next millisecond.
func writeCombined(dir string, lines []string, enc string, now time.Time) (string, error) {
	content := strings.Join(lines, "\r\n") + "\r\n"
	data, err := encode(content, enc)
	if err != nil {
		return "", err
	}

	stamp := now.UnixMilli()
	for range 1000 {
		path := filepath.Join(dir, bimport.FilePrefix+strconv.FormatInt(stamp, 10)+bimport.CombinedSuffix)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if errors.Is(err, fs.ErrExist) {
			stamp++
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create combined file: %w", err)
		}
		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("write combined file: %w", errors.Join(werr, cerr))
		}
		return path, nil
	}
	return "", fmt.Errorf("no free combined file name in %s", dir)
}

func encode(s, enc string) ([]byte, error) {
	switch strings.ToLower(enc) {
	case "", "utf-8", "utf8":
		return []byte(s), nil
	case "windows-1252", "cp1252":
		out, err := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()).Bytes([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("encode combined file: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported combined file encoding %q", enc)
}
