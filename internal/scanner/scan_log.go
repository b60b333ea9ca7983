package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"qrmanager/internal/models"

	json "github.com/goccy/go-json"
)

const (
	scanLogName = "qr_output.txt"
	summaryName = "data.json"
)

// ReadScanLog returns the valid codes of a scan log in the order they were
// written, ignoring blank lines, malformed lines and repeats.
func ReadScanLog(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	codes := make([]string, 0)
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		code := models.NormalizeCode(scanner.Text())
		if !models.IsValidCode(code) {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

// WriteSummary writes data.json for one scanned video into outputDir.
func WriteSummary(outputDir, video string, codes []string) (string, error) {
	if codes == nil {
		codes = []string{}
	}
	data, err := json.MarshalIndent(models.ScanSummary{
		Video:      video,
		TotalCodes: len(codes),
		Codes:      codes,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, summaryName)
	return path, os.WriteFile(path, data, 0644)
}
