package bimport

import (
	"path/filepath"
	"strings"
)

// File naming shared by the staging path and the batch loader.
const (
	FilePrefix     = "metro-"
	DataSuffix     = "-data.txt"
	CombinedSuffix = "-bimport.txt"
	HeaderName     = FilePrefix + "template-header.txt"
	FailSuffix     = ".fail"
	// SuccessMarker is what a staged create/update reports on stdout.
	SuccessMarker = "<ok>"
)

// StagedName returns the staging file name for a transaction.
func StagedName(txID string) string {
	return FilePrefix + txID + DataSuffix
}

// IsStaged reports whether name is a staged record file.
func IsStaged(name string) bool {
	return strings.HasPrefix(name, FilePrefix) && strings.HasSuffix(name, DataSuffix)
}

// HeaderPath returns the header template location inside loadDir.
func HeaderPath(loadDir string) string {
	return filepath.Join(loadDir, HeaderName)
}

// FailureName returns the failure marker file name for a customer key.
func FailureName(customerID string) string {
	return customerID + FailSuffix
}
