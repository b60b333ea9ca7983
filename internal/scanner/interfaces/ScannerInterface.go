package interfaces

import "qrmanager/internal/models"

type ScannerInterface interface {
	RunScan(req models.ScanRequest) (*models.ScanResult, error)
}
