package controllers

import (
	"fmt"
	"net/http"
	"qrmanager/internal/models"
	"qrmanager/internal/store/interfaces"
	"time"

	json "github.com/goccy/go-json"
)

type HealthController struct {
	store     interfaces.MetadataStoreInterface
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Channels      int     `json:"channels"`
	Videos        int     `json:"videos"`
	Codes         int     `json:"codes"`
	Error         string  `json:"error,omitempty"`
}

// Health reports uptime and store totals. A store that cannot be read
// answers 503.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
	}
	status := http.StatusOK

	err := hc.store.View(func(doc *models.Document) error {
		resp.Channels = len(doc.Channels)
		for _, ch := range doc.Channels {
			resp.Videos += len(ch.Videos)
			for _, v := range ch.Videos {
				resp.Codes += v.TotalCodes
			}
		}
		return nil
	})
	if err != nil {
		resp.Status = "degraded"
		resp.Error = err.Error()
		status = http.StatusServiceUnavailable
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(store interfaces.MetadataStoreInterface) *HealthController {
	return &HealthController{
		store:     store,
		startTime: time.Now(),
	}
}
