package labops

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
)

// BuildVersion - will be filled at build process in pipeline
var BuildVersion = "dev"

type healthCheck struct {
	Service      string          `json:"service"`
	Status       string          `json:"status"`
	ApiVersion   []string        `json:"apiVersion"`
	BuildVersion string          `json:"buildVersion"`
	Features     map[string]bool `json:"features"`
	MemStats     memStats        `json:"memStats"`
}

type memStats struct {
	Alloc              string `json:"alloc"`
	Sys                string `json:"sys"`
	HeapInUse          string `json:"heapInUse"`
	NumberOfGoRoutines int    `json:"numberOfGoRoutines"`
}

func (api *api) GetHealth(c *gin.Context) {
	health := healthCheck{
		Service:      api.config.ApplicationName,
		Status:       "running",
		ApiVersion:   []string{"v1"},
		BuildVersion: BuildVersion,
		Features: map[string]bool{
			"authorization":     api.config.Authorization,
			"flowcellTransfers": api.flowcellService != nil,
		},
	}

	var memStat runtime.MemStats
	runtime.ReadMemStats(&memStat)

	health.MemStats.Alloc = fmt.Sprintf("%v MiB", memStat.Alloc/1024/1024)
	health.MemStats.Sys = fmt.Sprintf("%v MiB", memStat.Sys/1024/1024)
	health.MemStats.HeapInUse = fmt.Sprintf("%v MiB", memStat.HeapInuse/1024/1024)
	health.MemStats.NumberOfGoRoutines = runtime.NumGoroutine()

	c.JSON(http.StatusOK, health)
}
