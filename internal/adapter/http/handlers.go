package http

import (
	"github.com/Strob0t/Karuna/internal/port/database"
	"github.com/Strob0t/Karuna/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Directory *service.DirectoryService
	Medicines *service.MedicineService
	Students  *service.StudentService
	Diagnosis *service.DiagnosisService
	Chat      *service.ChatService
	Reports   *service.ReportService
	Cache     *service.CacheService
	DB        database.Connection
}
