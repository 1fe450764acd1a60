package handlers

import (
	"log"
	"net/http"
)

type TablesResponse struct {
	CountTables int      `json:"countTables"`
	Missing     []string `json:"missing"`
}

func (h *Handlers) TablesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := h.TablesService.GetCountTablesBD(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	missing, err := h.TablesService.MissingTables(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, TablesResponse{CountTables: count, Missing: missing}, http.StatusOK)
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			log.Printf("Проверка здоровья не пройдена: %v", err)
			WriteError(w, "База данных недоступна", http.StatusServiceUnavailable)
			return
		}
	}

	writeSuccess(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func HomeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, "Не найдено", http.StatusNotFound)
		return
	}

	writeSuccess(w, map[string]string{"service": "damoyeo"}, http.StatusOK)
}
