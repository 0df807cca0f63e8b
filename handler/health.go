package handler

import (
	"fmt"
	"net/http"
)

type HealthAPI struct{}

func NewHealthAPI() *HealthAPI {
	return &HealthAPI{}
}

func (h *HealthAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub, _ := ShiftPath(r.URL.Path)
	switch {
	case sub != "":
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("subpath %q was not registered in the health api", sub))
		return
	case r.Method != http.MethodGet:
		Error(w, http.StatusMethodNotAllowed, "method not allowed", fmt.Errorf("use GET to check health"))
		return
	}

	JSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{OK: true})
}
