package handler

import (
	"encoding/json"
	"net/http"
)

func Index(w http.ResponseWriter) {
	Message(w, http.StatusOK, "chanwatch index")
}

// JSON writes v with status. A value that cannot be marshalled becomes a 500.
func JSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = errorBody("could not marshal response", err)
	}
	w.WriteHeader(status)
	w.Write(body)
}

func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, struct {
		Message string `json:"message"`
	}{Message: message})
}

// Error writes the {message, error} body used for every failed request.
func Error(w http.ResponseWriter, status int, message string, err error) {
	w.WriteHeader(status)
	w.Write(errorBody(message, err))
}

func errorBody(message string, err error) []byte {
	body, _ := json.Marshal(struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}{
		Message: message,
		Error:   err.Error(),
	})
	return body
}
