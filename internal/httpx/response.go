package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse es el cuerpo estándar de error de la API.
// Los éxitos viajan sin sobre: el cliente recibe el recurso o el arreglo tal cual.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describe un error de forma estructurada.
// No exponer detalles internos (SQL, stacktrace, etc.).
type ErrorBody struct {
	Code      string `json:"code"`    // ej: "invalid_input", "not_found"
	Message   string `json:"message"` // mensaje para humanos
	RequestID string `json:"request_id,omitempty"`
}

// Message es el cuerpo de las confirmaciones sin recurso (ej: DELETE).
type Message struct {
	Message string `json:"message"`
}

// JSON escribe una respuesta JSON con headers correctos.
// Nota: en caso de error de encodeo, responde 500 de forma segura.
func JSON(w http.ResponseWriter, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		// Último recurso: no se pudo serializar JSON.
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"internal_error","message":"internal server error"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(payload, '\n'))
}

// OK devuelve una respuesta exitosa con data.
func OK(w http.ResponseWriter, r *http.Request, status int, data any) {
	setRequestID(w, r)
	JSON(w, status, data)
}

// Fail devuelve un error estructurado.
func Fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	setRequestID(w, r)
	JSON(w, status, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFrom(r),
	}})
}

func setRequestID(w http.ResponseWriter, r *http.Request) {
	if id := RequestIDFrom(r); id != "" {
		w.Header().Set("X-Request-Id", id)
	}
}
