package adminapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// Problem is an RFC 7807-shaped error body, used by every admin/health
// endpoint so clients get one error shape regardless of which handler
// produced it.
type Problem struct {
	StatusCode int    `json:"status"`
	ErrorCode  int    `json:"errorCode"`
	Message    string `json:"message"`
	Detail     string `json:"detail"`
	Instance   string `json:"instance"`
}

func NewBadRequest(detail string) Problem {
	return Problem{StatusCode: http.StatusBadRequest, ErrorCode: http.StatusBadRequest, Message: "Bad Request", Detail: detail, Instance: uuid.NewString()}
}

func NewServerError(detail string) Problem {
	return Problem{StatusCode: http.StatusInternalServerError, ErrorCode: http.StatusInternalServerError, Message: "Internal Error", Detail: detail, Instance: uuid.NewString()}
}

func NewNotFound() Problem {
	return Problem{StatusCode: http.StatusNotFound, ErrorCode: http.StatusNotFound, Message: "Not Found", Detail: "Not Found", Instance: uuid.NewString()}
}

func NewTooManyRequests(detail string) Problem {
	return Problem{StatusCode: http.StatusTooManyRequests, ErrorCode: http.StatusTooManyRequests, Message: "Too Many Requests", Detail: detail, Instance: uuid.NewString()}
}

const ContentType = "Content-Type"
const ApplicationJSONContentType = "application/json; charset=utf-8"

func JSONOk(w http.ResponseWriter, body any) {
	w.Header().Set(ContentType, ApplicationJSONContentType)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

func JSONError(w http.ResponseWriter, problem Problem) {
	w.Header().Set(ContentType, ApplicationJSONContentType)
	w.WriteHeader(problem.StatusCode)
	json.NewEncoder(w).Encode(problem)
}
