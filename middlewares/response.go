package middlewares

import (
	"encoding/json"
	"fmt"
	"net/http"

	"bitbucket.org/vecpay/backend/config"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type ResponseWriter struct {
	Writer http.ResponseWriter
	scope  string
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		Writer: w,
	}
}

type generalResponse struct {
	Errors  []*errorResponse `json:"errors"`
	Success bool             `json:"success"`
	Data    interface{}      `json:"data"`
}

type errorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Scope   string      `json:"scope"`
	Data    interface{} `json:"data"`
}

type ErrOption func(*errorResponse)

func WithErrorScope(scope string) ErrOption {
	return func(err *errorResponse) {
		err.Scope = scope
	}
}

func (r *ResponseWriter) writeJSONResponse(code int, errors []*errorResponse, data interface{}) {
	r.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	response := &generalResponse{Errors: errors, Success: errors == nil, Data: data}
	b, err := json.Marshal(response)
	if err != nil {
		r.Writer.WriteHeader(http.StatusInternalServerError)
		r.Writer.Write([]byte(fmt.Sprintf("unexpected error: %v", err)))
		return
	}
	r.Writer.WriteHeader(code)
	r.Writer.Write(b)
}

func (r *ResponseWriter) writePlainJSONResponse(statusCode int, data interface{}) {
	b, err := json.Marshal(data)
	if err != nil {
		r.Writer.WriteHeader(http.StatusInternalServerError)
		r.Writer.Write([]byte(fmt.Sprintf("unexpected error: %v", err)))
		return
	}

	r.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	r.Writer.WriteHeader(statusCode)
	r.Writer.Write(b)
}

func (r *ResponseWriter) WriteJSON(statusCode int, data interface{}, err error, message string) {
	logger := config.GetLogger()
	fields := make(log.Fields)
	fields["status_code"] = statusCode
	if statusCode >= 200 && statusCode <= 299 {
		logger.WithFields(fields).Info("success")
	}
	if statusCode >= 300 {
		if data == nil {
			data = map[string]interface{}{
				"error": message,
			}
		}
		if err == nil {
			err = errors.Errorf(message)
		}
		fields["errors"] = data
		logger.WithFields(fields).Error(err)
	}
	r.writePlainJSONResponse(statusCode, data)
}

func (r *ResponseWriter) JSON(code int, data interface{}) {
	r.writeJSONResponse(code, nil, data)
}

func (r *ResponseWriter) String(code int, msg string) {
	r.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	r.Writer.WriteHeader(code)
	r.Writer.Write([]byte(msg))
}

func (r *ResponseWriter) Error(code int, msg string, opts ...ErrOption) {
	err := &errorResponse{Code: code, Message: msg}
	for _, With := range opts {
		With(err)
	}
	r.writeJSONResponse(code, []*errorResponse{err}, nil)
}

// StartLogger scopes subsequent LogError/LogInfo calls, used by webhook-style
// handlers that always ack with 200 so the caller does not retry.
func (r *ResponseWriter) StartLogger(scope string) {
	r.scope = scope
}

func (r *ResponseWriter) LogError(err error, message string) {
	logger := config.GetLogger()
	if err == nil {
		err = errors.Errorf(message)
	}
	logger.WithFields(log.Fields{"scope": r.scope, "message": message}).Error(err)
	r.writePlainJSONResponse(http.StatusOK, map[string]interface{}{"error": message})
}

func (r *ResponseWriter) LogInfo(data interface{}, message string) {
	logger := config.GetLogger()
	logger.WithFields(log.Fields{"scope": r.scope, "message": message}).Info("success")
	r.writePlainJSONResponse(http.StatusOK, data)
}
