package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"unicode/utf8"

	"go.uber.org/zap"

	"emotionapi/internal/model"
)

// PredictRequest is the body of POST /predict/.
type PredictRequest struct {
	Text string `json:"text"`
}

// PredictResponse echoes the input text with its predicted emotion.
type PredictResponse struct {
	Text    string      `json:"text"`
	Emotion model.Label `json:"emotion"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeValidationError(w, ValidationDetail{
			Type: "missing",
			Loc:  []any{"body"},
			Msg:  "Field required",
		})
		return
	}
	req, detail := decodePredictRequest(body)
	if detail != nil {
		writeValidationError(w, *detail)
		return
	}

	res, err := s.predictor.Predict(r.Context(), req.Text)
	if err != nil {
		s.log.Error("prediction failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, PredictResponse{Text: res.Text, Emotion: res.Emotion})
}

// handlePredictRedirect sends slash-less requests to the canonical route with 307,
// so clients repeat the POST with its body.
func (s *Server) handlePredictRedirect(w http.ResponseWriter, r *http.Request) {
	target := "/predict/"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyStatus is the body of GET /readyz.
type ReadyStatus struct {
	Status     string        `json:"status"`
	Vocabulary int           `json:"vocabulary,omitempty"`
	Features   int           `json:"features,omitempty"`
	Classes    []model.Label `json:"classes,omitempty"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.draining.Load() {
		writeJSON(w, http.StatusServiceUnavailable, ReadyStatus{Status: "shutting down"})
		return
	}
	writeJSON(w, http.StatusOK, ReadyStatus{
		Status:     "ready",
		Vocabulary: s.predictor.VocabularySize(),
		Features:   s.predictor.Dimensions(),
		Classes:    s.predictor.Classes(),
	})
}

// decodePredictRequest validates the body the way a schema-validated endpoint
// would: it must be a JSON object whose "text" member is a string. Unknown
// members are ignored.
func decodePredictRequest(body []byte) (PredictRequest, *ValidationDetail) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return PredictRequest{}, &ValidationDetail{
			Type: "missing",
			Loc:  []any{"body"},
			Msg:  "Field required",
		}
	}

	if !utf8.Valid(trimmed) {
		return PredictRequest{}, &ValidationDetail{
			Type:  "json_invalid",
			Loc:   []any{"body", invalidUTF8Offset(trimmed)},
			Msg:   "JSON decode error",
			Input: map[string]any{},
			Ctx:   map[string]any{"error": "invalid UTF-8"},
		}
	}

	var raw json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		var pos int64
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			pos = syntaxErr.Offset
		}
		return PredictRequest{}, &ValidationDetail{
			Type:  "json_invalid",
			Loc:   []any{"body", pos},
			Msg:   "JSON decode error",
			Input: map[string]any{},
			Ctx:   map[string]any{"error": err.Error()},
		}
	}

	var fields map[string]json.RawMessage
	if trimmed[0] != '{' || json.Unmarshal(trimmed, &fields) != nil {
		return PredictRequest{}, &ValidationDetail{
			Type:  "model_attributes_type",
			Loc:   []any{"body"},
			Msg:   "Input should be a valid dictionary or object to extract fields from",
			Input: decodeAny(trimmed),
		}
	}

	text, ok := fields["text"]
	if !ok {
		return PredictRequest{}, &ValidationDetail{
			Type:  "missing",
			Loc:   []any{"body", "text"},
			Msg:   "Field required",
			Input: decodeAny(trimmed),
		}
	}

	var req PredictRequest
	if bytes.Equal(bytes.TrimSpace(text), []byte("null")) || json.Unmarshal(text, &req.Text) != nil {
		return PredictRequest{}, &ValidationDetail{
			Type:  "string_type",
			Loc:   []any{"body", "text"},
			Msg:   "Input should be a valid string",
			Input: decodeAny(text),
		}
	}
	return req, nil
}

func invalidUTF8Offset(data []byte) int64 {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return int64(i)
		}
		i += size
	}
	return int64(len(data))
}

func decodeAny(data []byte) any {
	var v any
	_ = json.Unmarshal(data, &v)
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		writeInternalError(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(bytes.TrimRight(buf.Bytes(), "\n"))
}

func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte("Internal Server Error"))
}
