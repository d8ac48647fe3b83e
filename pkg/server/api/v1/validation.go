package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/vulntor/stackscan/pkg/techdetect"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var validate = validator.New()

// DetectRequest is the input of a single detection. Timeout is in seconds;
// zero selects the server default.
type DetectRequest struct {
	URL     string  `json:"url" validate:"max=2048"`
	Timeout float64 `json:"timeout" validate:"gte=0,lte=3600"`
	Cookie  string  `json:"cookie" validate:"max=8192"`
}

// Request converts d into a detector request.
func (d DetectRequest) Request() techdetect.Request {
	return techdetect.Request{
		URL:     strings.TrimSpace(d.URL),
		Timeout: time.Duration(d.Timeout * float64(time.Second)),
		Cookie:  d.Cookie,
	}
}

// BatchRequest detects several URLs with shared options.
type BatchRequest struct {
	URLs    []string `json:"urls" validate:"required,min=1,dive,required,max=2048"`
	Timeout float64  `json:"timeout" validate:"gte=0,lte=3600"`
	Cookie  string   `json:"cookie" validate:"max=8192"`
}

// ParseDetectQuery reads url, timeout and cookie from the query string.
// A missing url is left to the detector so it is reported as URL_REQUIRED.
func ParseDetectQuery(r *http.Request) (*DetectRequest, error) {
	q := r.URL.Query()
	res := DetectRequest{
		URL:    q.Get("url"),
		Cookie: q.Get("cookie"),
	}

	if v := strings.TrimSpace(q.Get("timeout")); v != "" {
		secs, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, &ValidationError{Field: "timeout", Reason: "must be a number of seconds"}
		}
		res.Timeout = secs
	}

	if err := validateStruct(res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ParseDetectBody decodes and validates a JSON DetectRequest.
func ParseDetectBody(w http.ResponseWriter, r *http.Request) (*DetectRequest, error) {
	var res DetectRequest
	if err := decodeJSON(w, r, &res); err != nil {
		return nil, err
	}
	if err := validateStruct(res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ParseBatchBody decodes and validates a JSON BatchRequest. maxURLs of zero
// disables the size check.
func ParseBatchBody(w http.ResponseWriter, r *http.Request, maxURLs int) (*BatchRequest, error) {
	var res BatchRequest
	if err := decodeJSON(w, r, &res); err != nil {
		return nil, err
	}
	if err := validateStruct(res); err != nil {
		return nil, err
	}
	if maxURLs > 0 && len(res.URLs) > maxURLs {
		return nil, &ValidationError{Field: "urls", Reason: fmt.Sprintf("at most %d urls per batch", maxURLs)}
	}
	return &res, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &ValidationError{Reason: "request body is empty"}
		}
		return &ValidationError{Reason: "invalid JSON body: " + err.Error()}
	}
	return nil
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: jsonField(fe.Namespace()), Reason: "failed " + fe.Tag()}
	}
	return &ValidationError{Reason: err.Error()}
}

// jsonField maps "DetectRequest.Timeout" to "timeout" and
// "BatchRequest.URLs[2]" to "urls[2]".
func jsonField(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

// ValidationError is a lightweight error used for 400 responses.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		if e.Reason == "" {
			return "validation failed"
		}
		return e.Reason
	}
	if e.Reason == "" {
		return e.Field + ": invalid"
	}
	return e.Field + ": " + e.Reason
}
