package v1

import (
	"net/http"
	"strconv"

	"github.com/vulntor/stackscan/pkg/server/api"
	"github.com/vulntor/stackscan/pkg/server/jobs"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

// BatchItem is one entry of a batch response. Error is set when the
// detection failed, in which case Technologies is null.
type BatchItem struct {
	URL          string                          `json:"url"`
	FinalURL     string                          `json:"final_url,omitempty"`
	Technologies map[string]techdetect.Detection `json:"technologies"`
	Error        *api.ErrorResponse              `json:"error,omitempty"`
}

// BatchResponse is returned by POST /api/v1/detect/batch.
type BatchResponse struct {
	Results   []BatchItem `json:"results"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// BatchDetectHandler handles POST /api/v1/detect/batch.
//
// Every URL is detected independently on the job worker pool. The response
// is 200 with per-URL results in request order, even when some fail.
func BatchDetectHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Jobs == nil {
			api.WriteJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "batch detection disabled")
			return
		}

		req, err := ParseBatchBody(w, r, deps.Config.MaxBatchSize)
		if err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}

		ctx, cancel := handlerContext(r, deps.Config)
		defer cancel()

		batch := make([]jobs.Job, len(req.URLs))
		for i, u := range req.URLs {
			batch[i] = jobs.Job{
				ID:      strconv.Itoa(i),
				Request: DetectRequest{URL: u, Timeout: req.Timeout, Cookie: req.Cookie}.Request(),
			}
		}

		resp := BatchResponse{Results: make([]BatchItem, 0, len(batch))}
		for _, res := range jobs.RunAll(ctx, deps.Jobs, batch) {
			resp.Results = append(resp.Results, NewBatchItem(res))
			if res.Err != nil {
				resp.Failed++
			} else {
				resp.Succeeded++
			}
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// NewBatchItem converts a job result into its batch wire form.
func NewBatchItem(res jobs.Result) BatchItem {
	if res.Err != nil {
		status := techdetect.HTTPStatus(res.Err)
		return BatchItem{
			URL: res.Job.Request.URL,
			Error: &api.ErrorResponse{
				Error:   http.StatusText(status),
				Code:    techdetect.ErrorCode(res.Err),
				Message: res.Err.Error(),
			},
		}
	}
	body := api.NewDetectResponse(res.Report)
	return BatchItem{URL: body.URL, FinalURL: body.FinalURL, Technologies: body.Technologies}
}
