package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HTTPBackendClient talks to the qhana-backend's experiment API over plain
// HTTP, the default BackendClient wired by the server entry point. The
// endpoints mirror the backend's data-summary and timeline-step resources
// as consumed by the original's tasks/recommendations_context fetches.
type HTTPBackendClient struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPBackendClient creates an HTTPBackendClient with the given
// per-request timeout (defaults to 5s when zero).
func NewHTTPBackendClient(client *http.Client, timeout time.Duration) *HTTPBackendClient {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPBackendClient{client: client, timeout: timeout}
}

func (c *HTTPBackendClient) getJSON(ctx context.Context, rawURL string, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build backend request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("backend request %s: status %d", rawURL, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response %s: %w", rawURL, err)
	}
	return nil
}

// DataSummary fetches the experiment's available-data map: data type to the
// list of content types present, spec §4.6 enrichment 1.
func (c *HTTPBackendClient) DataSummary(ctx context.Context, baseURL, experiment string) (map[string][]string, error) {
	u := fmt.Sprintf("%s/experiments/%s/data-summary", trimSlash(baseURL), url.PathEscape(experiment))
	var summary map[string][]string
	if err := c.getJSON(ctx, u, &summary); err != nil {
		return nil, err
	}
	return summary, nil
}

type stepDataEntry struct {
	DataType    string `json:"dataType"`
	ContentType string `json:"contentType"`
	Name        string `json:"name"`
}

type stepDetailsResponse struct {
	InputData     []stepDataEntry `json:"inputData"`
	OutputData    []stepDataEntry `json:"outputData"`
	Status        string          `json:"status"`
	ResultQuality string          `json:"resultQuality"`
	Processor     struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"processor"`
}

// FetchStepDetails fetches one timeline step's input/output data, status,
// result quality, and processor identity, spec §4.6 enrichment 2.
func (c *HTTPBackendClient) FetchStepDetails(ctx context.Context, baseURL, experiment string, step int) (StepDetails, error) {
	u := fmt.Sprintf("%s/experiments/%s/timeline/%s",
		trimSlash(baseURL), url.PathEscape(experiment), strconv.Itoa(step))
	var raw stepDetailsResponse
	if err := c.getJSON(ctx, u, &raw); err != nil {
		return StepDetails{}, err
	}

	details := StepDetails{
		Status:           parseStepStatus(raw.Status),
		ResultQuality:    parseDataQuality(raw.ResultQuality),
		ProcessorName:    raw.Processor.Name,
		ProcessorVersion: raw.Processor.Version,
	}
	for _, e := range raw.InputData {
		details.InputData = append(details.InputData, DataItem{DataType: e.DataType, ContentType: e.ContentType, Name: e.Name})
	}
	for _, e := range raw.OutputData {
		details.OutputData = append(details.OutputData, DataItem{DataType: e.DataType, ContentType: e.ContentType, Name: e.Name})
	}
	return details, nil
}

func parseStepStatus(raw string) StepStatus {
	switch StepStatus(raw) {
	case StepPending, StepFailure, StepSuccess:
		return StepStatus(raw)
	}
	return StepUnknown
}

func parseDataQuality(raw string) DataQuality {
	switch DataQuality(raw) {
	case QualityBad, QualityNeutral, QualityGood:
		return DataQuality(raw)
	}
	return QualityUnknown
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
