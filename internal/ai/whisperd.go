package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// whisperd talks to a self-hosted whisper job server: submit the audio,
// poll the job until it settles, then read the text out of the final status.
type whisperdConfig struct {
	BaseURL        string `json:"base_url"`
	Token          string `json:"token"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type whisperdProvider struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
}

type whisperdSubmitResponse struct {
	JobID string `json:"job_id"`
}

type whisperdStatusResponse struct {
	Status   string  `json:"status"` // queued, processing, done, failed
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error"`
}

func (p *whisperdProvider) Name() string {
	return "whisperd"
}

func (p *whisperdProvider) Transcribe(ctx context.Context, model string, req *TranscribeRequest) (*TranscribeResult, error) {
	jobID, err := p.submit(ctx, model, req)
	if err != nil {
		return nil, err
	}
	status, err := p.waitForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(status.Text) == "" {
		return nil, fmt.Errorf("whisperd job %s produced no text", jobID)
	}
	return &TranscribeResult{
		Text:            status.Text,
		Language:        status.Language,
		DurationSeconds: status.Duration,
	}, nil
}

func (p *whisperdProvider) submit(ctx context.Context, model string, req *TranscribeRequest) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", req.Filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, req.Audio); err != nil {
		return "", err
	}
	_ = writer.WriteField("model", model)
	if req.Language != "" {
		_ = writer.WriteField("language", req.Language)
	}
	if req.BeamSize > 0 {
		_ = writer.WriteField("beam_size", strconv.Itoa(req.BeamSize))
	}
	if err := writer.Close(); err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/jobs", &body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	p.auth(httpReq)
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("whisperd submit failed: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	var out whisperdSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.JobID == "" {
		return "", fmt.Errorf("whisperd submit returned no job id")
	}
	return out.JobID, nil
}

func (p *whisperdProvider) waitForJob(ctx context.Context, jobID string) (*whisperdStatusResponse, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = p.timeout

	var result *whisperdStatusResponse
	operation := func() error {
		status, err := p.jobStatus(ctx, jobID)
		if err != nil {
			return err
		}
		switch status.Status {
		case "done":
			result = status
			return nil
		case "failed":
			return backoff.Permanent(fmt.Errorf("whisperd job %s failed: %s", jobID, status.Error))
		default:
			return fmt.Errorf("whisperd job %s still %s", jobID, status.Status)
		}
	}
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *whisperdProvider) jobStatus(ctx context.Context, jobID string) (*whisperdStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	p.auth(req)
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("whisperd status failed: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	var out whisperdStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *whisperdProvider) auth(req *http.Request) {
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
}

func createWhisperdFactory(args interface{}) (ITranscribeProvider, error) {
	cfg := &whisperdConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("whisperd base_url is required")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &whisperdProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(cfg.Token),
		timeout: timeout,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func init() {
	RegisterTranscribe("whisperd", createWhisperdFactory)
}
