package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"murmur/encoder"
)

const DefaultEndpoint = "https://api.groq.com/openai/v1/audio/transcriptions"

// HTTP talks to an OpenAI-compatible audio/transcriptions endpoint.
// Audio is sent as canonical WAV in a multipart form with
// response_format=verbose_json so segment probabilities come back.
type HTTP struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client

	mu   sync.Mutex
	lang string
}

func NewHTTP(endpoint, model, apiKey string) *HTTP {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = "whisper-large-v3-turbo"
	}
	return &HTTP{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (h *HTTP) Name() string { return "http" }

func (h *HTTP) SetLanguage(lang string) {
	h.mu.Lock()
	h.lang = lang
	h.mu.Unlock()
}

func (h *HTTP) GetLanguage() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lang
}

type verboseResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text         string  `json:"text"`
		Start        float64 `json:"start"`
		End          float64 `json:"end"`
		NoSpeechProb float64 `json:"no_speech_prob"`
		AvgLogProb   float64 `json:"avg_logprob"`
	} `json:"segments"`
}

func (h *HTTP) Transcribe(ctx context.Context, pcm []byte) (Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return Result{}, err
	}
	if _, err := part.Write(encoder.EncodeWAV(pcm)); err != nil {
		return Result{}, err
	}

	writer.WriteField("model", h.model)
	writer.WriteField("response_format", "verbose_json")
	if lang := h.GetLanguage(); lang != "" {
		writer.WriteField("language", lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("transcription API error %d: %s", resp.StatusCode, data)
	}

	var vr verboseResponse
	if err := json.Unmarshal(data, &vr); err != nil {
		return Result{}, fmt.Errorf("parsing transcription response: %w", err)
	}

	res := Result{
		Text:     vr.Text,
		Duration: vr.Duration,
	}
	if len(vr.Segments) > 0 {
		var logProbSum float64
		for _, seg := range vr.Segments {
			logProbSum += seg.AvgLogProb
			res.Segments = append(res.Segments, Segment{
				Text:  seg.Text,
				Start: seg.Start,
				End:   seg.End,
			})
		}
		// avg_logprob is the mean token log probability; exp maps it
		// back to a rough per-token confidence.
		res.Confidence = math.Exp(logProbSum / float64(len(vr.Segments)))
		if res.Confidence > 1 {
			res.Confidence = 1
		}
	}
	return res, nil
}
