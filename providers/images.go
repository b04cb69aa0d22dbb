/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"
)

type ImageSize string

const (
	SizeSquare    ImageSize = "square"
	SizePortrait  ImageSize = "portrait"
	SizeLandscape ImageSize = "landscape"
)

func (s ImageSize) dimensions() (int, int) {
	switch s {
	case SizePortrait:
		return 512, 768
	case SizeLandscape:
		return 768, 512
	default:
		return 512, 512
	}
}

// falName maps our sizes onto the presets the flux endpoints accept.
func (s ImageSize) falName() string {
	switch s {
	case SizePortrait:
		return "portrait_4_3"
	case SizeLandscape:
		return "landscape_4_3"
	default:
		return "square"
	}
}

type ImageRequest struct {
	Prompt string
	Size   ImageSize
	Steps  int
}

type ImageResult struct {
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt"`
}

const (
	DefaultFalURL   = "https://fal.run"
	DefaultFalModel = "fal-ai/flux/schnell"

	styleSuffix = ", vibrant illustrated art style, colorful digital illustration, cartoon aesthetic"
)

type Fal struct {
	Key     string
	BaseURL string
	Model   string
	Timeout time.Duration
	Client  *http.Client
}

func NewFal(key, baseURL, model string, timeout time.Duration) *Fal {
	if baseURL == "" {
		baseURL = DefaultFalURL
	}
	if model == "" {
		model = DefaultFalModel
	}

	return &Fal{
		Key:     key,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Model:   model,
		Timeout: timeout,
		Client:  &http.Client{},
	}
}

type falRequest struct {
	Prompt              string `json:"prompt"`
	ImageSize           string `json:"image_size"`
	NumInferenceSteps   int    `json:"num_inference_steps"`
	NumImages           int    `json:"num_images"`
	EnableSafetyChecker bool   `json:"enable_safety_checker"`
}

type falResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

func (f *Fal) Generate(ctx context.Context, req ImageRequest) (ImageResult, error) {
	if f.Key == "" {
		return ImageResult{}, fmt.Errorf("fal: %w", ErrNotConfigured)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return ImageResult{}, &APIError{Provider: "FAL", Status: http.StatusBadRequest, Message: "Prompt is required"}
	}

	steps := req.Steps
	if steps <= 0 {
		steps = 4
	}

	var out falResponse

	err := postJSON(ctx, f.Client, f.Timeout, "FAL", f.BaseURL+"/"+f.Model,
		http.Header{"Authorization": {"Key " + f.Key}},
		falRequest{
			Prompt:            req.Prompt + styleSuffix,
			ImageSize:         req.Size.falName(),
			NumInferenceSteps: steps,
			NumImages:         1,
		}, &out)
	if err != nil {
		return ImageResult{}, err
	}

	if len(out.Images) == 0 || out.Images[0].URL == "" {
		return ImageResult{}, &APIError{Provider: "FAL", Status: http.StatusInternalServerError, Message: "No image generated"}
	}

	return ImageResult{
		ImageURL: out.Images[0].URL,
		Prompt:   req.Prompt,
	}, nil
}

// Mock stands in for a real generator when no key is configured. The same
// prompt always yields the same placeholder image.
type Mock struct {
	Delay time.Duration
}

func (m Mock) Generate(ctx context.Context, req ImageRequest) (ImageResult, error) {
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return ImageResult{}, ctx.Err()
		case <-time.After(m.Delay):
		}
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(req.Prompt))

	w, ht := req.Size.dimensions()

	return ImageResult{
		ImageURL: fmt.Sprintf("https://picsum.photos/seed/%d/%d/%d", h.Sum32(), w, ht),
		Prompt:   req.Prompt,
	}, nil
}
