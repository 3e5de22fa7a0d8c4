/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend is a minimal HTTP client for the symbol detection and OCR
// service. Detected boxes and recognized text arrive in normalized page
// coordinates and are mapped to external, read-only markups that the user can
// adopt later.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"redline/internal/domain"
	"redline/internal/vector"
)

// Client talks to the detector service. It supports the read-only operations
// used by the redlining engine under a feature flag.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new detector client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// HealthStatus is the service health response.
type HealthStatus struct {
	Status       string `json:"status"`
	OCRAvailable bool   `json:"ocr_available"`
	ModelsCached int    `json:"models_cached"`
}

// Health checks whether the detector service is reachable and ready.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var st HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// BBox is a normalized page-fraction bounding box as the service reports it.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DetectRequest asks the service to run symbol detection on a PDF.
// Pages are 1-indexed; nil means all pages.
type DetectRequest struct {
	PDFPath    string   `json:"pdfPath"`
	ModelIDs   []string `json:"modelIds"`
	Confidence float64  `json:"confidence,omitempty"`
	Pages      []int    `json:"pages,omitempty"`
	EnableOCR  bool     `json:"enableOCR"`
	Filename   string   `json:"filename,omitempty"`
}

// Detection is one detected symbol instance. Page is 0-indexed in responses.
type Detection struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Page       int     `json:"page"`
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
	OCRText    string  `json:"ocr_text,omitempty"`
}

// DetectResponse is the /detect payload.
type DetectResponse struct {
	Success    bool        `json:"success"`
	Detections []Detection `json:"detections"`
	Count      int         `json:"count"`
}

// DetectSymbols runs the detection models against a PDF on the service host.
func (c *Client) DetectSymbols(ctx context.Context, req DetectRequest) (*DetectResponse, error) {
	if req.PDFPath == "" {
		return nil, fmt.Errorf("pdf path is required")
	}
	if len(req.ModelIDs) == 0 {
		return nil, fmt.Errorf("no models specified")
	}
	var resp DetectResponse
	if err := c.doJSON(ctx, http.MethodPost, "/detect", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OCRResult is one recognized text run with its normalized bounding box.
type OCRResult struct {
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
	BBox        BBox    `json:"bbox"`
	Page        int     `json:"page"`
	Orientation string  `json:"orientation"`
}

// OCRResponse is the /ocr/fullpage payload.
type OCRResponse struct {
	Success bool        `json:"success"`
	Results []OCRResult `json:"results"`
	Page    int         `json:"page"`
	Count   int         `json:"count"`
}

// OCRFullPage extracts all text runs of one PDF page. page is 1-indexed.
func (c *Client) OCRFullPage(ctx context.Context, pdfPath string, page int) (*OCRResponse, error) {
	if pdfPath == "" {
		return nil, fmt.Errorf("pdf path is required")
	}
	body := map[string]any{"pdfPath": pdfPath, "page": page}
	var resp OCRResponse
	if err := c.doJSON(ctx, http.MethodPost, "/ocr/fullpage", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b BBox) geometry() domain.Box {
	return domain.Box{
		Start: vector.Pt{X: b.X, Y: b.Y},
		End:   vector.Pt{X: b.X + b.Width, Y: b.Y + b.Height},
	}
}

// DetectionsToMarkups maps detector hits to external, read-only markups for
// the given document. Ids are kept stable so a re-run reconciles instead of
// duplicating.
func DetectionsToMarkups(dets []Detection, document string) []domain.Markup {
	out := make([]domain.Markup, 0, len(dets))
	for _, d := range dets {
		m := domain.Markup{
			ID:        d.ID,
			Kind:      domain.KindRect,
			PageIndex: d.Page,
			Document:  document,
			CreatedAt: time.Now().UTC(),
			Author:    "detector:" + d.Label,
			External:  true,
			ReadOnly:  true,
			Text:      d.OCRText,
			Geometry:  d.BBox.geometry(),
		}
		if m.ID == "" {
			m.ID = domain.NewID()
		}
		out = append(out, m)
	}
	return out
}

// OCRResultsToMarkups maps full-page OCR hits to external, read-only text
// markups. pageIndex is the engine's 0-indexed page of the scanned page.
func OCRResultsToMarkups(results []OCRResult, document string, pageIndex int) []domain.Markup {
	out := make([]domain.Markup, 0, len(results))
	for _, r := range results {
		m := domain.New(domain.KindText, pageIndex, document)
		m.Author = "ocr"
		m.External = true
		m.ReadOnly = true
		m.Text = r.Text
		m.Geometry = r.BBox.geometry()
		out = append(out, m)
	}
	return out
}
