package parser

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/store"
	"forex-trading-agent/internal/types"
)

// DetectionOptions are the tunable parameters forwarded to the vision
// service with every parse request.
type DetectionOptions struct {
	BoxThreshold    float64 `json:"box_threshold"`
	IOUThreshold    float64 `json:"iou_threshold"`
	NormalizeCoords bool    `json:"normalize_coords"`
}

// OmniParser is the client for the external vision/labelling service. It is
// rate limited so a short polling interval cannot overwhelm the service.
type OmniParser struct {
	client  *resty.Client
	limiter *rate.Limiter
	opts    DetectionOptions
}

func NewOmniParser(cfg *store.Config) *OmniParser {
	client := resty.New().
		SetBaseURL(cfg.Parser.URL).
		SetTimeout(time.Duration(cfg.CallTimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json")

	rpm := cfg.Parser.RequestsPerMinute
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)

	return &OmniParser{
		client:  client,
		limiter: limiter,
		opts: DetectionOptions{
			BoxThreshold:    cfg.Parser.ConfidenceThreshold,
			IOUThreshold:    cfg.Parser.OverlapThreshold,
			NormalizeCoords: cfg.Parser.NormalizeCoords,
		},
	}
}

type parseRequest struct {
	Image string `json:"image"`
	DetectionOptions
}

type parsedContent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type parseResponse struct {
	ParsedContentList []parsedContent      `json:"parsed_content_list"`
	LabelCoordinates  map[string][]float64 `json:"label_coordinates"`
	AnnotatedImage    string               `json:"som_image_base64"`
}

// Parse sends the screenshot to the vision service and converts its labelled
// output into ParsedElements. Bounding boxes are matched to elements by index.
func (p *OmniParser) Parse(ctx context.Context, img types.Image) ([]types.ParsedElement, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var out parseResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(parseRequest{Image: img.Base64, DetectionOptions: p.opts}).
		SetResult(&out).
		Post("/parse/")
	if err != nil {
		return nil, fmt.Errorf("omniparser request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("omniparser http %d: %s", resp.StatusCode(), resp.String())
	}

	elements := make([]types.ParsedElement, 0, len(out.ParsedContentList))
	for i, pc := range out.ParsedContentList {
		el := types.ParsedElement{Text: pc.Content, Kind: elementKind(pc.Type)}
		if box, ok := out.LabelCoordinates[strconv.Itoa(i)]; ok && len(box) == 4 {
			el.BoundingBox = &types.Rect{X: box[0], Y: box[1], W: box[2], H: box[3]}
		}
		elements = append(elements, el)
	}

	logger.Debug(ctx, "Screenshot parsed", "elements", len(elements), "annotated", out.AnnotatedImage != "")
	return elements, nil
}

func elementKind(t string) types.ElementKind {
	if t == "icon" {
		return types.ElementIcon
	}
	return types.ElementText
}
