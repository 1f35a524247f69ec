package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"solana-miniapp/internal/application/port"
	"solana-miniapp/internal/config"
	domainRepo "solana-miniapp/internal/domain/repository"
	"solana-miniapp/internal/pkg/apperrors"
)

// Compile-time check
var _ port.MetadataService = (*MetadataService)(nil)

// Cached document names
const (
	docPage     = "page"
	docFrame    = "frame"
	docManifest = "manifest"
)

type frameAction struct {
	Type                  string  `json:"type"`
	Name                  string  `json:"name"`
	URL                   string  `json:"url"`
	SplashImageURL        string  `json:"splashImageUrl"`
	SplashBackgroundColor string  `json:"splashBackgroundColor"`
	AspectRatioSchema     float64 `json:"aspectRatioSchema,omitempty"`
}

type frameButton struct {
	Title  string      `json:"title"`
	Action frameAction `json:"action"`
}

type frameEmbed struct {
	Version  string      `json:"version"`
	ImageURL string      `json:"imageUrl"`
	Button   frameButton `json:"button"`
}

type accountAssociation struct {
	Header    string `json:"header"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

type manifestFrame struct {
	Version               string `json:"version"`
	Name                  string `json:"name"`
	HomeURL               string `json:"homeUrl"`
	IconURL               string `json:"iconUrl"`
	ImageURL              string `json:"imageUrl"`
	ButtonTitle           string `json:"buttonTitle"`
	SplashImageURL        string `json:"splashImageUrl"`
	SplashBackgroundColor string `json:"splashBackgroundColor"`
	WebhookURL            string `json:"webhookUrl,omitempty"`
}

type manifest struct {
	AccountAssociation *accountAssociation `json:"accountAssociation,omitempty"`
	Frame              manifestFrame       `json:"frame"`
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:image" content="{{.ImageURL}}">
<meta name="fc:frame" content="{{.Frame}}">
</head>
<body>
<div id="app">Loading...</div>
</body>
</html>
`))

// MetadataService renders the discovery documents and caches them for the
// revalidation interval.
type MetadataService struct {
	cacheRepo domainRepo.CacheRepository
	cfg       config.MetadataConfig
	logger    *zap.Logger
}

// NewMetadataService creates the metadata service.
func NewMetadataService(cacheRepo domainRepo.CacheRepository, cfg config.MetadataConfig, logger *zap.Logger) *MetadataService {
	return &MetadataService{
		cacheRepo: cacheRepo,
		cfg:       cfg,
		logger:    logger.Named("MetadataService"),
	}
}

// Page returns the HTML page carrying the fc:frame embed.
func (s *MetadataService) Page(ctx context.Context) ([]byte, error) {
	return s.cached(ctx, docPage, s.renderPage)
}

// FrameEmbed returns the frame embed as JSON.
func (s *MetadataService) FrameEmbed(ctx context.Context) ([]byte, error) {
	return s.cached(ctx, docFrame, func() ([]byte, error) {
		return json.Marshal(s.frame())
	})
}

// Manifest returns the /.well-known/farcaster.json document.
func (s *MetadataService) Manifest(ctx context.Context) ([]byte, error) {
	return s.cached(ctx, docManifest, func() ([]byte, error) {
		m := manifest{
			Frame: manifestFrame{
				Version:               "1",
				Name:                  s.cfg.AppName,
				HomeURL:               s.cfg.URL(""),
				IconURL:               s.cfg.URL(s.cfg.SplashImagePath),
				ImageURL:              s.cfg.URL(s.cfg.ImagePath),
				ButtonTitle:           s.cfg.ButtonTitle,
				SplashImageURL:        s.cfg.URL(s.cfg.SplashImagePath),
				SplashBackgroundColor: s.cfg.SplashBackgroundColor,
			},
		}
		if s.cfg.AssociationHeader != "" {
			m.AccountAssociation = &accountAssociation{
				Header:    s.cfg.AssociationHeader,
				Payload:   s.cfg.AssociationPayload,
				Signature: s.cfg.AssociationSignature,
			}
		}
		return json.Marshal(m)
	})
}

func (s *MetadataService) frame() frameEmbed {
	return frameEmbed{
		Version:  "next",
		ImageURL: s.cfg.URL(s.cfg.ImagePath),
		Button: frameButton{
			Title: s.cfg.ButtonTitle,
			Action: frameAction{
				Type:                  "launch_frame",
				Name:                  s.cfg.AppName,
				URL:                   s.cfg.URL(""),
				SplashImageURL:        s.cfg.URL(s.cfg.SplashImagePath),
				SplashBackgroundColor: s.cfg.SplashBackgroundColor,
				AspectRatioSchema:     aspectRatio(s.cfg.AspectRatio),
			},
		},
	}
}

// aspectRatio turns "W:H" into W/H. Malformed ratios yield 0, which is omitted.
func aspectRatio(ratio string) float64 {
	w, h, ok := strings.Cut(ratio, ":")
	if !ok {
		return 0
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil {
		return 0
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil || height <= 0 || width <= 0 {
		return 0
	}
	return width / height
}

func (s *MetadataService) renderPage() ([]byte, error) {
	frame, err := json.Marshal(s.frame())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, struct {
		Title       string
		Description string
		ImageURL    string
		Frame       string
	}{
		Title:       s.cfg.Title,
		Description: s.cfg.Description,
		ImageURL:    s.cfg.URL(s.cfg.ImagePath),
		Frame:       string(frame),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *MetadataService) cached(ctx context.Context, name string, render func() ([]byte, error)) ([]byte, error) {
	body, found, err := s.cacheRepo.GetDocument(ctx, name)
	if err != nil {
		s.logger.Warn("Cache error when getting document", zap.String("document", name), zap.Error(err))
	}
	if found {
		return body, nil
	}

	body, err = render()
	if err != nil {
		return nil, fmt.Errorf("%w: render %s: %v", apperrors.ErrInternal, name, err)
	}
	if err := s.cacheRepo.SetDocument(ctx, name, body, s.cfg.GetRevalidate()); err != nil {
		s.logger.Warn("Failed to cache document", zap.String("document", name), zap.Error(err))
	}
	s.logger.Debug("Rendered metadata document", zap.String("document", name), zap.Int("bytes", len(body)))
	return body, nil
}
