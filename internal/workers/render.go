package workers

import (
	"context"
	"encoding/json"
	"time"

	"mediaflow/internal/bus"
	"mediaflow/internal/fileutil"
	"mediaflow/internal/markup"
	"mediaflow/internal/media"
	"mediaflow/internal/services"
)

// ManifestSuffix names the manifest written beside copied non-overlay media.
const ManifestSuffix = ".markup.json"

// Manifest describes one rendered medium.
type Manifest struct {
	Source     string            `json:"source"`
	MediaType  media.Kind        `json:"media_type"`
	MIMEType   string            `json:"mime_type"`
	Encoder    string            `json:"encoder,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Boxes      markup.Snapshot   `json:"boxes"`
	RenderedAt time.Time         `json:"rendered_at"`
}

// ManifestRenderer answers markup requests by writing manifests.
type ManifestRenderer struct {
	now func() time.Time
}

// NewManifestRenderer returns a renderer stamping manifests with the wall clock.
func NewManifestRenderer() *ManifestRenderer {
	return &ManifestRenderer{now: time.Now}
}

// Render writes the manifest to the destination for video and image media.
// Other media are copied to the destination unchanged and the manifest is
// written beside the copy. It returns the path of the marked-up medium.
func (r *ManifestRenderer) Render(ctx context.Context, req bus.MarkupRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	manifest := Manifest{
		Source:     req.MediaPath,
		MediaType:  req.MediaType,
		MIMEType:   req.MIMEType,
		Properties: req.Properties,
		Boxes:      req.Boxes,
		RenderedAt: r.now().UTC(),
	}
	manifestPath := req.Destination
	if req.MediaType.Overlay() {
		manifest.Encoder = req.Encoder
	} else {
		if err := fileutil.CopyFileVerified(req.MediaPath, req.Destination); err != nil {
			return "", services.Wrap(services.ErrTransient, "renderer", "copy media", req.MediaPath, err)
		}
		manifestPath = req.Destination + ManifestSuffix
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "renderer", "encode manifest", "", err)
	}
	if err := fileutil.WriteFileAtomic(manifestPath, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "renderer", "write manifest", manifestPath, err)
	}
	return req.Destination, nil
}
