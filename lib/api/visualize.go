package api

import (
	"context"

	"github.com/idefi-ai/agents/lib/util"
)

// Dataset source types.
const (
	SourceLocal    = "local"
	SourceAddress  = "address"
	SourceFirebase = "firebase"
)

// MsgVisualizeFailed is shown when the visualisation service cannot be reached.
const MsgVisualizeFailed = "Failed to visualize dataset. Please try again."

// VisualizeRequest selects the dataset to visualise. Only the field matching SourceType is sent, the other is null.
type VisualizeRequest struct {
	SourceType string  `json:"sourceType"`
	Address    *string `json:"address"`
	Filename   *string `json:"filename"`
	MaxNodes   *int    `json:"maxNodes"`
}

// NewVisualizeRequest builds a request keeping only the field relevant to sourceType. A maxNodes of zero or less is
// sent as null.
func NewVisualizeRequest(sourceType, address, filename string, maxNodes int) VisualizeRequest {
	r := VisualizeRequest{SourceType: sourceType}

	switch sourceType {
	case SourceAddress:
		r.Address = &address
	case SourceLocal, SourceFirebase:
		r.Filename = &filename
	}

	if maxNodes > 0 {
		r.MaxNodes = &maxNodes
	}

	return r
}

// Visualizer talks to the dataset visualisation endpoints.
type Visualizer struct {
	c *Client
}

// NewVisualizer returns a Visualizer.
func NewVisualizer(c *Client) *Visualizer {
	return &Visualizer{c: c}
}

// ListFiles returns the local JSON datasets known to the backend.
func (v *Visualizer) ListFiles(ctx context.Context) ([]string, error) {
	var reply struct {
		Files []string `json:"files"`
	}

	if err := v.c.Get(ctx, "/list_json_files", &reply); err != nil {
		return nil, err
	}

	if reply.Files == nil {
		reply.Files = []string{}
	}

	return reply.Files, nil
}

// Visualize returns the URL of the rendered visualisation.
func (v *Visualizer) Visualize(ctx context.Context, r VisualizeRequest) (string, error) {
	switch r.SourceType {
	case SourceAddress:
		if r.Address == nil || !util.IsAddress(*r.Address) {
			return "", Validation("a valid ethereum address is required")
		}
	case SourceLocal, SourceFirebase:
		if r.Filename == nil || *r.Filename == "" {
			return "", Validation("a filename is required")
		}
	default:
		return "", Validation("unknown source type " + r.SourceType)
	}

	var reply struct {
		URL string `json:"visualization_url"`
	}

	if err := v.c.Post(ctx, "/visualize_dataset", r, &reply); err != nil {
		return "", err
	}

	if reply.URL == "" {
		return "", &ApplicationError{Op: "/visualize_dataset", Message: "no visualization url in reply"}
	}

	return reply.URL, nil
}
