package transfer

// PublishOutcome is what the orchestrator hands back to every caller.
// Success tracks the upload phase: a post whose images are safely hosted
// counts as a success even when the publish phase failed, with the
// publish-side failure surfaced separately in Warning.
type PublishOutcome struct {
	Success         bool           `json:"success"`
	Assets          []UploadResult `json:"assets,omitempty"`
	ContainerID     string         `json:"container_id,omitempty"`
	InstagramPostID string         `json:"instagram_post_id,omitempty"`
	Warning         string         `json:"warning,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// Published reports whether the publish phase itself completed.
func (o *PublishOutcome) Published() bool {
	return o.InstagramPostID != ""
}
