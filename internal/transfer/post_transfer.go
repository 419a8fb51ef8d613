package transfer

import "github.com/golang-jwt/jwt/v5"

type PostCreation struct {
	Caption  string `json:"caption"`
	Platform string `json:"platform"`
}

type CaptionUpdate struct {
	PostID  string `json:"post_id"`
	Caption string `json:"caption"`
}

// ReorderRequest carries post ids in display order, first id on top.
// The top post receives the highest position and is picked first by the
// scheduler.
type ReorderRequest struct {
	PostIDs []string `json:"post_ids"`
}

type CaptionPrompt struct {
	Prompt string `json:"prompt"`
}

type PinDraft struct {
	PostID      string `json:"post_id"`
	ImageURL    string `json:"image_url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
}

type CustomClaims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}
