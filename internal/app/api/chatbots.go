package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"botclient/internal/pkg/errs"
)

// Chatbot is one entry of the chatbot directory.
type Chatbot struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ChatbotDetail is a single chatbot with its conversation tree.
type ChatbotDetail struct {
	Chatbot
	Visibility string `json:"visibility"`
	CreatorID  ID     `json:"creator_id"`

	// Tree is passed through undecoded; its shape belongs to the chatbot's author.
	Tree json.RawMessage `json:"-"`
}

// ListChatbots fetches the chatbot directory, filtered by search when non-empty.
func (c *Client) ListChatbots(ctx context.Context, search string) ([]Chatbot, error) {
	var query url.Values
	if search = strings.TrimSpace(search); search != "" {
		query = url.Values{"search": {search}}
	}

	body, err := c.Request(ctx, c.contract.ChatbotsPath, Options{Query: query})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Chatbots []Chatbot `json:"chatbots"`
	}
	if err := body.Decode(&envelope); err != nil {
		return nil, err
	}

	return envelope.Chatbots, nil
}

// GetChatbot fetches one chatbot and its tree by id.
func (c *Client) GetChatbot(ctx context.Context, id string) (*ChatbotDetail, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, errs.NewError(errs.ErrRequestFailed).WithMessage("A chatbot id is required.")
	}

	body, err := c.Request(ctx, c.contract.ChatbotsPath+"/"+url.PathEscape(id), Options{})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Chatbot *ChatbotDetail  `json:"chatbot"`
		Tree    json.RawMessage `json:"tree"`
	}
	if err := body.Decode(&envelope); err != nil {
		return nil, err
	}
	if envelope.Chatbot == nil || envelope.Chatbot.ID == "" {
		return nil, errs.NewError(errs.ErrInvalidResponse)
	}

	envelope.Chatbot.Tree = envelope.Tree
	return envelope.Chatbot, nil
}
