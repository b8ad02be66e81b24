package model

import "time"

// ContentRecord is one generated explainer. Title is unique across all records.
type ContentRecord struct {
	ID         int64
	Title      string
	Category   Category
	Difficulty Difficulty
	Summary    string
	Content    string
	Tags       []string

	DocumentPageID *string
	DocumentURL    *string
	ChatMessageID  *string

	Author    string
	Status    ContentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GeneratedContent is what a Generator returns before anything is persisted.
type GeneratedContent struct {
	Title      string
	Summary    string
	Tags       []string
	Category   Category
	Difficulty Difficulty
	Topic      string
}

// NewDraft builds an unsaved draft record from generator output.
func NewDraft(g *GeneratedContent, author string) *ContentRecord {
	now := time.Now()
	tags := make([]string, len(g.Tags))
	copy(tags, g.Tags)
	return &ContentRecord{
		Title:      g.Title,
		Category:   g.Category,
		Difficulty: g.Difficulty,
		Summary:    g.Summary,
		Content:    g.Summary,
		Tags:       tags,
		Author:     author,
		Status:     ContentStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AttachDocument records the page returned by the document publisher.
func (c *ContentRecord) AttachDocument(pageID, url string) {
	c.DocumentPageID = &pageID
	c.DocumentURL = &url
}

// AttachChatMessage records the handle returned by the chat publisher.
func (c *ContentRecord) AttachChatMessage(handle string) {
	c.ChatMessageID = &handle
}

// Reconcile promotes the record to published when at least one publisher succeeded.
func (c *ContentRecord) Reconcile(chatOK, documentOK bool) {
	if chatOK || documentOK {
		c.Status = ContentStatusPublished
		return
	}
	c.Status = ContentStatusDraft
}
