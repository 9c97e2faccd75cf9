package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_jobmato/internal/engine/jobs"
)

// Message types understood by the chat front end.
const (
	TypeJobCard           = "job_card"
	TypePlainText         = "plain_text"
	TypeCareerAdvice      = "career_advice"
	TypeResumeAnalysis    = "resume_analysis"
	TypeProjectSuggestion = "project_suggestion"
	TypeProfileInfo       = "profile_info"
	TypeUploadRequired    = "resume_upload_required"
)

const roleAssistant = "assistant"

// ChatMessage is one assistant reply.
type ChatMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp string         `json:"timestamp"`
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	Metadata  map[string]any `json:"metadata"`
}

// JobMeta describes the search that produced a page of jobs.
type JobMeta struct {
	TotalAvailable int
	CurrentPage    int
	HasMore        bool
	SearchQuery    string
	Params         jobs.SearchParams
	Context        *SearchContext
	Broadened      bool
	PrimaryCount   int
	BroadenedCount int
	LoadMore       bool
}

// Formatter stamps replies with an id and time.
type Formatter struct {
	now   func() time.Time
	newID func() string
}

func NewFormatter() Formatter {
	return Formatter{now: time.Now, newID: uuid.NewString}
}

// Message builds a reply of type typ. A nil meta becomes an empty map.
func (f Formatter) Message(typ, content string, meta map[string]any) ChatMessage {
	if meta == nil {
		meta = map[string]any{}
	}
	now, newID := f.now, f.newID
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return ChatMessage{
		Role:      roleAssistant,
		Content:   content,
		Timestamp: now().UTC().Format(time.RFC3339),
		Type:      typ,
		ID:        newID(),
		Metadata:  meta,
	}
}

// PlainText builds a plain_text reply.
func (f Formatter) PlainText(content string, meta map[string]any) ChatMessage {
	return f.Message(TypePlainText, content, meta)
}

// Failure builds a plain_text reply carrying an error code in metadata.
func (f Formatter) Failure(content, code string, meta map[string]any) ChatMessage {
	if meta == nil {
		meta = map[string]any{}
	}
	meta["error"] = code
	return f.Message(TypePlainText, content, meta)
}

// JobResults renders a page of jobs. The job list is always a non-nil slice.
func (f Formatter) JobResults(records []jobs.JobRecord, m JobMeta) ChatMessage {
	if records == nil {
		records = []jobs.JobRecord{}
	}
	meta := map[string]any{
		"jobs":         records,
		"totalJobs":    max(m.TotalAvailable, len(records)),
		"hasMore":      m.HasMore,
		"currentPage":  m.CurrentPage,
		"searchQuery":  m.SearchQuery,
		"searchParams": m.Params,
		"broadened":    m.Broadened,
	}
	if m.Context != nil {
		meta["searchContext"] = m.Context
	}
	if m.Broadened {
		meta["primaryCount"] = m.PrimaryCount
		meta["broadenedCount"] = m.BroadenedCount
	}
	return f.Message(TypeJobCard, jobsHeadline(len(records), m), meta)
}

func jobsHeadline(n int, m JobMeta) string {
	switch {
	case n == 0 && m.LoadMore:
		return "There are no more jobs for this search. Try a new search to see other opportunities."
	case m.LoadMore:
		return fmt.Sprintf("Here are %d more job opportunities (page %d):", n, m.CurrentPage)
	case m.Broadened && m.PrimaryCount == 0:
		return fmt.Sprintf("I couldn't find exact matches, so here are %d related opportunities from a broader search:", n)
	case m.Broadened && m.BroadenedCount > 0:
		return fmt.Sprintf("Found %d job opportunities matching your search, including %d similar roles from a broader search:", n, m.BroadenedCount)
	}
	return fmt.Sprintf("Found %d job opportunities matching your search:", n)
}
