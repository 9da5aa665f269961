// ABOUTME: Prompts for the chapter, summary and guest-name oracles
// ABOUTME: Shared by the OpenAI and Ollama clients
package llm

import (
	"strings"

	"github.com/harper/podcast-index/internal/models"
)

const chapterSystemPrompt = `You split podcast transcripts into chapters.
Identify between 3 and 8 chapters in the transcript you are given.
For each chapter return:
1. title: a short chapter title
2. theme: one sentence describing what the chapter covers
3. first_sentence: the exact first sentence of the chapter, copied verbatim from the transcript

Return ONLY a JSON object of the form {"chapters": [{"title": "...", "theme": "...", "first_sentence": "..."}]}. No additional text.`

const summarySystemPrompt = `You summarize podcast episodes.
Write a concise summary (3 to 5 sentences) of the transcript you are given, naming the main topics discussed.
Return only the summary text.`

const guestSystemPrompt = `You identify the guest of a podcast interview.
Read the opening of the transcript and return ONLY a JSON object {"guest_name": "..."} with the guest's full name.
If no guest can be identified, return {"guest_name": ""}.`

// chapterEnvelope is the expected chapter oracle answer
type chapterEnvelope struct {
	Chapters []models.ChapterCandidate `json:"chapters"`
}

type guestEnvelope struct {
	GuestName string `json:"guest_name"`
}

// parseChapters accepts either {"chapters": [...]} or a bare array
func parseChapters(answer string) ([]models.ChapterCandidate, error) {
	trimmed := strings.TrimSpace(stripFences(answer))
	if strings.HasPrefix(trimmed, "[") {
		return DecodeJSON[[]models.ChapterCandidate](trimmed)
	}
	env, err := DecodeJSON[chapterEnvelope](trimmed)
	if err != nil {
		return nil, err
	}
	return env.Chapters, nil
}

// parseGuest accepts {"guest_name": "..."} or a bare name
func parseGuest(answer string) (string, error) {
	trimmed := strings.TrimSpace(stripFences(answer))
	if strings.HasPrefix(trimmed, "{") {
		env, err := DecodeJSON[guestEnvelope](trimmed)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(env.GuestName), nil
	}
	return strings.Trim(trimmed, `"' `), nil
}
