package transcription

// TranscriptionRequest holds parameters for a transcription call.
type TranscriptionRequest struct {
	// AudioPath is the path to the audio clip to transcribe.
	AudioPath string `json:"audio_path"`
	// Language is the expected language of the audio (e.g. "ru").
	Language string `json:"language,omitempty"`
	// Prompt is an optional hint passed to backends that accept one.
	Prompt string `json:"prompt,omitempty"`
	// Model overrides the backend's configured model.
	Model string `json:"model,omitempty"`
}

// Usage reports token consumption for backends that meter by tokens.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TranscriptionResponse holds the result of a transcription call.
type TranscriptionResponse struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Language is the detected or specified language, if reported.
	Language string `json:"language,omitempty"`
	// Usage is token accounting, for backends that report it.
	Usage *Usage `json:"usage,omitempty"`
}
