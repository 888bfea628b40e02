package types

type ChatRequest struct {
	Message        string  `json:"message"`
	Model          string  `json:"model,omitempty"`
	ProjectId      string  `json:"projectId,omitempty"`
	SessionId      string  `json:"sessionId,omitempty"`
	Context        string  `json:"context,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
	MaxTokens      int     `json:"maxTokens,omitempty"`
	// IncludeContext opts out of conversation history when explicitly
	// false; absent means history is selected.
	IncludeContext *bool `json:"includeContext,omitempty"`
	Stream         bool    `json:"stream,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
	Metadata any    `json:"metadata"`
}

type VoiceRequest struct {
	AudioData     string `json:"audioData"`
	Model         string `json:"model,omitempty"`
	Language      string `json:"language,omitempty"`
	ProjectId     string `json:"projectId,omitempty"`
	SessionId     string `json:"sessionId,omitempty"`
	Context       string `json:"context,omitempty"`
	ResponseVoice string `json:"responseVoice,omitempty"`
}

type VoiceResponse struct {
	Transcription string `json:"transcription"`
	Response      string `json:"response"`
	Audio         string `json:"audio,omitempty"`
	Metadata      any    `json:"metadata"`
}

type UsageRequest struct {
	Period string `form:"period"` // current, week, month, year
}

type UsagePeriod struct {
	Period       string  `json:"period"`
	TotalCost    float64 `json:"totalCost"`
	RequestCount int     `json:"requestCount"`
}

type UsageResponse struct {
	DailyUsage   float64       `json:"dailyUsage"`
	DailyLimit   float64       `json:"dailyLimit"`
	MonthlyUsage float64       `json:"monthlyUsage"`
	MonthlyLimit float64       `json:"monthlyLimit"`
	PerRequest   float64       `json:"perRequestLimit"`
	History      []UsagePeriod `json:"history"`
}

type SummaryRequest struct {
	Context string `path:"context"`
}

type AnalyzeRequest struct {
	Context string `json:"context,omitempty"`
	Focus   string `json:"focus,omitempty"`
	Model   string `json:"model,omitempty"`
}

type AnalyzeResponse struct {
	Analysis string `json:"analysis"`
	Metadata any    `json:"metadata"`
}

type LimitsRequest struct {
	PerRequest float64 `json:"perRequest,omitempty"`
	Daily      float64 `json:"daily,omitempty"`
	Monthly    float64 `json:"monthly,omitempty"`
}

type LimitsResponse struct {
	PerRequest float64 `json:"perRequest"`
	Daily      float64 `json:"daily"`
	Monthly    float64 `json:"monthly"`
}

type SessionMessagesRequest struct {
	Id    string `path:"id"`
	Limit int    `form:"limit"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
