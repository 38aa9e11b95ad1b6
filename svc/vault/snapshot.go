package vault

import "time"

// Snapshot is the client-facing view of a record. It exposes presence flags
// for secrets; plaintext appears only in Revealed when requested.
type Snapshot struct {
	TenantID string `json:"tenant_id"`

	OpenAIModel            string `json:"openai_model"`
	GithubUsername         string `json:"github_username"`
	GithubRepo             string `json:"github_repo"`
	AIEnabled              bool   `json:"ai_enabled"`
	ContentEditingEnabled  bool   `json:"content_editing_enabled"`
	ImageGenerationEnabled bool   `json:"image_generation_enabled"`

	HasOpenAIAPIKey      bool `json:"has_openai_api_key"`
	HasOpenAIAssistantID bool `json:"has_openai_assistant_id"`
	HasCloudinaryConfig  bool `json:"has_cloudinary_config"`
	HasGithubToken       bool `json:"has_github_token"`
	HasTursoConfig       bool `json:"has_turso_config"`

	LastTestedAt *time.Time `json:"last_tested_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`

	Revealed map[Field]string `json:"-"`
}

func snapshotOf(rec *Record, defaultModel string) *Snapshot {
	cloudinary := rec.has(FieldCloudinaryCloudName) && rec.has(FieldCloudinaryAPIKey) && rec.has(FieldCloudinaryAPISecret)
	turso := rec.has(FieldTursoDatabaseURL) && rec.has(FieldTursoAuthToken)

	s := &Snapshot{
		TenantID:               rec.TenantID,
		OpenAIModel:            rec.Values[FieldOpenAIModel],
		GithubUsername:         rec.Values[FieldGithubUsername],
		GithubRepo:             rec.Values[FieldGithubRepo],
		AIEnabled:              rec.Flags[FieldAIEnabled],
		ContentEditingEnabled:  rec.Flags[FieldContentEditingEnabled],
		ImageGenerationEnabled: rec.Flags[FieldImageGenerationEnabled],
		HasOpenAIAPIKey:        rec.has(FieldOpenAIAPIKey),
		HasOpenAIAssistantID:   rec.has(FieldOpenAIAssistantID),
		HasCloudinaryConfig:    cloudinary,
		HasGithubToken:         rec.has(FieldGithubToken),
		HasTursoConfig:         turso,
		LastTestedAt:           rec.LastTestedAt,
	}
	if s.OpenAIModel == "" {
		s.OpenAIModel = defaultModel
	}
	if !rec.UpdatedAt.IsZero() {
		t := rec.UpdatedAt
		s.UpdatedAt = &t
	}
	return s
}
