package vault

import (
	"strings"

	"github.com/qiqiqi-tech/backoffice/pkg/validator"
)

type Field string

const (
	FieldOpenAIAPIKey      Field = "openai_api_key"
	FieldOpenAIAssistantID Field = "openai_assistant_id"
	FieldOpenAIModel       Field = "openai_model"

	FieldCloudinaryCloudName Field = "cloudinary_cloud_name"
	FieldCloudinaryAPIKey    Field = "cloudinary_api_key"
	FieldCloudinaryAPISecret Field = "cloudinary_api_secret"

	FieldGithubToken    Field = "github_token"
	FieldGithubUsername Field = "github_username"
	FieldGithubRepo     Field = "github_repo"

	FieldTursoDatabaseURL Field = "turso_database_url"
	FieldTursoAuthToken   Field = "turso_auth_token"

	FieldAIEnabled              Field = "ai_enabled"
	FieldContentEditingEnabled  Field = "content_editing_enabled"
	FieldImageGenerationEnabled Field = "image_generation_enabled"
)

type fieldKind int

const (
	kindSecret fieldKind = iota
	kindPlain
	kindFlag
)

type fieldSpec struct {
	kind  fieldKind
	rules func(field, v string) []validator.Rule
}

var fields = map[Field]fieldSpec{
	FieldOpenAIAPIKey: {kindSecret, func(f, v string) []validator.Rule {
		return []validator.Rule{
			validator.HasPrefix(f, v, "sk-"),
			validator.MinLenString(f, v, 20),
			validator.NoWhitespace(f, v),
		}
	}},
	FieldOpenAIAssistantID: {kindSecret, func(f, v string) []validator.Rule {
		return []validator.Rule{validator.HasPrefix(f, v, "asst_"), validator.NoWhitespace(f, v)}
	}},
	FieldOpenAIModel: {kindPlain, func(f, v string) []validator.Rule {
		return []validator.Rule{validator.MaxLenString(f, v, 50), validator.NoWhitespace(f, v)}
	}},

	FieldCloudinaryCloudName: {kindSecret, func(f, v string) []validator.Rule {
		return []validator.Rule{validator.MaxLenString(f, v, 100), validator.NoWhitespace(f, v)}
	}},
	FieldCloudinaryAPIKey: {kindSecret, func(f, v string) []validator.Rule {
		return []validator.Rule{validator.ValidAPIKey(f, v, 6, 128)}
	}},
	FieldCloudinaryAPISecret: {kindSecret, func(f, v string) []validator.Rule {
		return []validator.Rule{validator.ValidAPIKey(f, v, 8, 128)}
	}},

	FieldGithubToken: {kindSecret, func(f, v string) []validator.Rule {
		return []validator.Rule{validator.ValidAPIKey(f, v, 20, 255)}
	}},
	FieldGithubUsername: {kindPlain, func(f, v string) []validator.Rule {
		return []validator.Rule{validator.ValidUsername(f, v, 1, 39)}
	}},
	FieldGithubRepo: {kindPlain, func(f, v string) []validator.Rule {
		return []validator.Rule{validator.ValidRepository(f, v)}
	}},

	FieldTursoDatabaseURL: {kindSecret, func(f, v string) []validator.Rule {
		return []validator.Rule{validator.ValidURLWithScheme(f, v, []string{"libsql", "https"})}
	}},
	FieldTursoAuthToken: {kindSecret, func(f, v string) []validator.Rule {
		return []validator.Rule{validator.ValidAPIKey(f, v, 16, 4096)}
	}},

	FieldAIEnabled:              {kindFlag, flagRules},
	FieldContentEditingEnabled:  {kindFlag, flagRules},
	FieldImageGenerationEnabled: {kindFlag, flagRules},
}

func flagRules(f, v string) []validator.Rule {
	return []validator.Rule{validator.OneOf(f, v, []string{"true", "false"})}
}

// Fields lists every known field.
func Fields() []Field {
	out := make([]Field, 0, len(fields))
	for f := range fields {
		out = append(out, f)
	}
	return out
}

func (f Field) Valid() bool {
	_, ok := fields[f]
	return ok
}

// Sensitive reports whether the field is encrypted at rest.
func (f Field) Sensitive() bool {
	spec, ok := fields[f]
	return ok && spec.kind == kindSecret
}

// validate runs the field's rules and stops at the first failure.
func (f Field) validate(v string) error {
	spec, ok := fields[f]
	if !ok {
		return validator.ValidationErrors{{Field: string(f), Message: "unknown field", TranslationKey: "validation.unknown_field"}}
	}
	return validator.FirstFailure(spec.rules(string(f), strings.TrimSpace(v))...)
}
