package tts

import "maps"

// OptionType is the value type of a settings option.
type OptionType string

// Option value types.
const (
	OptionString OptionType = "string"
	OptionEnum   OptionType = "enum"
	OptionBool   OptionType = "bool"
)

// SettingOption describes one recognised option for the host's settings UI.
// Labels maps a choice to its display label when it differs from the choice.
type SettingOption struct {
	Key     string            `json:"key"`
	Label   string            `json:"label"`
	Type    OptionType        `json:"type"`
	Default any               `json:"default"`
	Choices []string          `json:"choices,omitempty"`
	Labels  map[string]string `json:"labels,omitempty"`
}

// Language is one selectable language setting.
type Language struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Code  string `json:"code,omitempty"`
}

var languageLabels = map[string]string{
	DefaultLanguage: "Auto",
	"zh":            "Chinese",
	"en":            "English",
	"ja":            "Japanese",
	"ko":            "Korean",
}

var languageCodes = map[string]string{
	"zh": "zh-CN",
	"en": "en-US",
	"ja": "ja-JP",
	"ko": "ko-KR",
}

// LanguageKeys lists the language keys in display order, "auto" first.
func LanguageKeys() []string {
	return []string{DefaultLanguage, "zh", "en", "ja", "ko"}
}

// LanguageCode returns the locale code for a language key. The second result
// is false for "auto" and unknown keys.
func LanguageCode(key string) (string, bool) {
	code, ok := languageCodes[key]
	return code, ok
}

// Languages returns every language setting with its label and locale code.
func Languages() []Language {
	keys := LanguageKeys()
	out := make([]Language, len(keys))
	for i, key := range keys {
		code, _ := LanguageCode(key)
		out[i] = Language{Key: key, Label: languageLabels[key], Code: code}
	}
	return out
}

// SettingsSchema enumerates the options the host should render.
func SettingsSchema() []SettingOption {
	formats := SupportedFormats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}

	defaults := DefaultSettings()
	return []SettingOption{
		{Key: SettingEndpoint, Label: "Provider endpoint", Type: OptionString, Default: defaults.Endpoint},
		{Key: SettingFormat, Label: "Audio format", Type: OptionEnum, Default: defaults.Format, Choices: names},
		{
			Key: SettingLanguage, Label: "Language", Type: OptionEnum, Default: defaults.Language,
			Choices: LanguageKeys(), Labels: maps.Clone(languageLabels),
		},
		{Key: SettingStreaming, Label: "Streaming", Type: OptionBool, Default: defaults.Streaming},
	}
}
