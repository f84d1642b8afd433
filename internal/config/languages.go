package config

// Language pairs a display label with the codes the recognition and synthesis
// services expect. Recognition uses BCP-47 tags, synthesis uses bare ISO 639-1.
type Language struct {
	Label string `json:"label"`
	STT   string `json:"stt"`
	TTS   string `json:"tts"`
}

// Languages is the fixed table the preference indexes point into.
var Languages = []Language{
	{"Ukrainian", "uk-UA", "uk"},
	{"English (US)", "en-US", "en"},
	{"Polski", "pl-PL", "pl"},
	{"Deutsch", "de-DE", "de"},
	{"Français", "fr-FR", "fr"},
	{"Español", "es-ES", "es"},
	{"Italiano", "it-IT", "it"},
	{"Português", "pt-PT", "pt"},
	{"Türkçe", "tr-TR", "tr"},
	{"Japanese", "ja-JP", "ja"},
}

// SpeedFactors are the selectable playback speed multipliers; index 1 (x1)
// is the default.
var SpeedFactors = []float64{0.5, 1, 1.5, 2, 2.5}

// STTLanguage resolves a language index to its recognition code.
func (p Prefs) STTLanguage() Language { return Languages[p.STTLangIndex] }

// TTSLanguage resolves a language index to its synthesis code.
func (p Prefs) TTSLanguage() Language { return Languages[p.TTSLangIndex] }

// SpeedFactor resolves the selected speed multiplier.
func (p Prefs) SpeedFactor() float64 { return SpeedFactors[p.SpeedIndex] }
