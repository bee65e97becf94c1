package scriptagent

import (
	"encoding/json"
	"fmt"
)

// Phase tags the LLM stamps on its structured payloads.
const (
	PayloadPhaseAnalysis     = "analysis"
	PayloadPhaseConfirmation = "confirmation"
	PayloadPhaseScript       = "script"
)

// Scene-outline bounds for the confirmation phase.
const (
	OutlineMinScenes = 8
	OutlineMaxScenes = 14
)

// ParsedInput is the model's reading of the user's event description.
type ParsedInput struct {
	EventOrStory         string   `json:"event_or_story"`
	CharactersIdentified []string `json:"characters_identified"`
	PublisherGuess       string   `json:"publisher_guess"`
	SeriesGuess          string   `json:"series_guess"`
	EraGuess             string      `json:"era_guess"`
	Confidence           interface{} `json:"confidence"` // models emit numbers or labels like "high"
}

// Analysis is the analysis-phase payload.
type Analysis struct {
	Phase            string                   `json:"phase"`
	ParsedInput      ParsedInput              `json:"parsed_input"`
	PotentialMatches []map[string]interface{} `json:"potential_matches"`
	QuestionsForUser []string                 `json:"questions_for_user"`

	// CatalogueURL is resolved during the forced-search turn.
	CatalogueURL string `json:"catalogue_url,omitempty"`
}

// HasQuestions returns true when the analysis leaves questions outstanding.
func (a *Analysis) HasQuestions() bool {
	return len(a.QuestionsForUser) > 0
}

// SceneBeat is one entry of the confirmation outline.
type SceneBeat struct {
	SceneID          int     `json:"scene_id"`
	Beat             string  `json:"beat"`
	EstimatedSeconds float64 `json:"estimated_seconds"`
}

// Confirmation is the confirmation-phase payload: the outline surfaced to the
// caller before the full script is generated.
type Confirmation struct {
	Phase                    string                 `json:"phase"`
	ConfirmedSource          map[string]interface{} `json:"confirmed_source"`
	SceneOutline             []SceneBeat            `json:"scene_outline"`
	TotalScenes              int                    `json:"total_scenes"`
	EstimatedDurationSeconds float64                `json:"estimated_duration_seconds"`
	Tone                     string                 `json:"tone"`
	MessageToUser            string                 `json:"message_to_user"`
}

// OutlineInRange reports whether the outline respects the 8-14 beat bounds.
// Out-of-range outlines are surfaced with a warning rather than rejected; the
// caller can always answer with an adjustment.
func (c *Confirmation) OutlineInRange() bool {
	n := len(c.SceneOutline)
	return n >= OutlineMinScenes && n <= OutlineMaxScenes
}

// ComicSource identifies the source material of the script.
type ComicSource struct {
	Publisher    string      `json:"publisher"`
	Series       string      `json:"series"`
	Issues       string      `json:"issues"`
	Year         interface{} `json:"year"` // number or quoted range like "2009-2010"
	Writer       string      `json:"writer"`
	Artist       string      `json:"artist"`
	CatalogueURL string      `json:"catalogue_url"`
}

// Scene is one narrated scene of the script.
type Scene struct {
	SceneID           int         `json:"scene_id"`
	Narration         string      `json:"narration"`
	SourceIssue       string      `json:"source_issue"`
	SourcePage        interface{} `json:"source_page"` // integer or array of integers
	ImageSearchQueries []string   `json:"image_search_queries"`
	VisualDescription string      `json:"visual_description"`
	Mood              string      `json:"mood"`
	Effect            string      `json:"effect"`
}

// Script is the script-phase payload: the full structured document.
type Script struct {
	Phase                         string      `json:"phase,omitempty"`
	Title                         string      `json:"title"`
	ComicSource                   ComicSource `json:"comic_source"`
	Scenes                        []Scene     `json:"scenes"`
	TotalEstimatedDurationSeconds float64     `json:"total_estimated_duration_seconds"`
}

// Validate checks the script has enough substance to hand downstream.
func (s *Script) Validate() error {
	if len(s.Scenes) == 0 {
		return fmt.Errorf("script has no scenes")
	}
	for i, scene := range s.Scenes {
		if scene.Narration == "" {
			return fmt.Errorf("scene %d has no narration", i+1)
		}
	}
	return nil
}

// MissingSourceFields lists the mandatory source-reference fields the model
// omitted, the recurring failure mode the script instruction warns against.
func (s *Script) MissingSourceFields() []string {
	var missing []string
	if s.ComicSource.CatalogueURL == "" {
		missing = append(missing, "comic_source.catalogue_url")
	}
	for _, scene := range s.Scenes {
		if scene.SourceIssue == "" {
			missing = append(missing, fmt.Sprintf("scenes[%d].source_issue", scene.SceneID))
		}
	}
	return missing
}

// ParseAnalysis decodes an analysis payload.
func ParseAnalysis(payload string) (*Analysis, error) {
	var a Analysis
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, fmt.Errorf("decode analysis payload: %w", err)
	}
	return &a, nil
}

// ParseConfirmation decodes a confirmation payload.
func ParseConfirmation(payload string) (*Confirmation, error) {
	var c Confirmation
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("decode confirmation payload: %w", err)
	}
	return &c, nil
}

// ParseScript decodes a script payload.
func ParseScript(payload string) (*Script, error) {
	var s Script
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return nil, fmt.Errorf("decode script payload: %w", err)
	}
	return &s, nil
}
