package scriptagent

import "testing"

func TestParseAnalysisConfidenceShapes(t *testing.T) {
	// Models emit confidence as a number or as a label; both must decode.
	for _, payload := range []string{
		`{"phase": "analysis", "parsed_input": {"event_or_story": "x", "confidence": 0.85}}`,
		`{"phase": "analysis", "parsed_input": {"event_or_story": "x", "confidence": "high"}}`,
	} {
		a, err := ParseAnalysis(payload)
		if err != nil {
			t.Fatalf("ParseAnalysis(%s): %v", payload, err)
		}
		if a.ParsedInput.EventOrStory != "x" {
			t.Errorf("event_or_story = %q", a.ParsedInput.EventOrStory)
		}
	}
}

func TestAnalysisHasQuestions(t *testing.T) {
	withQuestions := &Analysis{QuestionsForUser: []string{"comics or show?"}}
	if !withQuestions.HasQuestions() {
		t.Errorf("HasQuestions = false with pending questions")
	}
	if (&Analysis{}).HasQuestions() {
		t.Errorf("HasQuestions = true with no questions")
	}
}

func TestConfirmationOutlineInRange(t *testing.T) {
	tests := []struct {
		scenes int
		want   bool
	}{
		{7, false},
		{8, true},
		{11, true},
		{14, true},
		{15, false},
		{0, false},
	}

	for _, tt := range tests {
		c := &Confirmation{SceneOutline: make([]SceneBeat, tt.scenes)}
		if got := c.OutlineInRange(); got != tt.want {
			t.Errorf("OutlineInRange with %d scenes = %v, want %v", tt.scenes, got, tt.want)
		}
	}
}

func TestScriptValidate(t *testing.T) {
	valid := &Script{
		Title:  "t",
		Scenes: []Scene{{SceneID: 1, Narration: "words"}},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid script rejected: %v", err)
	}

	if err := (&Script{Title: "t"}).Validate(); err == nil {
		t.Errorf("script with no scenes accepted")
	}

	silent := &Script{Scenes: []Scene{{SceneID: 1}}}
	if err := silent.Validate(); err == nil {
		t.Errorf("scene without narration accepted")
	}
}

func TestScriptMissingSourceFields(t *testing.T) {
	s := &Script{
		ComicSource: ComicSource{CatalogueURL: ""},
		Scenes: []Scene{
			{SceneID: 1, Narration: "a", SourceIssue: "#121"},
			{SceneID: 2, Narration: "b"},
		},
	}

	missing := s.MissingSourceFields()
	if len(missing) != 2 {
		t.Fatalf("missing = %v, want catalogue_url and scene 2 issue", missing)
	}
	if missing[0] != "comic_source.catalogue_url" {
		t.Errorf("missing[0] = %q", missing[0])
	}
	if missing[1] != "scenes[2].source_issue" {
		t.Errorf("missing[1] = %q", missing[1])
	}
}

func TestParseScriptSourcePageShapes(t *testing.T) {
	// source_page arrives as an integer or an array of integers.
	payload := `{"phase": "script", "title": "t",
	  "scenes": [
	    {"scene_id": 1, "narration": "a", "source_issue": "#121", "source_page": 18},
	    {"scene_id": 2, "narration": "b", "source_issue": "#122", "source_page": [3, 4]}
	  ]}`

	s, err := ParseScript(payload)
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if len(s.Scenes) != 2 {
		t.Fatalf("scenes = %d", len(s.Scenes))
	}
	if _, ok := s.Scenes[0].SourcePage.(float64); !ok {
		t.Errorf("scene 1 source_page type %T, want number", s.Scenes[0].SourcePage)
	}
	if _, ok := s.Scenes[1].SourcePage.([]interface{}); !ok {
		t.Errorf("scene 2 source_page type %T, want array", s.Scenes[1].SourcePage)
	}
}

func TestParseConfirmation(t *testing.T) {
	payload := `{"phase": "confirmation",
	  "scene_outline": [{"scene_id": 1, "beat": "opening", "estimated_seconds": 12}],
	  "total_scenes": 1, "estimated_duration_seconds": 12,
	  "tone": "tragic", "message_to_user": "review please"}`

	c, err := ParseConfirmation(payload)
	if err != nil {
		t.Fatalf("ParseConfirmation: %v", err)
	}
	if c.Tone != "tragic" || c.TotalScenes != 1 {
		t.Errorf("fields lost: %+v", c)
	}
	if c.SceneOutline[0].Beat != "opening" {
		t.Errorf("beat = %q", c.SceneOutline[0].Beat)
	}
}
