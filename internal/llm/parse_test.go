package llm

import "testing"

func TestParseGradeReply(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		maxMarks int
		want     int
	}{
		{"labeled score on marks scale", "Score: 7\nFeedback: Good work.", 10, 7},
		{"labeled score with equals", "score = 4", 5, 4},
		{"labeled fraction", "Score: 7/10\nFeedback: fine", 10, 7},
		{"labeled fraction rescaled", "Score: 3/5", 10, 6},
		{"labeled percentage", "Score: 85%", 10, 9},
		{"percentage in prose", "The student deserves about 85% for this answer.", 10, 9},
		{"fraction in prose", "I would give this 7 out of 10.", 10, 7},
		{"fraction with slash", "Rating: 4/5 overall.", 10, 8},
		{"bare number read as marks", "8\nA decent attempt.", 10, 8},
		{"decimal percentage", "Roughly 72.5% correct.", 10, 7},
		{"out of range percentage clamps", "150% accurate!", 10, 10},
		{"negative percentage clamps", "-10% is my verdict", 10, 0},
		{"qualitative positive", "An excellent, thorough response.", 10, 9},
		{"qualitative partial", "A partially correct but incomplete answer.", 10, 6},
		{"qualitative negative", "This is simply incorrect.", 10, 2},
		{"negative beats positive wording", "The answer is incorrect despite sounding correct.", 10, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := parseGradeReply(tt.reply, tt.maxMarks)
			if err != nil {
				t.Fatalf("parseGradeReply(%q): %v", tt.reply, err)
			}
			if got != tt.want {
				t.Errorf("parseGradeReply(%q) = %d, want %d", tt.reply, got, tt.want)
			}
		})
	}
}

func TestParseGradeReplyUnparseable(t *testing.T) {
	for _, reply := range []string{
		"",
		"   \n\t ",
		"I cannot evaluate this submission.",
		"As an AI language model, interesting question!",
	} {
		if _, _, err := parseGradeReply(reply, 10); err == nil {
			t.Errorf("parseGradeReply(%q) should fail", reply)
		}
	}
}

func TestParseGradeReplyFeedback(t *testing.T) {
	score, feedback, err := parseGradeReply("Score: 6\nFeedback: Covers the basics but misses the mechanism.", 10)
	if err != nil {
		t.Fatal(err)
	}
	if score != 6 {
		t.Errorf("score = %d, want 6", score)
	}
	if feedback != "Covers the basics but misses the mechanism." {
		t.Errorf("feedback = %q", feedback)
	}

	// Without a Feedback label the whole reply stands in as feedback.
	_, feedback, err = parseGradeReply("7/10, a reasonable effort.", 10)
	if err != nil {
		t.Fatal(err)
	}
	if feedback != "7/10, a reasonable effort." {
		t.Errorf("feedback = %q, want full reply", feedback)
	}
}

func TestScoreClampingProperty(t *testing.T) {
	for _, maxMarks := range []int{1, 5, 10, 100} {
		for _, pct := range []float64{-500, -10, 0, 33, 100, 150, 10000} {
			got := scaleScore(pct, modePercent, maxMarks)
			if got < 0 || got > maxMarks {
				t.Errorf("scaleScore(%v%%, max %d) = %d, outside [0, %d]", pct, maxMarks, got, maxMarks)
			}
		}
	}
}
