package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "BandExcellent")
	if got != "Excellent work!" {
		t.Errorf("T(BandExcellent) = %q, want 'Excellent work!'", got)
	}

	got = T(ctx, "AssessmentNotFound")
	if got != "Assessment not found." {
		t.Errorf("T(AssessmentNotFound) = %q, want 'Assessment not found.'", got)
	}
}

func TestTranslateSpanish(t *testing.T) {
	ctx := initLang(t, "es")

	got := T(ctx, "BandExcellent")
	if got != "¡Excelente trabajo!" {
		t.Errorf("T(BandExcellent) = %q, want '¡Excelente trabajo!'", got)
	}

	got = T(ctx, "AssessmentLocked")
	if got != "Esta evaluación ya tiene entregas y no se puede modificar." {
		t.Errorf("T(AssessmentLocked) = %q, want Spanish locked message", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "AnswersGraded", 1)
	if got1 != "1 answer graded." {
		t.Errorf("Tp(AnswersGraded, 1) = %q, want '1 answer graded.'", got1)
	}

	got5 := Tp(ctx, "AnswersGraded", 5)
	if got5 != "5 answers graded." {
		t.Errorf("Tp(AnswersGraded, 5) = %q, want '5 answers graded.'", got5)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "AnswerCountMismatch", map[string]any{"Want": 3, "Got": 2})
	if got != "The submission has 2 answers but the assessment has 3 questions." {
		t.Errorf("Td(AnswerCountMismatch) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the key itself", got)
	}
}
