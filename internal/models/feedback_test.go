package models

import "testing"

func TestFeedbackKindValid(t *testing.T) {
	for _, k := range FeedbackKinds {
		if !k.Valid() {
			t.Errorf("kind %q reported invalid", k)
		}
	}
	if FeedbackKind("vibes").Valid() {
		t.Error("unknown kind reported valid")
	}
	if FeedbackKind("").Valid() {
		t.Error("empty kind reported valid")
	}
}
