package models

import "testing"

func TestCategoryValid(t *testing.T) {
	for _, cat := range Categories {
		if !cat.Valid() {
			t.Errorf("declared category %q reported invalid", cat)
		}
	}
	if Category("alien_invasion").Valid() {
		t.Error("unknown category reported valid")
	}
	if Category("").Valid() {
		t.Error("empty category reported valid")
	}
}

func TestStatusValid(t *testing.T) {
	for _, st := range []Status{StatusActive, StatusMonitoring, StatusResolved} {
		if !st.Valid() {
			t.Errorf("status %q reported invalid", st)
		}
	}
	if Status("escalated").Valid() {
		t.Error("unknown status reported valid")
	}
}
