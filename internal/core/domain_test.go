package core

import (
	"strings"
	"testing"
)

func TestActionTemplateNormalize(t *testing.T) {
	tpl := ActionTemplate{
		ID:        "t1",
		Name:      "  morning run  ",
		Category:  "운동", // outside the closed set
		StartTime: "25:99",
		EndTime:   "",
	}
	got := tpl.Normalize()
	if got.Name != "morning run" {
		t.Fatalf("name = %q", got.Name)
	}
	if got.Category != CategoryOther {
		t.Fatalf("category = %q, want other", got.Category)
	}
	if got.StartTime != "23:59" {
		t.Fatalf("start = %q, want 23:59", got.StartTime)
	}
	if got.EndTime != "10:00" {
		t.Fatalf("absent end time = %q, want the 10:00 default", got.EndTime)
	}
}

func TestActionTemplateValidate(t *testing.T) {
	good := ActionTemplate{ID: "t1", Name: "read", Category: CategoryStudy, StartTime: "09:00", EndTime: "10:00"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []ActionTemplate{
		{ID: "", Name: "read", Category: CategoryStudy},
		{ID: "t1", Name: "   ", Category: CategoryStudy},
		{ID: "t1", Name: strings.Repeat("x", 201), Category: CategoryStudy},
		{ID: "t1", Name: "read", Category: "nope"},
	}
	for i, tpl := range bads {
		if err := tpl.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCompletionRecordValidate(t *testing.T) {
	if err := (CompletionRecord{ActionID: "a", DateKey: "2024-01-02"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (CompletionRecord{ActionID: "", DateKey: "2024-01-02"}).Validate(); err == nil {
		t.Fatal("expected error for empty action id")
	}
	if err := (CompletionRecord{ActionID: "a", DateKey: "not-a-key"}).Validate(); err == nil {
		t.Fatal("expected error for malformed date key")
	}
	// Rollover keys are structurally valid and accepted verbatim.
	if err := (CompletionRecord{ActionID: "a", DateKey: "2024-01-32"}).Validate(); err != nil {
		t.Fatalf("rollover key should pass structural validation: %v", err)
	}
}

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
	}{
		{"exercise", CategoryExercise},
		{"study", CategoryStudy},
		{"other", CategoryOther},
		{"", CategoryOther},
		{"anything-else", CategoryOther},
	}
	for _, tc := range cases {
		if got := ParseCategory(tc.in); got != tc.want {
			t.Fatalf("ParseCategory(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDailyPlanValidateAndNormalize(t *testing.T) {
	plan := DailyPlan{
		DateKey: "2024-01-02",
		Status:  PlanDraft,
		Items: []PlanItem{
			{ID: "t1", Name: " run ", Time: "7:5", Priority: 1},
			{ID: "t2", Name: "read", Time: "21:00", Priority: 2},
		},
	}
	norm := plan.Normalize()
	if norm.Items[0].Time != "09:00" {
		t.Fatalf("item time = %q, want 09:00 default", norm.Items[0].Time)
	}
	if norm.Items[0].Name != "run" {
		t.Fatalf("item name = %q", norm.Items[0].Name)
	}
	if err := norm.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []DailyPlan{
		{DateKey: "2024-1-2", Status: PlanDraft},   // unpadded key fails the strict shape
		{DateKey: "2024-01-02", Status: "pending"}, // unknown status
		{DateKey: "2024-01-02", Status: PlanConfirmed, Items: []PlanItem{{Name: " "}}},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
