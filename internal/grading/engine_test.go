package grading_test

import (
	"reflect"
	"testing"

	"github.com/studyhall/studyhall-lms/internal/grading"
)

func boolPtr(b bool) *bool { return &b }

func TestGradeByType(t *testing.T) {
	g := grading.NewGrader()

	tests := []struct {
		name string
		q    grading.Q
		v    grading.Value
		want grading.Result
	}{
		{
			name: "mc single correct",
			q:    grading.Q{Type: "multiple_choice", Points: 5, AnswerKey: []string{"B"}},
			v:    grading.SingleValue("B"),
			want: grading.Result{Correct: boolPtr(true), Points: 5},
		},
		{
			name: "mc single wrong",
			q:    grading.Q{Type: "multiple_choice", Points: 5, AnswerKey: []string{"B"}},
			v:    grading.SingleValue("C"),
			want: grading.Result{Correct: boolPtr(false)},
		},
		{
			name: "mc single member of multi-key",
			q:    grading.Q{Type: "multiple_choice", Points: 3, AnswerKey: []string{"A", "C"}},
			v:    grading.SingleValue("C"),
			want: grading.Result{Correct: boolPtr(true), Points: 3},
		},
		{
			name: "multi-select exact set, order insensitive",
			q:    grading.Q{Type: "multiple_choice", Points: 4, AnswerKey: []string{"A", "C"}},
			v:    grading.MultiValue("C", "A"),
			want: grading.Result{Correct: boolPtr(true), Points: 4},
		},
		{
			name: "multi-select duplicate insensitive",
			q:    grading.Q{Type: "multiple_choice", Points: 4, AnswerKey: []string{"A", "C"}},
			v:    grading.MultiValue("A", "C", "A"),
			want: grading.Result{Correct: boolPtr(true), Points: 4},
		},
		{
			name: "multi-select missing member, no partial credit",
			q:    grading.Q{Type: "multiple_choice", Points: 4, AnswerKey: []string{"A", "C"}},
			v:    grading.MultiValue("A"),
			want: grading.Result{Correct: boolPtr(false)},
		},
		{
			name: "multi-select extra member fails",
			q:    grading.Q{Type: "multiple_choice", Points: 4, AnswerKey: []string{"A", "C"}},
			v:    grading.MultiValue("A", "C", "D"),
			want: grading.Result{Correct: boolPtr(false)},
		},
		{
			name: "true_false casefolded",
			q:    grading.Q{Type: "true_false", Points: 2, AnswerKey: []string{"true"}},
			v:    grading.SingleValue("True"),
			want: grading.Result{Correct: boolPtr(true), Points: 2},
		},
		{
			name: "short_answer normalized match",
			q:    grading.Q{Type: "short_answer", Points: 3, AnswerKey: []string{"Photosynthesis"}},
			v:    grading.SingleValue("  photosynthesis "),
			want: grading.Result{Correct: boolPtr(true), Points: 3},
		},
		{
			name: "short_answer miss",
			q:    grading.Q{Type: "short_answer", Points: 3, AnswerKey: []string{"photosynthesis"}},
			v:    grading.SingleValue("respiration"),
			want: grading.Result{Correct: boolPtr(false)},
		},
		{
			name: "essay needs manual review",
			q:    grading.Q{Type: "essay", Points: 10, AnswerKey: nil},
			v:    grading.SingleValue("long form response"),
			want: grading.Result{NeedsReview: true},
		},
		{
			name: "unknown type falls back to review",
			q:    grading.Q{Type: "matching", Points: 5},
			v:    grading.SingleValue("x"),
			want: grading.Result{NeedsReview: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Grade(tt.q, tt.v)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Grade() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGradeIsDeterministic(t *testing.T) {
	g := grading.NewGrader()
	q := grading.Q{Type: "multiple_choice", Points: 4, AnswerKey: []string{"A", "C"}}
	v := grading.MultiValue("C", "A")

	first := g.Grade(q, v)
	for i := 0; i < 10; i++ {
		if got := g.Grade(q, v); !reflect.DeepEqual(got, first) {
			t.Fatalf("grade %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestGradeNeverExceedsPoints(t *testing.T) {
	g := grading.NewGrader()
	qs := []grading.Q{
		{Type: "multiple_choice", Points: 1, AnswerKey: []string{"A"}},
		{Type: "true_false", Points: 7, AnswerKey: []string{"false"}},
		{Type: "short_answer", Points: 3, AnswerKey: []string{"x"}},
		{Type: "essay", Points: 10},
	}
	vals := []grading.Value{
		grading.SingleValue("A"),
		grading.SingleValue("false"),
		grading.MultiValue("A", "B"),
		{},
	}
	for _, q := range qs {
		for _, v := range vals {
			res := g.Grade(q, v)
			if res.Points < 0 || res.Points > q.Points {
				t.Errorf("points %d out of range for q=%+v v=%+v", res.Points, q, v)
			}
		}
	}
}
