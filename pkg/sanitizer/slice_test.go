package sanitizer

import (
	"reflect"
	"testing"
)

func TestNormalizeValues(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "keep case",
			input: []string{"Video", "In-Person"},
			want:  []string{"Video", "In-Person"},
		},
		{
			name:  "trim whitespace",
			input: []string{" Video ", "  Phone  "},
			want:  []string{"Video", "Phone"},
		},
		{
			name:  "remove duplicates",
			input: []string{"Video", " Video", "Video "},
			want:  []string{"Video"},
		},
		{
			name:  "filter empty strings",
			input: []string{"Video", "", "  ", "Chat"},
			want:  []string{"Video", "Chat"},
		},
		{
			name:  "collapse inner whitespace",
			input: []string{"Cognitive   Behavioral\tTherapy"},
			want:  []string{"Cognitive Behavioral Therapy"},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeValues(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeValues(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeStringSlice_Idempotent(t *testing.T) {
	input := []string{"  Grief  Counseling ", "Family Therapy", "Grief Counseling"}

	once := NormalizeValues(input)
	twice := NormalizeValues(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("not idempotent: %v then %v", once, twice)
	}
	if len(once) != 2 {
		t.Errorf("expected 2 values, got %v", once)
	}
}
