package main

import (
	"reflect"
	"testing"
)

func TestQueryArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"rotate credentials", "-limit", "5"},
			expected: []string{"-limit", "5", "rotate credentials"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-limit", "5", "rotate credentials"},
			expected: []string{"-limit", "5", "rotate credentials"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"rotate credentials"},
			expected: []string{"rotate credentials"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"deployment", "checklist", "-output", "json"},
			expected: []string{"-output", "json", "deployment", "checklist"},
		},
		{
			name:     "no flags multiple words unchanged",
			args:     []string{"deployment", "checklist"},
			expected: []string{"deployment", "checklist"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := queryArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("queryArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}
