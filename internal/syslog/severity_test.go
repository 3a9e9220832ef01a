package syslog

import "testing"

type level string

func (l level) LevelName() string { return string(l) }

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		source   Leveled
		sink     Leveled
		expected Severity
	}{
		{
			name:     "nothing set defaults to info",
			source:   level(""),
			sink:     level(""),
			expected: Info,
		},
		{
			name:     "source level used when sink unset",
			source:   level("warn"),
			sink:     level(""),
			expected: Warn,
		},
		{
			name:     "sink level overrides source level",
			source:   level("debug"),
			sink:     level("error"),
			expected: Error,
		},
		{
			name:     "unrecognized sink level resolves to info, not source",
			source:   level("critical"),
			sink:     level("verbose"),
			expected: Info,
		},
		{
			name:     "matching is case sensitive",
			source:   level(""),
			sink:     level("ERROR"),
			expected: Info,
		},
		{
			name:     "nil sink falls back to source",
			source:   level("alert"),
			sink:     nil,
			expected: Alert,
		},
		{
			name:     "emergency",
			source:   level("emergency"),
			sink:     level(""),
			expected: Emergency,
		},
		{
			name:     "notice",
			source:   level(""),
			sink:     level("notice"),
			expected: Notice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.source, tt.sink)
			if got != tt.expected {
				t.Fatalf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestSeverityOrdering(t *testing.T) {
	order := []Severity{Emergency, Alert, Critical, Error, Warn, Notice, Info, Debug}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Fatalf("%s should be more urgent than %s", order[i-1], order[i])
		}
	}
}

func TestSeverityNames(t *testing.T) {
	tests := []struct {
		severity Severity
		name     string
		keyword  string
	}{
		{Emergency, "emergency", "emerg"},
		{Critical, "critical", "crit"},
		{Error, "error", "err"},
		{Warn, "warn", "warning"},
		{Info, "info", "info"},
		{Debug, "debug", "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.severity.String() != tt.name {
				t.Fatalf("expected name %q, got %q", tt.name, tt.severity.String())
			}
			if tt.severity.Keyword() != tt.keyword {
				t.Fatalf("expected keyword %q, got %q", tt.keyword, tt.severity.Keyword())
			}
			if !ValidLevel(tt.name) {
				t.Fatalf("expected %q to be a valid level", tt.name)
			}
			if ParseLevel(tt.name) != tt.severity {
				t.Fatalf("round-trip failed for %q", tt.name)
			}
		})
	}
}

func TestPriority(t *testing.T) {
	user, err := FacilityToCode("user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Priority(user, Info); got != 14 {
		t.Fatalf("expected priority 14, got %d", got)
	}

	local7, err := FacilityToCode("local7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Priority(local7, Emergency); got != 184 {
		t.Fatalf("expected priority 184, got %d", got)
	}
}
