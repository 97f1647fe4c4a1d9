package model

import "testing"

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		in      string
		want    Urgency
		wantErr bool
	}{
		{"", UrgencyNormal, false},
		{"low", UrgencyLow, false},
		{" HIGH ", UrgencyHigh, false},
		{"Normal", UrgencyNormal, false},
		{"super", "", true},
	}
	for _, tt := range tests {
		got, err := ParseUrgency(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseUrgency(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseUrgency(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
