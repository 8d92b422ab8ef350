package main

import "testing"

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		before   int
		after    int
		created  int
		capacity int
		wantErr  bool
	}{
		{"fresh event", 0, 50, 50, 50, false},
		{"existing event with attendees", 12, 20, 8, 0, false},
		{"lost registration", 12, 19, 8, 0, true},
		{"phantom registration", 0, 51, 50, 0, true},
		{"over capacity", 0, 51, 51, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verify(tt.before, tt.after, tt.created, tt.capacity)
			if (err != nil) != tt.wantErr {
				t.Fatalf("verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
