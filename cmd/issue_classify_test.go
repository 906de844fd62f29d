package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		// Safety wins over everything
		{"Gas leak in the kitchen", "safety"},
		{"Smoke detector beeping", "safety"},
		{"Front door lock is broken", "safety"},
		{"Mold on bathroom ceiling", "safety"},

		// Plumbing
		{"Kitchen faucet dripping", "plumbing"},
		{"Toilet won't flush", "plumbing"},
		{"Water leaking under the sink", "plumbing"},
		{"Shower drain is clogged", "plumbing"},

		// Electrical
		{"Outlet in bedroom not working", "electrical"},
		{"Breaker keeps tripping", "electrical"},
		{"Sparking light switch", "electrical"},

		// HVAC
		{"No heat in unit 4", "hvac"},
		{"Thermostat stuck at 60", "hvac"},
		{"AC unit rattling", "hvac"},

		// Appliance
		{"Refrigerator stopped cooling", "appliance"},
		{"Dishwasher leaves residue", "appliance"},
		{"Dryer takes two cycles", "appliance"},

		// Pest
		{"Roaches in the pantry", "pest"},
		{"Mice in the basement", "pest"},

		// Structural
		{"Ceiling stain spreading", "structural"},
		{"Loose stair railing", "structural"},

		// Default
		{"Something feels off", "other"},
		{"General question about the unit", "other"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, classifyCategory(tt.text), "text: %s", tt.text)
	}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		// Urgent keywords
		{"Basement is flooding", "urgent"},
		{"Gas smell in hallway", "urgent"},
		{"Pipe burst in wall", "urgent"},
		{"No heat and it's freezing", "urgent"},
		{"Sewage backing up", "urgent"},

		// High keywords
		{"Leak under the kitchen sink", "high"},
		{"No hot water since Monday", "high"},
		{"Fridge not cooling", "high"},
		{"Dishwasher not working", "high"},

		// Low keywords
		{"Cosmetic scratch on cabinet", "low"},
		{"Paint touch up in hallway", "low"},
		{"Squeaky door hinge", "low"},
		{"Minor scuff on the wall", "low"},

		// Default
		{"Replace air filter", "medium"},
		{"Window hard to open", "medium"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, classifyPriority(tt.text), "text: %s", tt.text)
	}
}
