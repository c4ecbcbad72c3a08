package membership

import (
	"strings"
	"unicode"

	"trailmate/backend/internal/models"
)

const (
	// DefaultMaxVisible is the roster preview size.
	DefaultMaxVisible = 5
	// SingleAvatar is used where only one face is shown.
	SingleAvatar = 1
)

// SortParticipantsForDisplay moves hosts ahead of participants without
// reordering within either group, then cuts the result to maxVisible.
func SortParticipantsForDisplay(participants []models.ActivityParticipant, maxVisible int) (visible []models.ActivityParticipant, extraCount int) {
	sorted := make([]models.ActivityParticipant, 0, len(participants))
	for _, p := range participants {
		if p.Role == models.RoleHost {
			sorted = append(sorted, p)
		}
	}
	for _, p := range participants {
		if p.Role != models.RoleHost {
			sorted = append(sorted, p)
		}
	}

	if maxVisible < 0 {
		maxVisible = 0
	}
	if maxVisible < len(sorted) {
		visible = sorted[:maxVisible]
	} else {
		visible = sorted
	}
	return visible, max(0, len(participants)-len(visible))
}

// DisplayLabel picks the name shown for a participant: full name, then
// username, then the raw user id.
func DisplayLabel(p *models.ParticipantProfile, userID string) string {
	if p != nil {
		if p.FullName != nil && strings.TrimSpace(*p.FullName) != "" {
			return *p.FullName
		}
		if p.Username != nil && strings.TrimSpace(*p.Username) != "" {
			return *p.Username
		}
	}
	return userID
}

// Initials returns the avatar placeholder text for label.
func Initials(label string) string {
	words := strings.Fields(label)
	switch len(words) {
	case 0:
		return ""
	case 1:
		r := []rune(words[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return strings.ToUpper(string(r))
	}
	first, last := []rune(words[0]), []rune(words[len(words)-1])
	return string([]rune{unicode.ToUpper(first[0]), unicode.ToUpper(last[0])})
}
