package notifier

import "strings"

// Variation Selector-16, requesting emoji presentation for the glyph before it
const variationSelector16 = '️'

// extractOptionEmojis derives one reaction emoji per option: the first
// emoji-like glyph found in each option string. Options without a
// recognizable glyph contribute no reaction target.
func extractOptionEmojis(options []string) []string {
	var emojis []string
	for _, option := range options {
		if emoji, ok := firstEmoji(option); ok {
			emojis = append(emojis, emoji)
		}
	}
	return emojis
}

// firstEmoji returns the first emoji-like glyph in s, keeping a trailing
// variation selector attached so the reaction matches what Discord renders
func firstEmoji(s string) (string, bool) {
	runes := []rune(s)
	for i, r := range runes {
		if !isEmojiRune(r) {
			continue
		}
		if i+1 < len(runes) && runes[i+1] == variationSelector16 {
			return string([]rune{r, variationSelector16}), true
		}
		return string(r), true
	}
	return "", false
}

func isEmojiRune(r rune) bool {
	switch {
	case r == 'ℹ': // information source
		return true
	case r >= 0x2300 && r <= 0x27BF: // technical symbols, shapes, dingbats (✅ ❌ ⏸ ▶ ⏹)
		return true
	case r >= 0x2B00 && r <= 0x2BFF: // arrows and symbols
		return true
	case r >= 0x1F000 && r <= 0x1FAFF: // emoticons, pictographs (👍 🔄)
		return true
	default:
		return false
	}
}

// matchOption finds the first option containing the selected emoji. The
// variation selector is ignored when the exact form is not present.
func matchOption(options []string, emoji string) string {
	for _, option := range options {
		if strings.Contains(option, emoji) {
			return option
		}
	}
	bare := strings.TrimSuffix(emoji, string(variationSelector16))
	for _, option := range options {
		if strings.Contains(option, bare) {
			return option
		}
	}
	return ""
}
